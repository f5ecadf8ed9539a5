package vision

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"clearoute/internal/domain/port"
)

var frameExtensions = []string{".jpg", ".jpeg", ".png"}

// DirFrameSource отдаёт изображения из каталога в порядке имён файлов.
// Подходит для записанных заранее кадров с камеры.
type DirFrameSource struct {
	paths []string
	next  int
}

// NewDirFrameSource собирает список кадров из каталога dir.
func NewDirFrameSource(dir string) (*DirFrameSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.Contains(frameExtensions, ext) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)

	return &DirFrameSource{paths: paths}, nil
}

// Len возвращает количество найденных кадров.
func (s *DirFrameSource) Len() int {
	return len(s.paths)
}

// Next читает следующий файл; после последнего возвращает io.EOF.
func (s *DirFrameSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.next]
	s.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// Close ничего не держит открытым.
func (s *DirFrameSource) Close() error {
	return nil
}

// CCTVSourceName метка источника для записи с камеры, как на панели оператора.
func CCTVSourceName(path string) string {
	return "CCTV: " + filepath.Base(filepath.Clean(path))
}

var _ port.FrameSource = (*DirFrameSource)(nil)
