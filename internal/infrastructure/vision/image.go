package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"clearoute/internal/domain/entity"
)

// probeImage проверяет, что байты похожи на JPEG или PNG, и возвращает размеры.
// Нужна, чтобы не гонять битые данные до модели.
func probeImage(data []byte) (width, height int, err error) {
	if len(data) == 0 {
		return 0, 0, errors.Join(entity.ErrInvalidImage, errors.New("empty image"))
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errors.Join(entity.ErrInvalidImage, fmt.Errorf("decode config: %w", err))
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, errors.Join(entity.ErrInvalidImage, fmt.Errorf("empty %s image", format))
	}
	return cfg.Width, cfg.Height, nil
}
