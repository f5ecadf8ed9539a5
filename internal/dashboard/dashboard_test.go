package dashboard

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clearoute/internal/domain/entity"
)

type staticHistory struct {
	mu    sync.Mutex
	rows  []entity.Observation
	err   error
	calls int
}

func (s *staticHistory) History(context.Context) ([]entity.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.rows, s.err
}

func (s *staticHistory) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func history() []entity.Observation {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var rows []entity.Observation
	for i, c := range []int{4, 1, 5, 2} {
		rows = append(rows, entity.Observation{
			ID: int64(4 - i), Timestamp: ts.Add(-time.Duration(i) * time.Second),
			Source: "CCTV: road.mp4", DefectCount: c, Quality: entity.QualityOf(c),
		})
	}
	return rows
}

func TestDashboard_RenderIsIdempotent(t *testing.T) {
	color.NoColor = true
	src := &staticHistory{rows: history()}

	var out bytes.Buffer
	d := New(src, &out, time.Second, zap.NewNop())
	d.ClearScreen = false
	d.now = func() time.Time { return time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC) }

	require.NoError(t, d.Render(context.Background()))
	first := out.String()
	out.Reset()
	require.NoError(t, d.Render(context.Background()))

	assert.Equal(t, first, out.String())
	assert.Contains(t, first, "CCTV: road.mp4")
	assert.Contains(t, first, "Unique Defects")
	assert.Regexp(t, `│\s+8\s+│`, first)
}

func TestDashboard_RenderReportsBackendDown(t *testing.T) {
	src := &staticHistory{err: errors.New("connection refused")}

	var out bytes.Buffer
	d := New(src, &out, time.Second, zap.NewNop())

	err := d.Render(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out.String(), clearScreen))
	assert.Contains(t, out.String(), "Ensure backend is running")
}

func TestDashboard_RunPollsUntilCancelled(t *testing.T) {
	src := &staticHistory{rows: history()}
	d := New(src, &bytes.Buffer{}, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return src.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
