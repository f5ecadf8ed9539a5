package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSourceReport(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	all := []Observation{
		{ID: 5, Source: "CCTV: a.mp4", DefectCount: 4},
		{ID: 4, Source: "b.jpg", DefectCount: 9},
		{ID: 3, Source: "CCTV: a.mp4", DefectCount: 1},
		{ID: 2, Source: "CCTV: a.mp4", DefectCount: 5},
		{ID: 1, Source: "CCTV: a.mp4", DefectCount: 2},
	}

	rep := NewSourceReport("CCTV: a.mp4", all, now)
	require.Equal(t, 8, rep.UniqueDefects)
	require.Equal(t, 4, rep.Frames)
	require.Equal(t, now, rep.GeneratedAt)
	require.Equal(t, []int64{5, 3, 2, 1}, ids(rep.Rows))
	require.Equal(t, []int64{1, 2, 3, 5}, ids(rep.Chronological()))
}

func TestNewSourceReport_EmptyHistory(t *testing.T) {
	rep := NewSourceReport("nothing", nil, time.Now())
	require.Zero(t, rep.UniqueDefects)
	require.Zero(t, rep.Frames)
	require.Empty(t, rep.Rows)
}

func ids(obs []Observation) []int64 {
	out := make([]int64, len(obs))
	for i, o := range obs {
		out[i] = o.ID
	}
	return out
}
