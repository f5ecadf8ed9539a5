package entity

import "time"

// SourceReport сводка аудита по одному источнику.
type SourceReport struct {
	Source        string
	UniqueDefects int
	Frames        int
	GeneratedAt   time.Time
	Rows          []Observation // в порядке хранилища, новые сверху
}

// NewSourceReport собирает сводку из всех записей хранилища.
func NewSourceReport(source string, all []Observation, now time.Time) *SourceReport {
	rows := FilterBySource(all, source)
	return &SourceReport{
		Source:        source,
		UniqueDefects: UniqueDefectsOf(rows),
		Frames:        len(rows),
		GeneratedAt:   now,
		Rows:          rows,
	}
}

// Chronological возвращает строки от старых к новым, для графиков.
func (r *SourceReport) Chronological() []Observation {
	out := make([]Observation, len(r.Rows))
	for i, o := range r.Rows {
		out[len(r.Rows)-1-i] = o
	}
	return out
}
