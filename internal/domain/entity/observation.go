package entity

import (
	"errors"
	"time"
)

// Quality оценка состояния дороги на кадре
type Quality string

const (
	QualityGood Quality = "Good" // выбоин нет
	QualityBad  Quality = "Bad"  // есть хотя бы одна выбоина
)

// ErrNegativeCount возвращается при попытке записать отрицательное количество.
var ErrNegativeCount = errors.New("defect count must not be negative")

// QualityOf выводит оценку из количества выбоин.
func QualityOf(count int) Quality {
	if count > 0 {
		return QualityBad
	}
	return QualityGood
}

// Observation одна запись журнала аудита: результат одного вызова детектора.
type Observation struct {
	ID          int64     // идентификатор, назначается хранилищем
	Timestamp   time.Time // момент записи
	Source      string    // имя файла или "CCTV: <name>"
	DefectCount int       // выбоин на кадре, не накопительно
	Quality     Quality   // всегда QualityOf(DefectCount)
}

// NewObservation создаёт запись с вычисленной оценкой качества.
func NewObservation(ts time.Time, source string, count int) (Observation, error) {
	if count < 0 {
		return Observation{}, ErrNegativeCount
	}
	return Observation{
		Timestamp:   ts,
		Source:      source,
		DefectCount: count,
		Quality:     QualityOf(count),
	}, nil
}

// FilterBySource оставляет записи одного источника, сохраняя порядок.
func FilterBySource(observations []Observation, source string) []Observation {
	out := make([]Observation, 0, len(observations))
	for _, o := range observations {
		if o.Source == source {
			out = append(out, o)
		}
	}
	return out
}

// Sources возвращает уникальные источники в порядке первого появления.
func Sources(observations []Observation) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range observations {
		if _, ok := seen[o.Source]; ok {
			continue
		}
		seen[o.Source] = struct{}{}
		out = append(out, o.Source)
	}
	return out
}
