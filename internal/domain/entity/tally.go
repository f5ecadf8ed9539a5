package entity

import "slices"

// Tally считает уникальные выбоины во время живой сессии.
//
// Рост количества между соседними кадрами считается появлением новых выбоин,
// падение или то же значение ничего не добавляет. Нулевое значение готово к работе.
// Tally не потокобезопасен: одна сессия владеет одним счётчиком.
type Tally struct {
	previous int
	total    int
	frames   int
}

// Observe учитывает количество на очередном кадре и возвращает текущий итог.
func (t *Tally) Observe(count int) int {
	if count > t.previous {
		t.total += count - t.previous
	}
	t.previous = count
	t.frames++
	return t.total
}

// Total возвращает накопленное число уникальных выбоин.
func (t *Tally) Total() int {
	return t.total
}

// Frames возвращает число учтённых кадров.
func (t *Tally) Frames() int {
	return t.frames
}

// Reset начинает новую сессию.
func (t *Tally) Reset() {
	*t = Tally{}
}

// UniqueDefects пересчитывает итог по сохранённой последовательности
// (в хронологическом порядке). Первое значение целиком считается новым.
func UniqueDefects(counts []int) int {
	total := 0
	previous := 0
	for i, c := range counts {
		diff := c
		if i > 0 {
			diff = c - previous
		}
		if diff > 0 {
			total += diff
		}
		previous = c
	}
	return total
}

// UniqueDefectsOf считает итог по записям в порядке хранилища (новые сверху).
// Порядок переворачивается в порядок вставки; временные метки не проверяются.
func UniqueDefectsOf(observations []Observation) int {
	counts := make([]int, len(observations))
	for i, o := range observations {
		counts[i] = o.DefectCount
	}
	slices.Reverse(counts)
	return UniqueDefects(counts)
}
