package entity

// InspectionResult хранит итог анализа одного кадра.
type InspectionResult struct {
	ImageWidth  int          // ширина изображения
	ImageHeight int          // высота изображения
	Defects     []DefectArea // найденные рамки
	Annotated   []byte       // JPEG с нарисованными рамками
	Reported    int          // количество, которое сообщил удалённый детектор
}

// Count возвращает число выбоин на кадре (не накопительное).
// Количество от удалённого детектора главнее числа пришедших рамок.
func (r *InspectionResult) Count() int {
	if r == nil {
		return 0
	}
	if r.Reported > 0 {
		return r.Reported
	}
	return len(r.Defects)
}

// HasDefects сообщает, есть ли на кадре хотя бы одна выбоина.
func (r *InspectionResult) HasDefects() bool {
	return r.Count() > 0
}
