package entity

// DefectArea представляет область с обнаруженной выбоиной
type DefectArea struct {
	X          int     // координата X левого верхнего угла
	Y          int     // координата Y левого верхнего угла
	Width      int     // ширина рамки в пикселях
	Height     int     // высота рамки в пикселях
	Class      string  // метка класса модели, обычно "pothole"
	Confidence float32 // уверенность модели
}

// Center возвращает координаты центра рамки
func (d DefectArea) Center() (x, y int) {
	return d.X + d.Width/2, d.Y + d.Height/2
}

// Area возвращает площадь рамки в пикселях
func (d DefectArea) Area() int {
	return d.Width * d.Height
}
