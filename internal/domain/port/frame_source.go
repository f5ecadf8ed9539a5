package port

import "context"

// FrameSource поставляет кадры по одному (pull-модель).
// Когда кадры закончились, Next возвращает io.EOF.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}
