package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectorUnavailable детектор не ответил или вернул ошибку, кадр пропускается.
	ErrDetectorUnavailable = errors.New("detector unavailable")
	// ErrInvalidImage входные байты не являются изображением.
	ErrInvalidImage = errors.New("invalid image")
	// ErrStoreUnavailable хранилище аудита недоступно.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DetectorError ошибка вызова детектора.
type DetectorError struct {
	Op  string
	Err error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s: %v", e.Op, e.Err)
}

func (e *DetectorError) Unwrap() error { return e.Err }

// Is позволяет проверять errors.Is(err, ErrDetectorUnavailable).
func (e *DetectorError) Is(target error) bool {
	return target == ErrDetectorUnavailable
}

// StoreError ошибка хранилища аудита.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}
