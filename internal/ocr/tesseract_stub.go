//go:build !cgo
// +build !cgo

package ocr

import "errors"

var errUnavailable = errors.New("text recovery requires CGO; build with CGO_ENABLED=1 and libtesseract")

// TesseractEngine stub type when built without CGO (see tesseract.go for the real implementation).
type TesseractEngine struct{}

// NewTesseractEngine returns an error when built without CGO (Tesseract not available).
func NewTesseractEngine(_ []string) (*TesseractEngine, error) {
	return nil, errUnavailable
}

// Recognize always fails on the stub.
func (e *TesseractEngine) Recognize(string) (string, error) {
	return "", errUnavailable
}

// Close is a no-op on the stub.
func (e *TesseractEngine) Close() error {
	return nil
}
