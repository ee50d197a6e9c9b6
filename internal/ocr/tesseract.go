//go:build cgo
// +build cgo

package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text with a local Tesseract installation via
// gosseract. It requires CGO and libtesseract at build time.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine creates an engine for the given languages (e.g. "eng").
// An empty slice keeps gosseract's default language.
func NewTesseractEngine(languages []string) (*TesseractEngine, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	return &TesseractEngine{client: client}, nil
}

// Recognize decodes the image at path, flattens it to full-color RGBA, and
// runs recognition over the result.
func (e *TesseractEngine) Recognize(path string) (string, error) {
	flattened, err := flattenImage(path)
	if err != nil {
		return "", err
	}
	if err := e.client.SetImageFromBytes(flattened); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases the gosseract client.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}
