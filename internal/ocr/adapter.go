// Package ocr provides best-effort text recovery from image attachments.
package ocr

import "strings"

// Engine performs optical character recognition on an image file.
type Engine interface {
	Recognize(path string) (string, error)
	Close() error
}

// Adapter wraps an optional Engine behind a contract that never fails
// outward: an absent capability, an unreadable file, or an engine error all
// yield the empty string. The engine is injected once at construction; this
// is the single seam for the optional dependency.
type Adapter struct {
	engine Engine
}

// NewAdapter returns an adapter over engine. engine may be nil, in which
// case every recovery attempt returns "".
func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Available reports whether an engine is configured.
func (a *Adapter) Available() bool {
	return a != nil && a.engine != nil
}

// RecoverText returns the text recognized in the image at path, trimmed of
// surrounding whitespace, or "" when the capability is unavailable or
// recognition fails for any reason.
func (a *Adapter) RecoverText(path string) string {
	if !a.Available() {
		return ""
	}
	text, err := a.engine.Recognize(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Close releases the underlying engine, if any.
func (a *Adapter) Close() error {
	if a.Available() {
		return a.engine.Close()
	}
	return nil
}
