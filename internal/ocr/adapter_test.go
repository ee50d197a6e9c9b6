package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

type stubEngine struct {
	text string
	err  error
}

func (s *stubEngine) Recognize(path string) (string, error) { return s.text, s.err }
func (s *stubEngine) Close() error                          { return nil }

func TestAdapter_nilEngine(t *testing.T) {
	a := NewAdapter(nil)
	if a.Available() {
		t.Error("nil engine should not be available")
	}
	if got := a.RecoverText("whatever.jpg"); got != "" {
		t.Errorf("RecoverText = %q, want empty", got)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestAdapter_engineErrorYieldsEmpty(t *testing.T) {
	a := NewAdapter(&stubEngine{err: errors.New("corrupt file")})
	if got := a.RecoverText("x.png"); got != "" {
		t.Errorf("RecoverText = %q, want empty on engine error", got)
	}
}

func TestAdapter_trimsResult(t *testing.T) {
	a := NewAdapter(&stubEngine{text: "  hello world \n"})
	if got := a.RecoverText("x.png"); got != "hello world" {
		t.Errorf("RecoverText = %q", got)
	}
}

func TestFlattenImage_paletted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")

	src := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	src.SetColorIndex(1, 1, 1)
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	flattened, err := flattenImage(path)
	if err != nil {
		t.Fatalf("flattenImage: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(flattened))
	if err != nil {
		t.Fatalf("decode flattened: %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
	if _, ok := out.(*image.RGBA); !ok {
		t.Errorf("flattened image is %T, want *image.RGBA", out)
	}
}

func TestFlattenImage_notAnImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.jpg")
	if err := os.WriteFile(path, []byte("this is not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := flattenImage(path); err == nil {
		t.Error("expected decode error for non-image bytes")
	}
}

func TestFlattenImage_missingFile(t *testing.T) {
	if _, err := flattenImage(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
