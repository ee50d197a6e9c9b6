package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kaiwa/internal/archive"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/ocr"
	"github.com/hyperjump/kaiwa/internal/transcript"
)

func buildExport(t *testing.T, entries map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "export.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

type fixedEngine struct{ text string }

func (f *fixedEngine) Recognize(path string) (string, error) { return f.text, nil }
func (f *fixedEngine) Close() error                          { return nil }

func TestParse_endToEnd(t *testing.T) {
	chat := "9/8/25, 5:58 PM - Messages are end-to-end encrypted.\n" +
		"9/8/25, 5:58 PM - John Doe: Loan No: 123\n" +
		"Name: Asha\n" +
		"9/8/25, 5:59 PM - John Doe: IMG-001.jpg attached\n"
	zipPath := buildExport(t, map[string]string{
		"chat.txt":    chat,
		"IMG-001.jpg": "not really a jpeg",
	})

	p := NewPipeline(ocr.NewAdapter(&fixedEngine{text: "scanned receipt"}), nil)
	doc, rows, err := p.Parse(context.Background(), zipPath)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(doc.Messages))
	}
	if len(rows) != len(doc.Messages) {
		t.Fatalf("rows = %d, messages = %d; counts must match", len(rows), len(doc.Messages))
	}

	if doc.Messages[0].Sender != models.SystemSender {
		t.Errorf("first sender = %q", doc.Messages[0].Sender)
	}
	if doc.Messages[1].Text != "Loan No: 123\nName: Asha" {
		t.Errorf("second text = %q", doc.Messages[1].Text)
	}
	if rows[1].Details["loan_num"] != "123" || rows[1].Details["name"] != "Asha" {
		t.Errorf("details = %v", rows[1].Details)
	}

	atts := doc.Messages[2].Attachments
	if len(atts) != 1 || atts[0].Filename != "IMG-001.jpg" {
		t.Fatalf("attachments = %+v", atts)
	}
	if atts[0].OCRText != "scanned receipt" {
		t.Errorf("OCRText = %q", atts[0].OCRText)
	}
	if rows[2].Attachments != "IMG-001.jpg" || rows[2].OCRText != "scanned receipt" {
		t.Errorf("row projection = %+v", rows[2])
	}
}

func TestParse_noRecoveryCapability(t *testing.T) {
	zipPath := buildExport(t, map[string]string{
		"chat.txt":    "9/8/25, 5:58 PM - John: IMG-001.jpg\n",
		"IMG-001.jpg": "bytes",
	})
	p := NewPipeline(nil, nil)
	doc, _, err := p.Parse(context.Background(), zipPath)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Messages[0].Attachments[0].OCRText; got != "" {
		t.Errorf("OCRText = %q, want empty without capability", got)
	}
}

func TestParse_zeroMessages(t *testing.T) {
	zipPath := buildExport(t, map[string]string{"chat.txt": "no headers anywhere\n"})
	p := NewPipeline(nil, nil)
	doc, rows, err := p.Parse(context.Background(), zipPath)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Messages) != 0 || len(rows) != 0 {
		t.Errorf("messages = %d, rows = %d, want 0 each", len(doc.Messages), len(rows))
	}
}

func TestParse_missingTranscript(t *testing.T) {
	zipPath := buildExport(t, map[string]string{"IMG-001.jpg": "bytes"})
	_, _, err := NewPipeline(nil, nil).Parse(context.Background(), zipPath)
	if !errors.Is(err, archive.ErrMissingTranscript) {
		t.Errorf("err = %v, want ErrMissingTranscript", err)
	}
}

func TestParse_unreadableArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.zip")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := NewPipeline(nil, nil).Parse(context.Background(), path)
	if !errors.Is(err, archive.ErrArchiveUnreadable) {
		t.Errorf("err = %v, want ErrArchiveUnreadable", err)
	}
}

func TestParse_malformedTimestampAbortsRun(t *testing.T) {
	zipPath := buildExport(t, map[string]string{
		"chat.txt": "9/8/25, 5:58 PM - John: ok\n13/13/25, 5:59 PM - John: bad\n",
	})
	_, _, err := NewPipeline(nil, nil).Parse(context.Background(), zipPath)
	var mt *transcript.MalformedTimestampError
	if !errors.As(err, &mt) {
		t.Fatalf("err = %v, want MalformedTimestampError", err)
	}
	if mt.Line != 2 {
		t.Errorf("Line = %d, want 2", mt.Line)
	}
}

func TestParse_attachmentMentionedTwice(t *testing.T) {
	zipPath := buildExport(t, map[string]string{
		"chat.txt": "9/8/25, 5:58 PM - John: see IMG-001.jpg and IMG-001.jpg again\n",
	})
	doc, _, err := NewPipeline(nil, nil).Parse(context.Background(), zipPath)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(doc.Messages[0].Attachments); got != 2 {
		t.Errorf("attachments = %d, want 2 entries for a repeated mention", got)
	}
}
