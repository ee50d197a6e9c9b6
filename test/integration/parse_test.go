// Package integration provides end-to-end tests (real archive in, real documents out).
package integration

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kaiwa/internal/export"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/pipeline"
	"github.com/hyperjump/kaiwa/internal/storage"
)

func writeExportZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestIntegration_ParseExport(t *testing.T) {
	dir := t.TempDir()
	transcript := "9/8/25, 5:58 PM - Messages and calls are end-to-end encrypted.\n" +
		"9/8/25, 5:59 PM - Agent: Loan No: 1217\n" +
		"Name: Ravi Kumar\n" +
		"Status: -Paid\n" +
		"9/8/25, 6:01 PM - Agent: IMG-20250908-WA0001.jpg (file attached)\n"
	zipPath := filepath.Join(dir, "export.zip")
	writeExportZip(t, zipPath, map[string][]byte{
		"chat.txt":                 []byte(transcript),
		"IMG-20250908-WA0001.jpg":  []byte("not really a jpeg"),
		"PTT-20250908-WA0002.opus": []byte("voice note"),
	})

	ctx := context.Background()
	doc, rows, err := pipeline.NewPipeline(nil, nil).Parse(ctx, zipPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Messages) != 3 || len(rows) != 3 {
		t.Fatalf("messages = %d, rows = %d, want 3 each", len(doc.Messages), len(rows))
	}
	if doc.Messages[0].Sender != models.SystemSender {
		t.Errorf("first sender = %q", doc.Messages[0].Sender)
	}
	if rows[1].Details["loan_num"] != "1217" || rows[1].Details["status"] != "Paid" {
		t.Errorf("details = %v", rows[1].Details)
	}
	if len(doc.Messages[2].Attachments) != 1 {
		t.Fatalf("attachments = %v", doc.Messages[2].Attachments)
	}

	jsonPath := filepath.Join(dir, export.JSONFileName)
	excelPath := filepath.Join(dir, export.ExcelFileName)
	if err := export.WriteJSON(jsonPath, doc); err != nil {
		t.Fatal(err)
	}
	if err := export.WriteExcel(excelPath, rows); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var roundTrip models.ChatExport
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatal(err)
	}
	if len(roundTrip.Messages) != 3 {
		t.Errorf("json messages = %d", len(roundTrip.Messages))
	}
	if roundTrip.Messages[2].Attachments[0].Filename != "IMG-20250908-WA0001.jpg" {
		t.Errorf("json attachment = %+v", roundTrip.Messages[2].Attachments[0])
	}

	wb, err := excelize.OpenFile(excelPath)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	sheetRows, err := wb.GetRows(wb.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(sheetRows) != 4 {
		t.Fatalf("sheet rows = %d, want header + 3", len(sheetRows))
	}
	header := sheetRows[0]
	if header[0] != "date" || header[len(header)-1] != "collection_details_status" {
		t.Errorf("header = %v", header)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	run := &models.Run{
		ID:           "run-1",
		ArchiveName:  filepath.Base(zipPath),
		MessageCount: len(doc.Messages),
		JSONPath:     jsonPath,
		ExcelPath:    excelPath,
	}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.MessageCount != 3 || got.JSONPath != jsonPath {
		t.Errorf("stored run = %+v", got)
	}
}
