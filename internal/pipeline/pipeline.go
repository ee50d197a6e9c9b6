// Package pipeline sequences segmentation, attachment resolution, text
// recovery, and detail extraction over one chat export archive.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kaiwa/internal/archive"
	"github.com/hyperjump/kaiwa/internal/attach"
	"github.com/hyperjump/kaiwa/internal/details"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/ocr"
	"github.com/hyperjump/kaiwa/internal/transcript"
)

// Pipeline parses export archives into the nested document and its tabular
// projection. It holds no per-run state; Parse may be called repeatedly.
type Pipeline struct {
	recovery *ocr.Adapter
	logger   *zap.Logger
}

// NewPipeline creates a pipeline using recovery for image text. logger may
// be nil.
func NewPipeline(recovery *ocr.Adapter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recovery == nil {
		recovery = ocr.NewAdapter(nil)
	}
	return &Pipeline{recovery: recovery, logger: logger}
}

// Parse unpacks the export zip at zipPath into a scratch directory, locates
// the transcript, and produces the message sequence and one row per message.
// Segmentation runs to completion over the whole transcript before the
// per-message attachment and detail pass starts; both passes keep input
// order. Parsing-phase failures (unreadable archive, missing transcript,
// malformed timestamp) abort the run with no partial output.
func (p *Pipeline) Parse(ctx context.Context, zipPath string) (*models.ChatExport, []models.Row, error) {
	workDir, err := os.MkdirTemp("", "kaiwa-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	if err := archive.Extract(zipPath, workDir); err != nil {
		return nil, nil, err
	}
	transcriptPath, err := archive.FindTranscript(workDir)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Debug("transcript located", zap.String("path", filepath.Base(transcriptPath)))

	f, err := os.Open(transcriptPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open transcript: %w", err)
	}
	messages, err := transcript.NewSegmenter().Segment(f)
	_ = f.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("segment %s: %w", filepath.Base(transcriptPath), err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	resolver := attach.NewResolver(workDir, p.recovery)
	rows := make([]models.Row, 0, len(messages))
	attachmentCount := 0
	for i := range messages {
		msg := &messages[i]
		msg.Attachments = resolver.Resolve(msg.Text)
		attachmentCount += len(msg.Attachments)
		rows = append(rows, buildRow(msg))
	}

	p.logger.Info("export parsed",
		zap.String("archive", filepath.Base(zipPath)),
		zap.Int("messages", len(messages)),
		zap.Int("attachments", attachmentCount),
		zap.Bool("text_recovery", p.recovery.Available()),
	)
	return &models.ChatExport{Messages: messages}, rows, nil
}

// buildRow flattens one message into its tabular projection.
func buildRow(msg *models.Message) models.Row {
	names := make([]string, 0, len(msg.Attachments))
	var texts []string
	for _, att := range msg.Attachments {
		names = append(names, att.Filename)
		if att.OCRText != "" {
			texts = append(texts, att.OCRText)
		}
	}
	return models.Row{
		Date:        msg.Date,
		Time:        msg.Time,
		Sender:      msg.Sender,
		Text:        msg.Text,
		Attachments: strings.Join(names, ", "),
		OCRText:     strings.Join(texts, " || "),
		Details:     details.Extract(msg.Text),
	}
}
