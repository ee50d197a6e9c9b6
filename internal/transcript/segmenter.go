// Package transcript parses exported chat logs into discrete messages.
package transcript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/hyperjump/kaiwa/internal/models"
)

// timeToken matches the 12-hour clock token. Newer exports put U+202F (narrow
// no-break space) before the meridiem marker; Go's \s class does not cover
// unicode spaces, so the space class is spelled out.
const timeToken = `\d{1,2}:\d{2}[ \x{00a0}\x{202f}\x{2009}]*[APap][Mm]`

// Two line grammars compete: the authored form carries a colon-delimited
// sender, the system form does not. The authored grammar is tried first
// because the system grammar is a strict relaxation of it and would otherwise
// swallow authored lines. First colon after the timestamp ends the sender.
var (
	authoredLine = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2}),\s+(` + timeToken + `)\s+-\s+([^:]+?):\s*(.*)$`)
	systemLine   = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2}),\s+(` + timeToken + `)\s+-\s+(.*)$`)
)

// Segmenter reconstructs discrete messages from a raw export line stream.
// A message stays open, collecting continuation lines, until the next line
// that matches a grammar or the end of input seals it.
type Segmenter struct{}

// NewSegmenter returns a new Segmenter.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Segment consumes r line by line and returns messages in input order.
// Lines matching neither grammar fold into the open message as continuation
// text; with no message open they are dropped, since they cannot be
// attributed. A timestamp that matches a grammar but parses in neither date
// order aborts with a MalformedTimestampError carrying the line number.
func (s *Segmenter) Segment(r io.Reader) ([]models.Message, error) {
	var (
		messages []models.Message
		current  *models.Message
		lineNo   int
	)
	seal := func() {
		if current != nil {
			current.Text = strings.TrimSpace(current.Text)
			messages = append(messages, *current)
			current = nil
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := sanitizeLine(sc.Text())

		if m := authoredLine.FindStringSubmatch(line); m != nil {
			msg, err := openMessage(m[1], m[2], strings.TrimSpace(m[3]), m[4], lineNo)
			if err != nil {
				return nil, err
			}
			seal()
			current = msg
			continue
		}
		if m := systemLine.FindStringSubmatch(line); m != nil {
			msg, err := openMessage(m[1], m[2], models.SystemSender, m[3], lineNo)
			if err != nil {
				return nil, err
			}
			seal()
			current = msg
			continue
		}
		if current != nil {
			current.Text += "\n" + line
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	seal()
	return messages, nil
}

func openMessage(dateTok, timeTok, sender, text string, lineNo int) (*models.Message, error) {
	date, err := NormalizeDate(dateTok)
	if err != nil {
		return nil, withLine(err, lineNo)
	}
	clock, err := NormalizeTime(timeTok)
	if err != nil {
		return nil, withLine(err, lineNo)
	}
	return &models.Message{
		Date:        date,
		Time:        clock,
		Sender:      sender,
		Text:        strings.TrimSpace(text),
		Attachments: []models.Attachment{},
	}, nil
}

func withLine(err error, lineNo int) error {
	var mt *MalformedTimestampError
	if errors.As(err, &mt) {
		mt.Line = lineNo
	}
	return err
}

// sanitizeLine strips the trailing carriage return of CRLF transcripts and
// drops invalid UTF-8 bytes rather than failing the run.
func sanitizeLine(line string) string {
	line = strings.TrimSuffix(line, "\r")
	return strings.ToValidUTF8(line, "")
}
