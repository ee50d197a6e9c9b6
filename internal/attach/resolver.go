// Package attach resolves media filename references in message text against
// files extracted alongside the transcript.
package attach

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/ocr"
)

// filenameToken matches media filenames the way exports render them
// (IMG-20250909-WA0059.jpg, PTT-20250910-WA0001.opus). The extension set is
// closed; any other dotted token in the text is not an attachment reference.
var filenameToken = regexp.MustCompile(`(?i)([A-Za-z0-9_\-]+\.(?:jpg|jpeg|png|gif|bmp|webp|heic|opus|mp4))`)

// imageExts is the subset of extensions eligible for text recovery.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".heic": true,
}

// Resolver scans message text for attachment references and resolves them
// against a flat attachment directory. Exports keep media at the top level
// next to the transcript; subdirectories are not probed.
type Resolver struct {
	dir      string
	recovery *ocr.Adapter
}

// NewResolver returns a resolver over dir using recovery for image text.
func NewResolver(dir string, recovery *ocr.Adapter) *Resolver {
	return &Resolver{dir: dir, recovery: recovery}
}

// Resolve returns one Attachment per filename mention, in order of
// appearance; a file mentioned twice yields two entries. Text recovery runs
// only when the file exists on disk and its extension is an image type. A
// reference with no matching file is kept with empty recovered text rather
// than treated as an error.
func (r *Resolver) Resolve(text string) []models.Attachment {
	matches := filenameToken.FindAllString(text, -1)
	attachments := make([]models.Attachment, 0, len(matches))
	for _, name := range matches {
		att := models.Attachment{Filename: name}
		if imageExts[strings.ToLower(filepath.Ext(name))] {
			path := filepath.Join(r.dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				att.OCRText = r.recovery.RecoverText(path)
			}
		}
		attachments = append(attachments, att)
	}
	return attachments
}
