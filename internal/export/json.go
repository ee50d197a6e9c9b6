// Package export writes the structured and tabular output documents.
package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/kaiwa/internal/models"
)

// JSONFileName is the default name of the structured output document.
const JSONFileName = "chat_data.json"

// WriteJSON writes the nested chat document to path as indented JSON.
func WriteJSON(path string, doc *models.ChatExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
