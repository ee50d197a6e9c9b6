// Package models defines core data structures for messages, attachments, and parse runs.
package models

// SystemSender is the sender recorded for lines the chat service generated
// itself (group notices, encryption banners) rather than a participant.
const SystemSender = "System"

// Attachment is a media file referenced from a message body. OCRText is empty
// when the file is not an image type, is missing from the archive, or text
// recovery is unavailable or failed.
type Attachment struct {
	Filename string `json:"filename"`
	OCRText  string `json:"ocr_text"`
}

// Message is one reconstructed unit of conversation. Date is ISO "2006-01-02",
// Time is 24-hour "15:04". Text may span multiple lines.
type Message struct {
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Sender      string       `json:"sender"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
}

// ChatExport is the nested structured document produced by one parse run.
type ChatExport struct {
	Messages []Message `json:"messages"`
}
