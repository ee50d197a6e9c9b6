package models

// Row is the flat tabular projection of one message. Details maps canonical
// detail fields to values; fields the message did not populate are absent
// from the map, not empty strings, so the table writer can build a header
// from the union of populated fields.
type Row struct {
	Date        string
	Time        string
	Sender      string
	Text        string
	Attachments string // comma-joined attachment filenames
	OCRText     string // " || "-joined non-empty recovered texts
	Details     map[string]string
}
