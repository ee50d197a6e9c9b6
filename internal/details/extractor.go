// Package details extracts loan/collection bookkeeping fields from message text.
package details

import (
	"regexp"
	"strings"
)

// Canonical detail fields. Free-text key spellings in message bodies are
// normalized and classified onto this closed vocabulary.
const (
	FieldLoanNum       = "loan_num"
	FieldName          = "name"
	FieldPhoneNumber   = "phone_number"
	FieldLoanAmount    = "loan_amount"
	FieldDisbursalDate = "disbursal_date"
	FieldRepaymentAmt  = "repayment_amt"
	FieldRepaymentDate = "repayment_date"
	FieldReceiveAmt    = "receive_amt"
	FieldReceiveDate   = "receive_date"
	FieldStatus        = "status"
	FieldReloan        = "reloan"
)

// Fields lists every canonical detail field in output column order.
var Fields = []string{
	FieldLoanNum,
	FieldName,
	FieldPhoneNumber,
	FieldLoanAmount,
	FieldDisbursalDate,
	FieldRepaymentAmt,
	FieldRepaymentDate,
	FieldReceiveAmt,
	FieldReceiveDate,
	FieldStatus,
	FieldReloan,
}

// rule classifies a normalized key that contains every listed substring.
// Rules deliberately overlap and are order-sensitive: the first match wins,
// so "loan number" resolves before the bare "name" rule can claim it.
type rule struct {
	contains []string
	field    string
}

var rules = []rule{
	{[]string{"loan", "num"}, FieldLoanNum},
	{[]string{"loan", "no"}, FieldLoanNum},
	{[]string{"name"}, FieldName},
	{[]string{"phone"}, FieldPhoneNumber},
	{[]string{"mobile"}, FieldPhoneNumber},
	{[]string{"loan", "amount"}, FieldLoanAmount},
	{[]string{"disbursal", "date"}, FieldDisbursalDate},
	{[]string{"repayment", "amt"}, FieldRepaymentAmt},
	{[]string{"repayment", "amount"}, FieldRepaymentAmt},
	{[]string{"repayment", "date"}, FieldRepaymentDate},
	{[]string{"receive", "amt"}, FieldReceiveAmt},
	{[]string{"receive", "amount"}, FieldReceiveAmt},
	{[]string{"receive", "date"}, FieldReceiveDate},
	{[]string{"status"}, FieldStatus},
	{[]string{"reloan"}, FieldReloan},
}

var nonAlpha = regexp.MustCompile(`[^a-z]+`)

// Extract scans text line by line for "key: value" fragments and maps
// recognized keys onto the canonical vocabulary. The line splits on its first
// colon. Values are trimmed and lose one leading hyphen (exports often render
// fields as "Key: -Value"). Keys are normalized by lower-casing and dropping
// everything outside a-z, so "Loan No.", "loan no" and "LoanNo:" collapse to
// the same key. Unrecognized lines are discarded entirely; a field appearing
// on several lines keeps the last value seen.
func Extract(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		keyPart, valuePart, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key := strings.TrimSpace(keyPart)
		if key == "" {
			continue
		}
		value := strings.TrimSpace(valuePart)
		value = strings.TrimSpace(strings.TrimPrefix(value, "-"))

		norm := nonAlpha.ReplaceAllString(strings.ToLower(key), "")
		if field, ok := classify(norm); ok {
			out[field] = value
		}
	}
	return out
}

func classify(normKey string) (string, bool) {
	for _, r := range rules {
		if containsAll(normKey, r.contains) {
			return r.field, true
		}
	}
	return "", false
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
