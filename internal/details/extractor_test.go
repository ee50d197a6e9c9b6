package details

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "basic fields",
			text: "Loan No: 123\nName: Asha",
			want: map[string]string{"loan_num": "123", "name": "Asha"},
		},
		{
			name: "url line discarded",
			text: "Loan No: 123\nName: Asha\nhttp://x.com/a:b",
			want: map[string]string{"loan_num": "123", "name": "Asha"},
		},
		{
			name: "last value wins",
			text: "Status: open\nStatus: closed",
			want: map[string]string{"status": "closed"},
		},
		{
			name: "key spelling variants collapse",
			text: "Loan No.: 1\nloan no: 2\nLoanNo: 3",
			want: map[string]string{"loan_num": "3"},
		},
		{
			name: "leading hyphen stripped from value",
			text: "Repayment Amt: - 5000",
			want: map[string]string{"repayment_amt": "5000"},
		},
		{
			name: "phone and mobile map to same field",
			text: "Mobile: 98765",
			want: map[string]string{"phone_number": "98765"},
		},
		{
			name: "amount and amt map to same field",
			text: "Receive Amount: 100\nRepayment amount: 200",
			want: map[string]string{"receive_amt": "100", "repayment_amt": "200"},
		},
		{
			name: "date fields",
			text: "Disbursal Date: 2025-01-02\nRepayment Date: 2025-02-02\nReceive date: 2025-03-02",
			want: map[string]string{
				"disbursal_date": "2025-01-02",
				"repayment_date": "2025-02-02",
				"receive_date":   "2025-03-02",
			},
		},
		{
			name: "loan amount and reloan",
			text: "Loan Amount: 9000\nReloan: yes",
			want: map[string]string{"loan_amount": "9000", "reloan": "yes"},
		},
		{
			name: "unrecognized keys discarded",
			text: "Remark: follow up\nNote: ignore",
			want: map[string]string{},
		},
		{
			name: "no colon lines ignored",
			text: "just some chatter\nanother line",
			want: map[string]string{},
		},
		{
			name: "empty key skipped",
			text: ": dangling value",
			want: map[string]string{},
		},
		{
			name: "recognized key keeps empty value",
			text: "Status:",
			want: map[string]string{"status": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtract_loanNumberBeforeName(t *testing.T) {
	// Rules overlap: "Loan Number Name" matches both loan+num and name.
	// Order decides; loan_num comes first.
	got := Extract("Loan Number Name: X")
	if got["loan_num"] != "X" {
		t.Errorf("Extract() = %v, want loan_num=X", got)
	}
	if _, ok := got["name"]; ok {
		t.Error("name should not be populated when loan_num rule matches first")
	}
}

func TestFields_coversAllRules(t *testing.T) {
	known := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		known[f] = true
	}
	for _, r := range rules {
		if !known[r.field] {
			t.Errorf("rule field %q missing from Fields", r.field)
		}
	}
}
