package validation

import (
	"testing"

	"github.com/hyperengineering/bidtrack/internal/types"
)

func validBid() types.Bid {
	return types.Bid{
		ClientName:      "Acme",
		OpportunityName: "Cloud Migration",
		Timeline: types.Timeline{
			RFPIssueDate:           "2025-01-10",
			QASubmissionDate:       "2025-01-20",
			ProposalSubmissionDate: "2025-02-01",
		},
		Deliverables: []string{"Solution PPT"},
	}
}

func TestBidValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*types.Bid)
		wantField   string
		wantMessage string
	}{
		{
			name:   "valid payload passes",
			mutate: func(b *types.Bid) {},
		},
		{
			name:        "missing client name",
			mutate:      func(b *types.Bid) { b.ClientName = "" },
			wantField:   "clientName",
			wantMessage: "Field clientName is missing or empty.",
		},
		{
			name:        "whitespace opportunity name",
			mutate:      func(b *types.Bid) { b.OpportunityName = "   " },
			wantField:   "opportunityName",
			wantMessage: "Field opportunityName is missing or empty.",
		},
		{
			name:        "empty timeline",
			mutate:      func(b *types.Bid) { b.Timeline = types.Timeline{} },
			wantField:   "timeline",
			wantMessage: "Field timeline is missing or empty.",
		},
		{
			name:        "missing qa submission date",
			mutate:      func(b *types.Bid) { b.Timeline.QASubmissionDate = "" },
			wantField:   "qaSubmissionDate",
			wantMessage: "Timeline field qaSubmissionDate is missing or empty.",
		},
		{
			name:        "missing proposal submission date",
			mutate:      func(b *types.Bid) { b.Timeline.ProposalSubmissionDate = "" },
			wantField:   "proposalSubmissionDate",
			wantMessage: "Timeline field proposalSubmissionDate is missing or empty.",
		},
		{
			name:        "empty deliverables",
			mutate:      func(b *types.Bid) { b.Deliverables = nil },
			wantField:   "deliverables",
			wantMessage: "At least one deliverable must be selected.",
		},
		{
			name:        "all-blank deliverables",
			mutate:      func(b *types.Bid) { b.Deliverables = []string{"", "  "} },
			wantField:   "deliverables",
			wantMessage: "At least one deliverable must be selected.",
		},
		{
			name: "client name checked before timeline",
			mutate: func(b *types.Bid) {
				b.ClientName = ""
				b.Timeline = types.Timeline{}
			},
			wantField:   "clientName",
			wantMessage: "Field clientName is missing or empty.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBid()
			tt.mutate(&b)

			err := Bid(b)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Bid() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Bid() = nil, want error on %s", tt.wantField)
			}
			if err.Field != tt.wantField {
				t.Errorf("field = %q, want %q", err.Field, tt.wantField)
			}
			if err.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", err.Message, tt.wantMessage)
			}
		})
	}
}

func TestDate(t *testing.T) {
	if err := Date("startDate", "2025-01-10"); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
	if err := Date("startDate", "10/01/2025"); err == nil {
		t.Errorf("malformed date accepted")
	}
	if err := Date("startDate", "2025-13-40"); err == nil {
		t.Errorf("impossible date accepted")
	}
}

func TestEnum(t *testing.T) {
	allowed := []string{"Pending", "In Progress", "Completed"}
	if err := Enum("status", "Pending", allowed); err != nil {
		t.Errorf("allowed value rejected: %v", err)
	}
	if err := Enum("status", "Done", allowed); err == nil {
		t.Errorf("disallowed value accepted")
	}
}
