package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/bidtrack/internal/types"
)

// FieldError represents a single field validation failure. It implements
// error so services can return it directly and the API boundary can map it
// to a 400 response carrying the message verbatim.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Message
}

// DateLayout is the wire format for all bid and activity dates.
const DateLayout = "2006-01-02"

// Required returns an error if the value is empty or whitespace-only.
func Required(field, value string) *FieldError {
	if strings.TrimSpace(value) == "" {
		return &FieldError{
			Field:   field,
			Message: fmt.Sprintf("Field %s is missing or empty.", field),
		}
	}
	return nil
}

// Date returns an error if the value is not a YYYY-MM-DD date.
func Date(field, value string) *FieldError {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return &FieldError{
			Field:   field,
			Message: fmt.Sprintf("Field %s must be a date in YYYY-MM-DD format.", field),
		}
	}
	return nil
}

// Enum returns an error if the value is not in the allowed list.
func Enum(field, value string, allowed []string) *FieldError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &FieldError{
		Field:   field,
		Message: fmt.Sprintf("Field %s must be one of: %s.", field, strings.Join(allowed, ", ")),
	}
}

// Bid checks the presence rules for an incoming bid payload and returns the
// first failing field: the three top-level required fields, then the three
// timeline sub-fields, then the deliverables list (which must contain at
// least one non-empty entry).
func Bid(b types.Bid) *FieldError {
	if err := Required("clientName", b.ClientName); err != nil {
		return err
	}
	if err := Required("opportunityName", b.OpportunityName); err != nil {
		return err
	}
	if b.Timeline == (types.Timeline{}) {
		return &FieldError{
			Field:   "timeline",
			Message: "Field timeline is missing or empty.",
		}
	}

	timelineFields := []struct {
		name  string
		value string
	}{
		{"rfpIssueDate", b.Timeline.RFPIssueDate},
		{"qaSubmissionDate", b.Timeline.QASubmissionDate},
		{"proposalSubmissionDate", b.Timeline.ProposalSubmissionDate},
	}
	for _, f := range timelineFields {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{
				Field:   f.name,
				Message: fmt.Sprintf("Timeline field %s is missing or empty.", f.name),
			}
		}
	}

	if !anyDeliverable(b.Deliverables) {
		return &FieldError{
			Field:   "deliverables",
			Message: "At least one deliverable must be selected.",
		}
	}
	return nil
}

func anyDeliverable(deliverables []string) bool {
	for _, d := range deliverables {
		if strings.TrimSpace(d) != "" {
			return true
		}
	}
	return false
}
