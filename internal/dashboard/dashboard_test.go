package dashboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperengineering/bidtrack/internal/types"
)

func TestBuildSummary(t *testing.T) {
	b := types.Bid{
		BidID:        "Acme_Cloud_version2",
		Deliverables: []string{"Solution PPT", "Commercials", "Empty Deck"},
		Activities: map[string][]types.Activity{
			"Solution PPT": {
				{Name: "draft deck", Owner: "bob", Status: "Completed", StartDate: "2025-01-01", EndDate: "2025-01-05", Remarks: "done"},
				{Name: "review deck", Owner: "alice", Status: "In Progress", StartDate: "2025-01-06"},
				{Name: "polish", Owner: "bob", Status: "completed"},
			},
			"Commercials": {
				{Name: "pricing", Owner: "bob", Status: "Completed"},
			},
		},
	}

	s := Build(b)

	if s.BidID != "Acme_Cloud_version2" {
		t.Errorf("bidId = %q", s.BidID)
	}
	if s.TotalActivities != 4 || s.CompletedActivities != 2 {
		t.Errorf("totals = %d/%d, want 4/2", s.TotalActivities, s.CompletedActivities)
	}

	wantDeliverables := map[string]DeliverableStat{
		// Lowercase "completed" does not count here.
		"Solution PPT": {TotalActivities: 3, CompletedActivities: 1, CompletionPercentage: 33.33},
		"Commercials":  {TotalActivities: 1, CompletedActivities: 1, CompletionPercentage: 100},
		"Empty Deck":   {TotalActivities: 0, CompletedActivities: 0, CompletionPercentage: 0},
	}
	if diff := cmp.Diff(wantDeliverables, s.DeliverableStats); diff != "" {
		t.Errorf("deliverable stats mismatch (-want +got):\n%s", diff)
	}

	wantOwners := map[string]OwnerStat{
		"bob":   {TotalActivities: 3, CompletedActivities: 2, CompletionPercentage: 66.67},
		"alice": {TotalActivities: 1, CompletedActivities: 0, CompletionPercentage: 0},
	}
	if diff := cmp.Diff(wantOwners, s.OwnerStats); diff != "" {
		t.Errorf("owner stats mismatch (-want +got):\n%s", diff)
	}

	if s.StatusBreakdown["bob"]["Completed"] != 2 || s.StatusBreakdown["bob"]["completed"] != 1 {
		t.Errorf("status breakdown for bob = %v", s.StatusBreakdown["bob"])
	}

	if len(s.Activities) != 4 {
		t.Fatalf("activity rows = %d, want 4", len(s.Activities))
	}
	// Rows follow declared deliverable order.
	if s.Activities[0].Deliverable != "Solution PPT" || s.Activities[3].Deliverable != "Commercials" {
		t.Errorf("row order = %v, %v", s.Activities[0].Deliverable, s.Activities[3].Deliverable)
	}
}

func TestBuildPlaceholders(t *testing.T) {
	b := types.Bid{
		Deliverables: []string{"D"},
		Activities: map[string][]types.Activity{
			"D": {{}},
		},
	}

	s := Build(b)

	want := ActivityRow{
		Deliverable: "D",
		Name:        "Unnamed Activity",
		Owner:       "Unknown",
		Status:      "N/A",
		StartDate:   "N/A",
		EndDate:     "N/A",
		Remarks:     "No Remarks",
	}
	if diff := cmp.Diff(want, s.Activities[0]); diff != "" {
		t.Errorf("placeholder row mismatch (-want +got):\n%s", diff)
	}

	// Stats attribute the ownerless activity to Unassigned; the display
	// row shows Unknown.
	if _, ok := s.OwnerStats["Unassigned"]; !ok {
		t.Errorf("owner stats = %v, want Unassigned entry", s.OwnerStats)
	}
}

func TestBuildStrayBucketsAppendSorted(t *testing.T) {
	b := types.Bid{
		Deliverables: []string{"Declared"},
		Activities: map[string][]types.Activity{
			"Declared": {{Name: "a"}},
			"Zeta":     {{Name: "z"}},
			"Alpha":    {{Name: "b"}},
		},
	}

	s := Build(b)

	var order []string
	for _, row := range s.Activities {
		order = append(order, row.Deliverable)
	}
	want := []string{"Declared", "Alpha", "Zeta"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("row order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEmptyBid(t *testing.T) {
	s := Build(types.Bid{})

	if s.TotalActivities != 0 || len(s.Activities) != 0 {
		t.Errorf("empty bid summary = %+v", s)
	}
	if s.DeliverableStats == nil || s.OwnerStats == nil || s.StatusBreakdown == nil {
		t.Errorf("maps not initialized: %+v", s)
	}
}
