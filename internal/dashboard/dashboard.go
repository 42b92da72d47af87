// Package dashboard computes read-time projections over a loaded bid
// document. Nothing here touches storage; the handlers load the bid and
// hand it over.
package dashboard

import (
	"math"
	"sort"

	"github.com/hyperengineering/bidtrack/internal/types"
)

// Placeholder strings for display rows with missing fields.
const (
	placeholderName    = "Unnamed Activity"
	placeholderDate    = "N/A"
	placeholderOwner   = "Unknown"
	placeholderRemarks = "No Remarks"
	placeholderStatus  = "N/A"

	unassignedOwner = "Unassigned"
)

// DeliverableStat summarizes completion for one deliverable.
type DeliverableStat struct {
	TotalActivities      int     `json:"totalActivities"`
	CompletedActivities  int     `json:"completedActivities"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// OwnerStat summarizes completion for one owner.
type OwnerStat struct {
	TotalActivities      int     `json:"totalActivities"`
	CompletedActivities  int     `json:"completedActivities"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// ActivityRow is a display-oriented activity with placeholder defaults.
type ActivityRow struct {
	Deliverable string `json:"deliverable"`
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	Status      string `json:"status"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Remarks     string `json:"remarks"`
}

// Summary is the full dashboard projection for one bid.
type Summary struct {
	BidID               string                     `json:"bidId"`
	TotalActivities     int                        `json:"totalActivities"`
	CompletedActivities int                        `json:"completedActivities"`
	DeliverableStats    map[string]DeliverableStat `json:"deliverableStats"`
	OwnerStats          map[string]OwnerStat       `json:"ownerStats"`
	StatusBreakdown     map[string]map[string]int  `json:"statusBreakdown"`
	Activities          []ActivityRow              `json:"activities"`
}

// Build computes the dashboard projection. Completion compares status to
// "Completed" case-sensitively; percentages are rounded to two decimals and
// a deliverable with zero activities reports exactly 0.
func Build(b types.Bid) Summary {
	s := Summary{
		BidID:            b.BidID,
		DeliverableStats: make(map[string]DeliverableStat),
		OwnerStats:       make(map[string]OwnerStat),
		StatusBreakdown:  make(map[string]map[string]int),
		Activities:       []ActivityRow{},
	}

	for _, d := range deliverableOrder(b) {
		bucket := b.Activities[d]

		stat := DeliverableStat{TotalActivities: len(bucket)}
		for _, a := range bucket {
			s.TotalActivities++

			owner := a.Owner
			if owner == "" {
				owner = unassignedOwner
			}
			os := s.OwnerStats[owner]
			os.TotalActivities++

			if a.Status == string(types.StatusCompleted) {
				s.CompletedActivities++
				stat.CompletedActivities++
				os.CompletedActivities++
			}
			s.OwnerStats[owner] = os

			if s.StatusBreakdown[owner] == nil {
				s.StatusBreakdown[owner] = make(map[string]int)
			}
			s.StatusBreakdown[owner][a.Status]++

			s.Activities = append(s.Activities, displayRow(d, a))
		}

		if stat.TotalActivities > 0 {
			stat.CompletionPercentage = round2(float64(stat.CompletedActivities) / float64(stat.TotalActivities) * 100)
		}
		s.DeliverableStats[d] = stat
	}

	for owner, os := range s.OwnerStats {
		denom := os.TotalActivities
		if denom == 0 {
			denom = 1
		}
		os.CompletionPercentage = round2(float64(os.CompletedActivities) / float64(denom) * 100)
		s.OwnerStats[owner] = os
	}
	return s
}

// deliverableOrder yields the declared deliverables in order, followed by
// any stray activity buckets not present in the declaration, sorted.
func deliverableOrder(b types.Bid) []string {
	order := append([]string{}, b.Deliverables...)
	seen := make(map[string]struct{}, len(order))
	for _, d := range order {
		seen[d] = struct{}{}
	}

	var stray []string
	for d := range b.Activities {
		if _, ok := seen[d]; !ok {
			stray = append(stray, d)
		}
	}
	sort.Strings(stray)
	return append(order, stray...)
}

func displayRow(deliverable string, a types.Activity) ActivityRow {
	return ActivityRow{
		Deliverable: deliverable,
		Name:        orDefault(a.Name, placeholderName),
		Owner:       orDefault(a.Owner, placeholderOwner),
		Status:      orDefault(a.Status, placeholderStatus),
		StartDate:   orDefault(a.StartDate, placeholderDate),
		EndDate:     orDefault(a.EndDate, placeholderDate),
		Remarks:     orDefault(a.Remarks, placeholderRemarks),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
