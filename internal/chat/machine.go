// Package chat implements the scripted conversational intake flow: a
// strictly linear state machine that fills a bid draft one free-text answer
// at a time. Each session owns its draft; sessions are kept in a keyed
// table with idle expiry (see Manager).
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hyperengineering/bidtrack/internal/types"
	"github.com/hyperengineering/bidtrack/internal/validation"
)

type state string

const (
	stateStart                  state = "start"
	stateClientName             state = "client_name"
	stateOpportunityName        state = "opportunity_name"
	stateRFPIssueDate           state = "rfp_issue_date"
	stateQASubmissionDate       state = "qa_submission_date"
	stateProposalSubmissionDate state = "proposal_submission_date"
	stateDeliverables           state = "deliverables"
	stateTeam                   state = "team"
	stateAssignOwner            state = "assign_owners"
	stateAssignStartDate        state = "assign_start_date"
	stateAssignEndDate          state = "assign_end_date"
	stateAssignStatus           state = "assign_status"
	stateReview                 state = "review"
)

// activityRef addresses one (deliverable, activity) pair of the draft.
type activityRef struct {
	deliverable string
	index       int
}

// Session is one caller's conversation. All fields are guarded by mu; the
// manager hands out *Session but every interaction goes through Handle.
type Session struct {
	ID string

	mu         sync.Mutex
	state      state
	draft      types.Bid
	pairs      []activityRef
	pairIdx    int
	lastActive time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		state:      stateStart,
		lastActive: now,
	}
}

// step advances the machine by one input. Invalid input re-asks the current
// question without changing state.
func (s *Session) step(input string, fin Finalizer) (string, []string) {
	input = strings.TrimSpace(input)

	switch s.state {
	case stateStart:
		s.draft = types.Bid{}
		s.pairs = nil
		s.pairIdx = 0
		s.state = stateClientName
		return "Let's set up a new bid. What is the client's name?", nil

	case stateClientName:
		if input == "" {
			return "Please provide a client name.", nil
		}
		s.draft.ClientName = input
		s.state = stateOpportunityName
		return "What is the opportunity name?", nil

	case stateOpportunityName:
		if input == "" {
			return "Please provide an opportunity name.", nil
		}
		s.draft.OpportunityName = input
		s.state = stateRFPIssueDate
		return "When was the RFP issued? Please use YYYY-MM-DD.", nil

	case stateRFPIssueDate:
		if !validDate(input) {
			return "That doesn't look like a valid date. When was the RFP issued? Please use YYYY-MM-DD.", nil
		}
		s.draft.Timeline.RFPIssueDate = input
		s.state = stateQASubmissionDate
		return "When is the Q&A submission due? Please use YYYY-MM-DD.", nil

	case stateQASubmissionDate:
		if !validDate(input) {
			return "That doesn't look like a valid date. When is the Q&A submission due? Please use YYYY-MM-DD.", nil
		}
		s.draft.Timeline.QASubmissionDate = input
		s.state = stateProposalSubmissionDate
		return "When is the proposal submission due? Please use YYYY-MM-DD.", nil

	case stateProposalSubmissionDate:
		if !validDate(input) {
			return "That doesn't look like a valid date. When is the proposal submission due? Please use YYYY-MM-DD.", nil
		}
		if !dateAfter(input, s.draft.Timeline.RFPIssueDate) {
			return fmt.Sprintf("The proposal submission date must be after the RFP issue date (%s). When is the proposal submission due?",
				s.draft.Timeline.RFPIssueDate), nil
		}
		s.draft.Timeline.ProposalSubmissionDate = input
		s.state = stateDeliverables
		return "Which deliverables are in scope? Separate deliverables with semicolons and, if you like, " +
			"list activities after a colon, e.g. \"Solution PPT: Draft deck, Review; Pricing\".", nil

	case stateDeliverables:
		deliverables, activities := parseDeliverables(input)
		if len(deliverables) == 0 {
			return "Please name at least one deliverable.", nil
		}
		s.draft.Deliverables = deliverables
		s.draft.Activities = activities
		s.state = stateTeam
		return "Who is on the team? List members separated by commas, optionally with a role in parentheses, " +
			"e.g. \"Alice (Bid Manager), Bob\".", nil

	case stateTeam:
		team := parseTeam(input)
		if len(team) == 0 {
			return "Please name at least one team member.", nil
		}
		s.draft.Team = team
		s.pairs = buildPairs(s.draft)
		s.pairIdx = 0
		if len(s.pairs) == 0 {
			s.state = stateReview
			return s.summary(), reviewSuggestions()
		}
		s.state = stateAssignOwner
		return s.askOwner(), s.teamNames()

	case stateAssignOwner:
		if !s.onTeam(input) {
			return fmt.Sprintf("%q is not on the team. Choose one of: %s.",
				input, strings.Join(s.teamNames(), ", ")), s.teamNames()
		}
		s.setActivity(func(a *types.Activity) { a.Owner = input })
		s.state = stateAssignStartDate
		return fmt.Sprintf("When does %q start? Please use YYYY-MM-DD.", s.currentActivity().Name), nil

	case stateAssignStartDate:
		if !validDate(input) {
			return fmt.Sprintf("That doesn't look like a valid date. When does %q start? Please use YYYY-MM-DD.",
				s.currentActivity().Name), nil
		}
		s.setActivity(func(a *types.Activity) { a.StartDate = input })
		s.state = stateAssignEndDate
		return fmt.Sprintf("When does %q end? Please use YYYY-MM-DD.", s.currentActivity().Name), nil

	case stateAssignEndDate:
		if !validDate(input) {
			return fmt.Sprintf("That doesn't look like a valid date. When does %q end? Please use YYYY-MM-DD.",
				s.currentActivity().Name), nil
		}
		s.setActivity(func(a *types.Activity) { a.EndDate = input })
		s.state = stateAssignStatus
		return fmt.Sprintf("What is the status of %q?", s.currentActivity().Name), statusSuggestions()

	case stateAssignStatus:
		if !types.ValidStatus(input) {
			return fmt.Sprintf("%q is not a valid status. Choose one of: %s.",
				input, strings.Join(statusSuggestions(), ", ")), statusSuggestions()
		}
		s.setActivity(func(a *types.Activity) { a.Status = input })
		s.pairIdx++
		if s.pairIdx < len(s.pairs) {
			s.state = stateAssignOwner
			return s.askOwner(), s.teamNames()
		}
		s.state = stateReview
		return s.summary(), reviewSuggestions()

	case stateReview:
		switch input {
		case "finalize":
			bidID, err := fin.Finalize(s.draft)
			if err != nil {
				return fmt.Sprintf("The bid could not be saved: %s", err.Error()), reviewSuggestions()
			}
			s.state = stateStart
			return fmt.Sprintf("Bid %s created successfully. Send any message to start another bid.", bidID), nil
		case "edit":
			return "Editing from review is not implemented yet.", reviewSuggestions()
		default:
			return "Type \"finalize\" to save the bid or \"edit\" to make changes.", reviewSuggestions()
		}
	}

	// Unknown state; restart the script rather than wedging the session.
	s.state = stateStart
	return "Something went wrong with this conversation. Send any message to start over.", nil
}

func (s *Session) askOwner() string {
	ref := s.pairs[s.pairIdx]
	return fmt.Sprintf("Who owns %q under %q? Team: %s.",
		s.currentActivity().Name, ref.deliverable, strings.Join(s.teamNames(), ", "))
}

func (s *Session) currentActivity() types.Activity {
	ref := s.pairs[s.pairIdx]
	return s.draft.Activities[ref.deliverable][ref.index]
}

func (s *Session) setActivity(apply func(*types.Activity)) {
	ref := s.pairs[s.pairIdx]
	bucket := s.draft.Activities[ref.deliverable]
	apply(&bucket[ref.index])
	s.draft.Activities[ref.deliverable] = bucket
}

func (s *Session) teamNames() []string {
	names := make([]string, 0, len(s.draft.Team))
	for _, m := range s.draft.Team {
		names = append(names, m.Name)
	}
	return names
}

func (s *Session) onTeam(name string) bool {
	for _, m := range s.draft.Team {
		if m.Name == name {
			return true
		}
	}
	return false
}

func (s *Session) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the bid so far:\n")
	fmt.Fprintf(&b, "Client: %s\n", s.draft.ClientName)
	fmt.Fprintf(&b, "Opportunity: %s\n", s.draft.OpportunityName)
	fmt.Fprintf(&b, "RFP issued: %s, Q&A due: %s, Proposal due: %s\n",
		s.draft.Timeline.RFPIssueDate, s.draft.Timeline.QASubmissionDate, s.draft.Timeline.ProposalSubmissionDate)
	fmt.Fprintf(&b, "Deliverables: %s\n", strings.Join(s.draft.Deliverables, ", "))
	fmt.Fprintf(&b, "Team: %s\n", strings.Join(s.teamNames(), ", "))
	for _, d := range s.draft.Deliverables {
		for _, a := range s.draft.Activities[d] {
			fmt.Fprintf(&b, "- %s / %s: %s, %s to %s, %s\n",
				d, a.Name, a.Owner, a.StartDate, a.EndDate, a.Status)
		}
	}
	b.WriteString("Type \"finalize\" to save the bid or \"edit\" to make changes.")
	return b.String()
}

// buildPairs lists every (deliverable, activity) pair in declaration order.
func buildPairs(b types.Bid) []activityRef {
	var pairs []activityRef
	for _, d := range b.Deliverables {
		for i := range b.Activities[d] {
			pairs = append(pairs, activityRef{deliverable: d, index: i})
		}
	}
	return pairs
}

// parseDeliverables reads the deliverable declaration grammar: declarations
// separated by semicolons, each "Name" or "Name: activity, activity". When
// the input has no semicolons and no colon, commas separate plain
// deliverable names.
func parseDeliverables(input string) ([]string, map[string][]types.Activity) {
	var decls []string
	switch {
	case strings.Contains(input, ";"):
		decls = strings.Split(input, ";")
	case !strings.Contains(input, ":"):
		decls = strings.Split(input, ",")
	default:
		decls = []string{input}
	}

	var deliverables []string
	activities := make(map[string][]types.Activity)
	for _, decl := range decls {
		name, rest, hasActivities := strings.Cut(decl, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		deliverables = append(deliverables, name)
		if !hasActivities {
			continue
		}
		for _, actName := range strings.Split(rest, ",") {
			actName = strings.TrimSpace(actName)
			if actName == "" {
				continue
			}
			activities[name] = append(activities[name], types.Activity{
				Name:   actName,
				Status: string(types.StatusPending),
			})
		}
	}
	if len(activities) == 0 {
		activities = nil
	}
	return deliverables, activities
}

// parseTeam reads comma-separated members, each "Name" or "Name (Role)".
func parseTeam(input string) []types.TeamMember {
	var team []types.TeamMember
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, role := part, "Member"
		if open := strings.Index(part, "("); open > 0 && strings.HasSuffix(part, ")") {
			name = strings.TrimSpace(part[:open])
			role = strings.TrimSpace(part[open+1 : len(part)-1])
		}
		if name == "" {
			continue
		}
		team = append(team, types.TeamMember{Name: name, Role: role})
	}
	return team
}

func validDate(v string) bool {
	_, err := time.Parse(validation.DateLayout, v)
	return err == nil
}

// dateAfter reports whether a is strictly after b. Both must already be
// valid dates.
func dateAfter(a, b string) bool {
	ta, err := time.Parse(validation.DateLayout, a)
	if err != nil {
		return false
	}
	tb, err := time.Parse(validation.DateLayout, b)
	if err != nil {
		return false
	}
	return ta.After(tb)
}

func statusSuggestions() []string {
	out := make([]string, 0, len(types.ActivityStatuses))
	for _, st := range types.ActivityStatuses {
		out = append(out, string(st))
	}
	return out
}

func reviewSuggestions() []string {
	return []string{"finalize", "edit"}
}
