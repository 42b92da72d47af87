package types

// ActivityStatus enumerates the lifecycle states of an activity.
type ActivityStatus string

const (
	StatusPending    ActivityStatus = "Pending"
	StatusInProgress ActivityStatus = "In Progress"
	StatusCompleted  ActivityStatus = "Completed"
)

// ActivityStatuses lists all valid activity statuses in display order.
var ActivityStatuses = []ActivityStatus{StatusPending, StatusInProgress, StatusCompleted}

// ValidStatus reports whether s is one of the known activity statuses.
func ValidStatus(s string) bool {
	for _, status := range ActivityStatuses {
		if string(status) == s {
			return true
		}
	}
	return false
}

// Timeline holds the three milestone dates of a bid.
type Timeline struct {
	RFPIssueDate           string `json:"rfpIssueDate"`
	QASubmissionDate       string `json:"qaSubmissionDate"`
	ProposalSubmissionDate string `json:"proposalSubmissionDate"`
}

// Activity is a task within a deliverable.
type Activity struct {
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Remarks   string `json:"remarks"`
}

// TeamMember is one entry of a bid's team roster.
type TeamMember struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Bid is a versioned record of a client engagement. Identity is
// "<clientName>_<opportunityName>_version<N>", carried in BidID.
type Bid struct {
	BidID           string                `json:"bidId,omitempty"`
	ClientName      string                `json:"clientName"`
	OpportunityName string                `json:"opportunityName"`
	Timeline        Timeline              `json:"timeline"`
	Deliverables    []string              `json:"deliverables"`
	Activities      map[string][]Activity `json:"activities,omitempty"`
	Team            []TeamMember          `json:"team,omitempty"`
}

// Prefix returns the version-less identity of the bid.
func (b Bid) Prefix() string {
	return b.ClientName + "_" + b.OpportunityName
}

// Action is a tracked follow-up item in an action tracker.
type Action struct {
	ActionID    string `json:"actionId"`
	Name        string `json:"name"`
	Deliverable string `json:"deliverable"`
	Owner       string `json:"owner"`
	EndDate     string `json:"endDate"`
	Status      string `json:"status"`
	Remarks     string `json:"remarks"`
}

// HistoryEntry records one change made to an action.
type HistoryEntry struct {
	Timestamp     string   `json:"timestamp"`
	ChangedBy     string   `json:"changedBy,omitempty"`
	Message       string   `json:"message,omitempty"`
	ChangedFields []string `json:"changedFields,omitempty"`
}

// ActionTracker is the derived, independently versioned document that
// aggregates follow-up actions for one client+opportunity. The aggregate
// counters are recomputed from the buckets after every mutation, never
// adjusted incrementally.
type ActionTracker struct {
	TotalActions         int                       `json:"totalActions"`
	OpenActions          int                       `json:"openActions"`
	ClosedActions        int                       `json:"closedActions"`
	ActionsByDeliverable map[string][]Action       `json:"actionsByDeliverable"`
	Owners               []string                  `json:"owners"`
	Deliverables         []string                  `json:"deliverables"`
	ActionHistory        map[string][]HistoryEntry `json:"actionHistory"`
}

// ActionUpdate carries a partial update for one action. Nil fields are left
// untouched. ChangedBy, ChangedDate and ChangedFields are history metadata
// and are never applied to the action itself.
type ActionUpdate struct {
	Name        *string `json:"name,omitempty"`
	Deliverable *string `json:"deliverable,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	Status      *string `json:"status,omitempty"`
	Remarks     *string `json:"remarks,omitempty"`

	ChangedBy     string   `json:"changedBy,omitempty"`
	ChangedDate   string   `json:"changedDate,omitempty"`
	ChangedFields []string `json:"changedFields,omitempty"`
}

// FileEntry describes one stored bid document in a listing.
type FileEntry struct {
	ID              string  `json:"id"`
	ClientName      string  `json:"clientName"`
	OpportunityName string  `json:"opportunityName"`
	LastModified    float64 `json:"lastModified"`
	Archived        bool    `json:"archived"`
}

// CreateBidResponse is returned by bid creation endpoints.
type CreateBidResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	BidID   string `json:"bidId,omitempty"`
}

// MessageResponse is the generic success envelope.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DataResponse wraps a fetched document.
type DataResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ListFilesResponse is returned by the file listing endpoint.
type ListFilesResponse struct {
	Files []FileEntry `json:"files"`
}

// ChatRequest is one turn of the conversational intake flow. SessionID is
// optional on the first turn; the server mints one and echoes it back.
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is the server's reply for one conversational turn.
type ChatResponse struct {
	SessionID   string   `json:"sessionId"`
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
