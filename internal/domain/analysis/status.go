package analysis

// Status is the lifecycle state of an Analysis.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScraping  Status = "scraping"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether from -> to is allowed. Forward moves are
// pending -> scraping -> analyzing -> completed, and any non-terminal state
// may move to failed.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusScraping
	case StatusScraping:
		return to == StatusAnalyzing
	case StatusAnalyzing:
		return to == StatusCompleted
	}
	return false
}

// ActiveStatuses are the states a worker owns.
var ActiveStatuses = []Status{StatusScraping, StatusAnalyzing}

// UnfinishedStatuses are swept when a record stops moving: a pending id
// can be lost with its queue message, an active run with its worker.
var UnfinishedStatuses = []Status{StatusPending, StatusScraping, StatusAnalyzing}
