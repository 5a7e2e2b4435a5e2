// internal/lifecycle/status.go
package lifecycle

// Status is one stage of the client engagement lifecycle. Stages are totally
// ordered; reconciliation only ever moves a record forward.
type Status string

const (
	StatusLead     Status = "Lead - Info Requested"
	StatusAssessed Status = "Assessment Complete"
	StatusActive   Status = "Active Client"
	StatusComplete Status = "Service Complete"
	StatusFeedback Status = "Feedback Received"
)

// ordered lists every stage from earliest to latest.
var ordered = []Status{
	StatusLead,
	StatusAssessed,
	StatusActive,
	StatusComplete,
	StatusFeedback,
}

var ranks = func() map[Status]int {
	m := make(map[Status]int, len(ordered))
	for i, s := range ordered {
		m[s] = i + 1
	}
	return m
}()

// All returns the lifecycle stages in order.
func All() []Status {
	out := make([]Status, len(ordered))
	copy(out, ordered)
	return out
}

// IsValid reports whether s is a known lifecycle stage.
func (s Status) IsValid() bool {
	_, ok := ranks[s]
	return ok
}

// Rank returns the 1-based lifecycle position, or 0 for an unknown label.
func (s Status) Rank() int {
	return ranks[s]
}

// Before reports whether s is an earlier stage than other.
func (s Status) Before(other Status) bool {
	return s.Rank() < other.Rank()
}

// Later returns the higher-ordered of the two stages. An unknown label ranks
// below every real stage, so a corrupt stored status is repaired forward
// rather than propagated.
func Later(a, b Status) Status {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

// Parse maps a stored label to its Status and reports whether it is known.
func Parse(label string) (Status, bool) {
	s := Status(label)
	return s, s.IsValid()
}
