package checkout

import "strings"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusDeclined Status = "DECLINED"
	StatusVoided   Status = "VOIDED"
	StatusError    Status = "ERROR"
)

// Only PENDING has outgoing transitions; every other status is terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusApproved: true,
		StatusDeclined: true,
		StatusVoided:   true,
		StatusError:    true,
	},
	StatusApproved: {},
	StatusDeclined: {},
	StatusVoided:   {},
	StatusError:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return s != StatusPending && s.Known()
}

func (s Status) Known() bool {
	_, ok := validNext[s]
	return ok
}

// Lower is the caller-facing string form ("pending", "approved", ...).
func (s Status) Lower() string { return strings.ToLower(string(s)) }

// ParseStatus maps a gateway-reported status string onto the enum.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(s))
	return st, st.Known()
}
