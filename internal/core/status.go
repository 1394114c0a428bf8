package core

import "strings"

// CanonicalStatus is the closed lifecycle state used for aggregation.
type CanonicalStatus string

const (
	StatusDelivered  CanonicalStatus = "delivered"
	StatusReturned   CanonicalStatus = "returned"
	StatusCanceled   CanonicalStatus = "canceled"
	StatusRejected   CanonicalStatus = "rejected"
	StatusInProgress CanonicalStatus = "in_progress"
	StatusPending    CanonicalStatus = "pending"
)

// AllStatuses lists every canonical status in classification priority order.
var AllStatuses = []CanonicalStatus{
	StatusCanceled, StatusRejected, StatusReturned,
	StatusDelivered, StatusPending, StatusInProgress,
}

// statusRules are checked in order against the folded status text.
// Tokens are stems so both Spanish and English exports match.
var statusRules = []struct {
	status CanonicalStatus
	tokens []string
}{
	{StatusCanceled, []string{"cancel", "anulad"}},
	{StatusRejected, []string{"rechaz", "reject"}},
	{StatusReturned, []string{"devol", "devuelt", "return", "retorn"}},
	{StatusDelivered, []string{"entregad", "deliver"}},
	{StatusPending, []string{"pendient", "pending"}},
}

// ClassifyStatus maps free status text to a canonical status.
// The first matching rule wins, so "cancelado por devolucion" is Canceled and
// "entregado - en devolucion" is Returned. Empty or unrecognized text is
// InProgress.
func ClassifyStatus(raw string) CanonicalStatus {
	folded := Fold(raw)
	if folded == "" {
		return StatusInProgress
	}
	for _, rule := range statusRules {
		for _, tok := range rule.tokens {
			if strings.Contains(folded, tok) {
				return rule.status
			}
		}
	}
	return StatusInProgress
}

// ParseCanonicalStatus accepts a canonical status name, case-insensitively.
func ParseCanonicalStatus(s string) (CanonicalStatus, bool) {
	s = strings.ReplaceAll(Fold(s), " ", "_")
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Terminal reports whether the status can no longer change.
func (s CanonicalStatus) Terminal() bool {
	return s != StatusInProgress && s != StatusPending
}
