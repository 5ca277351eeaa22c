package domain

// Verdict is the outcome of a password check. Only VerdictAccepted
// authenticates; the others are expected rejections, not errors.
type Verdict string

const (
	VerdictAccepted  Verdict = "accepted"
	VerdictRejected  Verdict = "rejected"
	VerdictLocked    Verdict = "locked"
	VerdictThrottled Verdict = "throttled"
)

// OK reports whether the password was accepted.
func (v Verdict) OK() bool {
	return v == VerdictAccepted
}
