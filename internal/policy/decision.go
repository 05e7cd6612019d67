// Package policy decides who may apply for, view, change or progress a
// training request.
package policy

// DenyCode identifies which rule produced a denial.
type DenyCode string

const (
	DenyIntakeDisabled DenyCode = "intake_disabled"
	DenyMembership     DenyCode = "membership"
	DenyCooldown       DenyCode = "cooldown"
	DenyInactiveRating DenyCode = "inactive_rating"
	DenyActiveTraining DenyCode = "active_training"
	DenyBandQuota      DenyCode = "band_quota"
)

// Decision is the outcome of an eligibility check. The zero value is a denial
// without a reason and is never returned by the evaluator.
type Decision struct {
	allowed bool
	code    DenyCode
	reason  string
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{allowed: true}
}

// Deny returns a denying decision carrying a human-readable reason.
func Deny(code DenyCode, reason string) Decision {
	return Decision{code: code, reason: reason}
}

// Allowed reports whether the action is permitted.
func (d Decision) Allowed() bool { return d.allowed }

// Code is empty for allowed decisions.
func (d Decision) Code() DenyCode { return d.code }

// Reason is the message shown to the member; empty for allowed decisions.
func (d Decision) Reason() string { return d.reason }

// Outcome is "allowed" or the deny code, suitable as a metric label.
func (d Decision) Outcome() string {
	if d.allowed {
		return "allowed"
	}
	return string(d.code)
}
