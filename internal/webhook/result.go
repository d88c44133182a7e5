// Package webhook receives, verifies and dispatches GitHub webhook events.
package webhook

// Result reports how an event delivery was consumed. Deliveries are always
// acknowledged; Skipped carries the reason an event caused no mutation.
type Result struct {
	Handled bool
	Reason  string
}

// Handled marks a delivery that mutated the mirror.
func Handled() Result {
	return Result{Handled: true}
}

// Skipped marks a delivery that was acknowledged without mutation.
func Skipped(reason string) Result {
	return Result{Handled: false, Reason: reason}
}
