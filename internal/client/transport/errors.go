package transport

import "errors"

var (
	// ErrUnavailable marks transport-level failures: network errors,
	// timeouts, 5xx responses. Operations failing with it may be retried
	// with the same arguments.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized is returned for authentication failures, both bad
	// credentials at login and an expired or missing session later.
	ErrUnauthorized = errors.New("unauthorized")
)

// Rejection is an application-level refusal: the server understood the
// request and rejected it for a reason meant to be shown to the user
// verbatim (e.g. "already exists"). A Rejection is a normal outcome, not a
// transport failure, and is never retried.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

// IsRejection unwraps err into a Rejection reason, if it is one.
func IsRejection(err error) (string, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}
