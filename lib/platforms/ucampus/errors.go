package ucampus

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/go-resty/resty/v2"
)

var (
	// login failures
	ErrNoSessionCookie   = errors.New("portal did not issue a session cookie")
	ErrMalformedResponse = errors.New("malformed login response")
	ErrRejected          = errors.New("login rejected")

	// transport failures
	ErrNetwork = errors.New("network error")
	ErrTimeout = errors.New("request timed out")

	ErrNotAuthenticated = errors.New("session is not authenticated")
)

// RejectedError is returned when the portal answers the credential exchange
// with anything other than a status 200 and a continuation url.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrRejected, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrRejected, e.Status, e.Message)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// transportError classifies a failed request, timeouts wrap both
// ErrTimeout and ErrNetwork.
func transportError(method, link string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %w: %s %s: %w", ErrNetwork, ErrTimeout, method, link, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, link, err)
}

func statusError(res *resty.Response) error {
	return fmt.Errorf(
		"%w: %s %s returned %s",
		ErrNetwork, res.Request.Method, res.Request.URL, res.Status(),
	)
}
