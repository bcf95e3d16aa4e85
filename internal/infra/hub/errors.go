package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
)

// ErrorKind is the classified outcome of a failed hub call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindNotFound
	KindBadRequest
	KindServerError
	KindTimeout
	KindConnectionFailed
	KindParseFailure
	KindContractViolation
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindServerError:
		return "server_error"
	case KindTimeout:
		return "timeout"
	case KindConnectionFailed:
		return "connection_failed"
	case KindParseFailure:
		return "parse_failure"
	case KindContractViolation:
		return "contract_violation"
	default:
		return "unknown"
	}
}

// Transient reports whether a retry can change the outcome.
func (k ErrorKind) Transient() bool {
	return k == KindTimeout || k == KindConnectionFailed
}

// ErrNoActiveQuestion is returned when an answer is posted without a live question.
var ErrNoActiveQuestion = errors.New("no active question")

// Error is the only error type the hub client hands back to callers.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: http %d (%s): %v", e.Op, e.Status, e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: http %d (%s)", e.Op, e.Status, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind carried by err.
func KindOf(err error) ErrorKind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return ClassifyTransport(err)
}

// ClassifyStatus maps an HTTP status code to an ErrorKind.
// Codes below 400 are not errors and classify as KindUnknown.
func ClassifyStatus(code int) ErrorKind {
	switch {
	case code == 401:
		return KindUnauthorized
	case code == 404:
		return KindNotFound
	case code >= 400 && code < 500:
		return KindBadRequest
	case code >= 500:
		return KindServerError
	default:
		return KindUnknown
	}
}

// ClassifyTransport maps an error raised before a status line was read.
func ClassifyTransport(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.Canceled) {
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindConnectionFailed
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnectionFailed
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnectionFailed
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		if k := ClassifyTransport(urlErr.Err); k != KindUnknown {
			return k
		}
		return KindConnectionFailed
	}

	return KindUnknown
}
