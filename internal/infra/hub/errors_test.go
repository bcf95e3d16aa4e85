package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code   int
		expect ErrorKind
	}{
		{401, KindUnauthorized},
		{404, KindNotFound},
		{400, KindBadRequest},
		{403, KindBadRequest},
		{418, KindBadRequest},
		{429, KindBadRequest},
		{499, KindBadRequest},
		{500, KindServerError},
		{502, KindServerError},
		{503, KindServerError},
		{200, KindUnknown},
		{302, KindUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyStatus(tt.code); got != tt.expect {
			t.Errorf("ClassifyStatus(%d) = %v, want %v", tt.code, got, tt.expect)
		}
	}
}

func TestClassifyTransport(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	tests := []struct {
		name   string
		err    error
		expect ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "http://hub", Err: timeoutError{}}, KindTimeout},
		{"refused", refused, KindConnectionFailed},
		{"url wrapped refused", &url.Error{Op: "Get", URL: "http://hub", Err: refused}, KindConnectionFailed},
		{"reset", syscall.ECONNRESET, KindConnectionFailed},
		{"eof", &url.Error{Op: "Get", URL: "http://hub", Err: io.EOF}, KindConnectionFailed},
		{"dns", &net.DNSError{Err: "no such host", Name: "hub.invalid"}, KindConnectionFailed},
		{"canceled", context.Canceled, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTransport(tt.err); got != tt.expect {
				t.Errorf("ClassifyTransport(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("fetch: %w", &Error{Kind: KindNotFound, Op: "GET question", Status: 404})
	if got := KindOf(err); got != KindNotFound {
		t.Errorf("KindOf() = %v, want %v", got, KindNotFound)
	}

	if got := KindOf(context.DeadlineExceeded); got != KindTimeout {
		t.Errorf("KindOf(deadline) = %v, want %v", got, KindTimeout)
	}
}

func TestErrorKind_Transient(t *testing.T) {
	for _, k := range []ErrorKind{KindTimeout, KindConnectionFailed} {
		if !k.Transient() {
			t.Errorf("%v should be transient", k)
		}
	}
	for _, k := range []ErrorKind{KindUnauthorized, KindNotFound, KindBadRequest, KindServerError, KindParseFailure, KindUnknown} {
		if k.Transient() {
			t.Errorf("%v should not be transient", k)
		}
	}
}
