package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{"nil", nil, ErrorKindNone},
		{"dns not found", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, ErrorKindDNSResolution},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", Name: "slow.example", IsTimeout: true}, ErrorKindTimeout},
		{"context deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), ErrorKindTimeout},
		{"socket deadline", &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}, ErrorKindTimeout},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, ErrorKindConnectionRefused},
		{"unknown authority", x509.UnknownAuthorityError{}, ErrorKindTLSHandshake},
		{"verification error", &tls.CertificateVerificationError{Err: errors.New("x509: certificate has expired")}, ErrorKindTLSHandshake},
		{"alert", tls.AlertError(40), ErrorKindTLSHandshake},
		{"plain tls message", errors.New("tls: first record does not look like a TLS handshake"), ErrorKindTLSHandshake},
		{"wrapped by http client", &url.Error{Op: "Get", URL: "https://x", Err: x509.HostnameError{Certificate: &x509.Certificate{}, Host: "x"}}, ErrorKindTLSHandshake},
		{"reset", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, ErrorKindOtherNetworkFailure},
		{"other", errors.New("something odd"), ErrorKindOtherNetworkFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.expected {
				t.Errorf("ClassifyError(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}
