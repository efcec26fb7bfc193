package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"
)

// ErrorKind classifies a probe failure. Probes report it as data, never as a
// returned error.
type ErrorKind string

const (
	ErrorKindNone                ErrorKind = ""
	ErrorKindTLSHandshake        ErrorKind = "tls_handshake_failure"
	ErrorKindTimeout             ErrorKind = "timeout"
	ErrorKindDNSResolution       ErrorKind = "dns_resolution_failure"
	ErrorKindConnectionRefused   ErrorKind = "connection_refused"
	ErrorKindOtherNetworkFailure ErrorKind = "other_network_failure"
)

// ClassifyError maps a dial, handshake, or HTTP client error to an ErrorKind.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrorKindTimeout
		}
		return ErrorKindDNSResolution
	}

	if isTimeout(err) {
		return ErrorKindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrorKindConnectionRefused
	}

	if isTLSError(err) {
		return ErrorKindTLSHandshake
	}

	return ErrorKindOtherNetworkFailure
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTLSError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
		unknownAuth x509.UnknownAuthorityError
		invalidErr  x509.CertificateInvalidError
		hostnameErr x509.HostnameError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &alertErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &invalidErr),
		errors.As(err, &hostnameErr):
		return true
	}

	// crypto/tls reports many negotiation failures as plain errors.
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:")
}
