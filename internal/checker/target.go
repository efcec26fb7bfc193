package checker

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/riskscan/internal/shared/errors"
)

// Target is a normalized scan target. It is a value type and never mutated
// after ParseTarget returns it.
type Target struct {
	Original string // Original target string
	URL      string // Absolute URL used for HTTP requests
	Host     string // Bare hostname (no userinfo, port, or path)
	Port     string // Port for the TLS probe
}

// Address returns host:port for dialing.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// ParseTarget normalizes a user supplied target. It accepts:
//   - example.com
//   - https://example.com/path
//   - example.com:8443
//   - user@example.com
//
// A missing scheme defaults to https. Empty hosts and non-HTTP schemes are
// rejected with ErrInvalidTarget.
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, fmt.Errorf("%w: empty target", sharedErrors.ErrInvalidTarget)
	}

	parsed, err := url.Parse(trimmed)

	// If parsing fails OR scheme is empty OR scheme doesn't look like a real scheme
	// (contains dots, e.g. "example.com:8443") then prepend https:// and parse again
	if err != nil || parsed.Scheme == "" || strings.Contains(parsed.Scheme, ".") || parsed.Host == "" && parsed.Opaque != "" {
		parsed, err = url.Parse("https://" + trimmed)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidTarget, err)
		}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return Target{}, fmt.Errorf("%w: unsupported scheme %q", sharedErrors.ErrInvalidTarget, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", sharedErrors.ErrInvalidTarget, raw)
	}

	port := parsed.Port()
	if port == "" {
		port = consts.DefaultTLSPort
	}

	parsed.Scheme = scheme
	parsed.User = nil
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	return Target{
		Original: raw,
		URL:      parsed.String(),
		Host:     host,
		Port:     port,
	}, nil
}
