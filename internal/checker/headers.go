package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	"golang.org/x/net/publicsuffix"
)

// drainLimitBytes bounds how much of a GET body is read before closing.
const drainLimitBytes = 64 << 10

// CanonicalHeaders is the fixed set of recommended response headers, in report order.
var CanonicalHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
	"Permissions-Policy",
	"Cross-Origin-Resource-Policy",
	"Cross-Origin-Opener-Policy",
	"Cross-Origin-Embedder-Policy",
}

// headerAliases lists extra lower-cased names that satisfy a canonical header.
var headerAliases = map[string][]string{
	"content-security-policy": {"content-security-policy-report-only"},
}

// HeaderFacts is the outcome of one header probe.
type HeaderFacts struct {
	Headers      map[string]string `json:"headers,omitempty"`
	Present      []string          `json:"present"`
	Missing      []string          `json:"missing"`
	Tier         scan.RiskLevel    `json:"tier"`
	StatusCode   int               `json:"status_code,omitempty"`
	FinalURL     string            `json:"final_url,omitempty"`
	ErrorKind    ErrorKind         `json:"error_kind,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// Failed reports whether the probe could not fetch any response.
func (f HeaderFacts) Failed() bool {
	return f.ErrorKind != ErrorKindNone
}

// HeaderProbe fetches the target's response headers and checks them against
// CanonicalHeaders.
type HeaderProbe struct {
	Timeout      time.Duration // per request
	MaxRedirects int
	UserAgent    string
	// RootCAs overrides the platform trust store; nil uses the system roots.
	RootCAs *x509.CertPool
}

// Probe never returns an error: network failures yield tier Unknown with the
// error recorded and both header lists empty.
func (p *HeaderProbe) Probe(ctx context.Context, target Target) HeaderFacts {
	client, err := p.newClient()
	if err != nil {
		return headerFailure(ErrorKindOtherNetworkFailure, err)
	}

	// Try HEAD first (minimal side effects), fall back to GET once.
	resp, err := p.do(ctx, client, http.MethodHead, target.URL)
	if err != nil || resp.StatusCode >= http.StatusBadRequest {
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = p.do(ctx, client, http.MethodGet, target.URL)
		if err != nil {
			return headerFailure(ClassifyError(err), err)
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimitBytes))

	facts := EvaluateHeaders(resp.Header)
	facts.StatusCode = resp.StatusCode
	if resp.Request != nil && resp.Request.URL != nil {
		facts.FinalURL = resp.Request.URL.String()
	}
	return facts
}

// EvaluateHeaders partitions CanonicalHeaders into present and missing for
// the given response headers.
func EvaluateHeaders(header http.Header) HeaderFacts {
	lowered := make(map[string]string, len(header))
	for name, values := range header {
		lowered[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	facts := HeaderFacts{
		Headers: lowered,
		Present: make([]string, 0, len(CanonicalHeaders)),
		Missing: make([]string, 0, len(CanonicalHeaders)),
	}
	for _, canonical := range CanonicalHeaders {
		if headerPresent(lowered, canonical) {
			facts.Present = append(facts.Present, canonical)
		} else {
			facts.Missing = append(facts.Missing, canonical)
		}
	}
	facts.Tier = scan.HeaderTier(len(facts.Missing))
	return facts
}

func headerPresent(lowered map[string]string, canonical string) bool {
	key := strings.ToLower(canonical)
	if _, ok := lowered[key]; ok {
		return true
	}
	for _, alias := range headerAliases[key] {
		if _, ok := lowered[alias]; ok {
			return true
		}
	}
	return false
}

func headerFailure(kind ErrorKind, err error) HeaderFacts {
	return HeaderFacts{
		Present:      []string{},
		Missing:      []string{},
		Tier:         scan.RiskUnknown,
		ErrorKind:    kind,
		ErrorMessage: err.Error(),
	}
}

func (p *HeaderProbe) newClient() (*http.Client, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultHeaderTimeout
	}
	maxRedirects := p.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = consts.DefaultMaxRedirects
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		RootCAs:    p.RootCAs,
		MinVersion: tls.VersionTLS12,
	}

	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}, nil
}

func (p *HeaderProbe) do(ctx context.Context, client *http.Client, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	userAgent := p.UserAgent
	if userAgent == "" {
		userAgent = consts.DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	return client.Do(req)
}
