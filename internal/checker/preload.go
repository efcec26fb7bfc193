package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/riskscan/internal/shared/errors"
	"golang.org/x/time/rate"
)

// maxPreloadResponseBytes bounds the status document we are willing to decode.
const maxPreloadResponseBytes = 1 << 20

// Preload states reported for diagnostics.
const (
	PreloadStatePreloaded    = "preloaded"
	PreloadStateNotPreloaded = "not_preloaded"
	PreloadStateUnknown      = "unknown"
)

// PreloadStatus is the outcome of the HSTS preload lookup.
type PreloadStatus struct {
	Preloaded bool   `json:"preloaded"`
	State     string `json:"state"`
	Attempts  int    `json:"attempts"`
	// Err is set when no attempt produced a parseable answer.
	Err error `json:"-"`
}

// PreloadChecker queries the public HSTS preload list service.
type PreloadChecker struct {
	BaseURL   string
	Timeout   time.Duration // per attempt
	UserAgent string
	Client    *http.Client
	Limiter   *rate.Limiter
}

// NewPreloadChecker builds a checker with a polite client-side request rate.
// A non-positive ratePerSecond disables limiting.
func NewPreloadChecker(baseURL string, timeout time.Duration, ratePerSecond float64, userAgent string) *PreloadChecker {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return &PreloadChecker{
		BaseURL:   baseURL,
		Timeout:   timeout,
		UserAgent: userAgent,
		Client:    &http.Client{},
		Limiter:   limiter,
	}
}

// Check reports whether host, or its www./bare counterpart, is preloaded.
// The first 200 answer with status "preloaded" wins; failed attempts are
// skipped. Check never returns an error.
func (c *PreloadChecker) Check(ctx context.Context, host string) PreloadStatus {
	status := PreloadStatus{State: PreloadStateUnknown}
	answered := false

	for _, candidate := range preloadCandidates(host) {
		for _, endpoint := range c.endpoints(candidate) {
			if c.Limiter != nil {
				if err := c.Limiter.Wait(ctx); err != nil {
					status.Err = fmt.Errorf("%w: %v", sharedErrors.ErrPreloadCheckExhausted, err)
					return c.finish(status, answered)
				}
			}
			if ctx.Err() != nil {
				status.Err = fmt.Errorf("%w: %v", sharedErrors.ErrPreloadCheckExhausted, ctx.Err())
				return c.finish(status, answered)
			}

			status.Attempts++
			state, ok := c.attempt(ctx, endpoint)
			if !ok {
				continue
			}
			answered = true
			if state == PreloadStatePreloaded {
				status.Preloaded = true
				status.State = PreloadStatePreloaded
				status.Err = nil
				return status
			}
		}
	}

	if !answered {
		status.Err = fmt.Errorf("%w: %d attempts without an answer", sharedErrors.ErrPreloadCheckExhausted, status.Attempts)
	}
	return c.finish(status, answered)
}

func (c *PreloadChecker) finish(status PreloadStatus, answered bool) PreloadStatus {
	if answered {
		status.State = PreloadStateNotPreloaded
		status.Err = nil
	}
	return status
}

// attempt performs one lookup. ok is false when the response could not be
// used (transport error, non-200, malformed body).
func (c *PreloadChecker) attempt(ctx context.Context, endpoint string) (state string, ok bool) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultPreloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false
	}
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = consts.DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPreloadResponseBytes)).Decode(&payload); err != nil {
		return "", false
	}
	return payload.Status, true
}

func (c *PreloadChecker) endpoints(domain string) []string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = consts.DefaultPreloadBaseURL
	}
	return []string{
		base + "/api/v2/status?" + url.Values{"domain": {domain}}.Encode(),
		base + "/api/v2/status/" + url.PathEscape(domain),
	}
}

// preloadCandidates returns host plus its www./bare counterpart, without duplicates.
func preloadCandidates(host string) []string {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	if host == "" {
		return nil
	}

	candidates := []string{host}
	if bare, ok := strings.CutPrefix(host, "www."); ok {
		if bare != "" {
			candidates = append(candidates, bare)
		}
	} else {
		candidates = append(candidates, "www."+host)
	}
	return candidates
}
