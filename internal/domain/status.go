package domain

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/registry/internal/utils"
)

// MaxCheckRedirects caps how many redirects a health check follows.
const MaxCheckRedirects = 10

// NewHTTPClient builds the client used for subscriber callbacks.
// Every call made with it is bounded by timeout and redirects are not followed.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(timeout),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Callbacks are never replayed to another location
			return http.ErrUseLastResponse
		},
	}
}

// NewCheckClient builds the client used for health checks. It follows up
// to MaxCheckRedirects redirects and judges the final response.
func NewCheckClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(timeout),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxCheckRedirects {
				return fmt.Errorf("stopped after %d redirects", MaxCheckRedirects)
			}
			return nil
		},
	}
}

func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 0,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		DisableKeepAlives:     true,
	}
}

// CheckHealth issues a GET against the service health URL.
// Any error, malformed address or non-2xx status is reported as an error.
func CheckHealth(ctx context.Context, client *http.Client, service Service) error {
	target, err := service.HealthURL()
	if err != nil {
		return fmt.Errorf("invalid health url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}
