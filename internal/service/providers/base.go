package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domsvc "CoinPulse/internal/domain/service"
	xhttp "CoinPulse/pkg/http"
)

// httpBase is the shared foundation for the outbound JSON clients. It
// centralizes client construction and status-to-error mapping so every
// provider reports quota, no-data and transient failures the same way.
type httpBase struct {
	baseURL string
	client  *xhttp.Client
}

func newHTTPBase(baseURL string, timeout time.Duration) httpBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return httpBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// getJSON fetches baseURL+path and decodes the JSON body into dest.
// Upstream status codes map onto the domain errors: 404 is no-data,
// 429 is quota exhaustion, 5xx and network failures are transient.
func (b *httpBase) getJSON(ctx context.Context, path string, query map[string][]string, headers map[string]string, dest interface{}) error {
	if b.baseURL == "" {
		return fmt.Errorf("provider base url not configured")
	}

	resp, err := b.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		Headers:     headers,
		QueryParams: query,
	})
	if err != nil {
		return domsvc.Transient(fmt.Errorf("get %s: %w", path, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domsvc.ErrNoData
	case resp.StatusCode == http.StatusTooManyRequests:
		return domsvc.ErrQuotaExceeded
	case resp.StatusCode >= 500:
		return domsvc.Transient(fmt.Errorf("get %s: upstream status %d", path, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("get %s: unexpected status %d: %s", path, resp.StatusCode, body)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("get %s: decode json: %w", path, err)
	}
	return nil
}
