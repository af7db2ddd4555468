package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// fetchChart requests the daily chart for symbol, failing over between hosts
// and backing off between rounds. A 404 is final.
func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, r Range) (*yahooChartResp, error) {
	var lastErr error
	for attempt := 0; attempt < len(p.backoffs)+1; attempt++ {
		for _, host := range p.hosts {
			yc, err := p.fetchOnce(ctx, host, symbol, r)
			if err == nil {
				p.onRequest("ok")
				return yc, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, ErrSymbolNotFound) {
				p.onRequest("not_found")
				return nil, err
			}
			p.onRequest("error")
			p.log.Debug().Err(err).Str("host", host).Int("attempt", attempt).Msg("yahoo request failed")
			lastErr = err
		}
		if attempt < len(p.backoffs) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.backoffs[attempt]):
			}
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, lastErr)
}

func (p *YahooProvider) fetchOnce(ctx context.Context, host, symbol string, r Range) (*yahooChartResp, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("period1", fmt.Sprint(r.Start.Unix()))
	q.Set("period2", fmt.Sprint(r.End.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", strings.TrimRight(host, "/"), url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/history", symbol))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", readErr)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", host)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}

	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	if yc.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %w: %s", symbol, ErrSymbolNotFound, yc.Chart.Error.Description)
	}
	return &yc, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
