package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"jpx-history/src/helpers"
	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	"golang.org/x/time/rate"
)

// DefaultRetryBaseDelay is multiplied by attempt^2 between retries.
const DefaultRetryBaseDelay = time.Second

type AsyncNetworkManager struct {
	Config         *models.MConfig
	ProxyManager   interfaces.IProxyManager
	Client         *http.Client
	Logger         *logger.Logger
	Limiter        *rate.Limiter
	RetryBaseDelay time.Duration
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	var proxies []string
	if cfg.Network.Enabled {
		proxies = cfg.Network.Proxies
	}

	// Fixed pacing between requests; no delay configured means no limit.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Network.RequestDelayMs > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.Network.RequestDelayMs)*time.Millisecond), 1)
	}

	nm := &AsyncNetworkManager{
		Config:         cfg,
		ProxyManager:   helpers.NewProxyManager(proxies, cfg.Network.UserAgent, log),
		Logger:         log,
		Limiter:        limiter,
		RetryBaseDelay: DefaultRetryBaseDelay,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nm.ProxyManager.Proxy

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

// Get performs a paced GET request with retries and proxy rotation.
// Transport errors, 403, 429 and 5xx are retried; any other non-200 status
// fails immediately. The final failure is a *helpers.FetchError.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewFetchError(urlStr, 0, err)
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	finalUrl := reqUrl.String()
	maxRetries := nm.Config.Network.MaxRetries

	return helpers.RetryWithBackoff(ctx, maxRetries, nm.RetryBaseDelay, func(attempt int) ([]byte, error) {
		if attempt > 0 {
			nm.ProxyManager.Advance()
		}

		if err := nm.Limiter.Wait(ctx); err != nil {
			return nil, &helpers.Permanent{Err: helpers.NewFetchError(finalUrl, 0, err)}
		}

		body, status, err := nm.do(ctx, finalUrl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &helpers.Permanent{Err: helpers.NewFetchError(finalUrl, 0, ctx.Err())}
			}
			nm.Logger.Info("Request failed (attempt %d/%d): %v", attempt+1, maxRetries+1, err)
			return nil, helpers.NewFetchError(finalUrl, 0, err)
		}

		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests || status == http.StatusForbidden:
			nm.Logger.Warning("Request blocked (%d) for %s. Rotating proxy.", status, finalUrl)
			return nil, helpers.NewFetchError(finalUrl, status, nil)
		case status >= 500:
			nm.Logger.Info("Bad status %d for %s (attempt %d/%d)", status, finalUrl, attempt+1, maxRetries+1)
			return nil, helpers.NewFetchError(finalUrl, status, nil)
		default:
			return nil, &helpers.Permanent{Err: helpers.NewFetchError(finalUrl, status, nil)}
		}
	})
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, finalUrl string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalUrl, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", nm.ProxyManager.UserAgent())

	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
