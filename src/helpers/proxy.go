package helpers

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"jpx-history/src/logger"
)

// browserAgents are cycled when no User-Agent is configured.
var browserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// -----------------------------------------------------------------------------

// ProxyManager rotates over a fixed proxy list. The transport asks it for the
// proxy on every request, so rotation takes effect without a new client.
type ProxyManager struct {
	proxies []*url.URL
	agents  []string
	next    int
	agent   int
	mu      sync.Mutex
	logger  *logger.Logger
}

// -----------------------------------------------------------------------------

// NewProxyManager drops entries that do not parse as http, https or socks5
// proxies. A non-empty userAgent is sent on every request.
func NewProxyManager(proxies []string, userAgent string, log *logger.Logger) *ProxyManager {
	pm := &ProxyManager{agents: browserAgents, logger: log}
	if userAgent != "" {
		pm.agents = []string{userAgent}
	}

	for _, raw := range proxies {
		u, ok := ParseProxy(raw)
		if !ok {
			if strings.TrimSpace(raw) != "" {
				log.Warning("ignoring invalid proxy %q", raw)
			}
			continue
		}
		pm.proxies = append(pm.proxies, u)
	}
	return pm
}

// -----------------------------------------------------------------------------

func (pm *ProxyManager) Proxy(_ *http.Request) (*url.URL, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) == 0 {
		return nil, nil
	}
	return pm.proxies[pm.next], nil
}

func (pm *ProxyManager) Advance() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) < 2 {
		return
	}
	pm.next = (pm.next + 1) % len(pm.proxies)
	pm.logger.Info("switching to proxy %s", pm.proxies[pm.next].Host)
}

func (pm *ProxyManager) Len() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.proxies)
}

// UserAgent cycles through the configured agents.
func (pm *ProxyManager) UserAgent() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	ua := pm.agents[pm.agent%len(pm.agents)]
	pm.agent++
	return ua
}

// -----------------------------------------------------------------------------

// ParseProxy accepts host:port (assumed http) or a full proxy URL.
func ParseProxy(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	switch u.Scheme {
	case "http", "https", "socks5":
		return u, true
	}
	return nil, false
}
