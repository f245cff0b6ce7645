package interfaces

import (
	"net/http"
	"net/url"
)

// -----------------------------------------------------------------------------
// IProxyManager picks the outbound proxy and User-Agent for each request.
// -----------------------------------------------------------------------------

type IProxyManager interface {
	// Proxy has the signature of http.Transport.Proxy. A nil URL means direct.
	Proxy(req *http.Request) (*url.URL, error)

	// Advance moves to the next proxy after a blocked or failed request.
	Advance()

	// Len is the number of usable proxies.
	Len() int

	UserAgent() string
}
