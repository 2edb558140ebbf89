package httpclient

import (
	"net/http"
	"net/url"
	"os"
	"time"
)

// ProxyEnvironmentVariables defines the order of preference for proxy environment variables
// Following standard conventions used by curl, wget, and other tools
var ProxyEnvironmentVariables = []string{
	"HTTPS_PROXY",
	"https_proxy",
	"HTTP_PROXY",
	"http_proxy",
}

// NewHTTPClientWithProxy creates an HTTP client with optional proxy support
// Only configures proxy if environment variables are set
// Uses standard proxy environment variables in order of preference
func NewHTTPClientWithProxy(timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	// Start with default transport
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Configure proxy if environment variables are set
	if proxyURL := getProxyURL(); proxyURL != "" {
		if parsedProxy, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsedProxy)
		}
	}

	client.Transport = transport

	return client
}

// getProxyURL returns the first valid proxy URL from environment variables
// Returns empty string if no proxy is configured
func getProxyURL() string {
	for _, envVar := range ProxyEnvironmentVariables {
		if proxyURL := os.Getenv(envVar); proxyURL != "" {
			// Skip placeholder values that some tools use
			if proxyURL != "$HTTPS_PROXY" && proxyURL != "$HTTP_PROXY" {
				return proxyURL
			}
		}
	}
	return ""
}
