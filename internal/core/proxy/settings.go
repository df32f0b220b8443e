// Package proxy describes the optional egress proxy used for outbound calls to
// the storefront backend.
package proxy

import (
	"fmt"
	"net/http"
	"net/url"
)

// Settings contains the egress proxy configuration.
type Settings struct {
	Enabled  bool   `mapstructure:"STOREFRONT_PROXY_ENABLED"`
	Hostname string `mapstructure:"STOREFRONT_PROXY_HOST"`
	Port     int    `mapstructure:"STOREFRONT_PROXY_PORT"`
	Username string `mapstructure:"STOREFRONT_PROXY_USERNAME"`
	Password string `mapstructure:"STOREFRONT_PROXY_PASSWORD"`
}

// HasProxy returns true if proxy is enabled and configured.
func (p Settings) HasProxy() bool {
	return p.Enabled && p.Hostname != "" && p.Port > 0
}

// HostPort returns the proxy URL without credentials (e.g., "http://egress.internal:3128").
// It is safe to log.
func (p Settings) HostPort() string {
	if !p.HasProxy() {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", p.Hostname, p.Port)
}

// URL returns the proxy URL with credentials, or nil when no proxy is set.
func (p Settings) URL() *url.URL {
	if !p.HasProxy() {
		return nil
	}
	u := &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", p.Hostname, p.Port)}
	if p.Username != "" && p.Password != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// Transport returns a copy of base that routes requests through the proxy.
// base is returned untouched when no proxy is set.
func (p Settings) Transport(base *http.Transport) *http.Transport {
	if !p.HasProxy() {
		return base
	}
	t := base.Clone()
	t.Proxy = http.ProxyURL(p.URL())
	return t
}
