package openrouter

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	DefaultBaseURL = "https://openrouter.ai"
	DefaultModel   = "anthropic/claude-sonnet-4"
)

var defaultAllowedHosts = map[string]struct{}{
	"openrouter.ai":     {},
	"api.openrouter.ai": {},
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL checks the scorer endpoint against the host allowlist.
// Plain http is accepted only for loopback hosts that are explicitly allowed.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("llm base url: %w", err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return fmt.Errorf("llm base url %q: absolute URL with host is required", baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("llm base url %q: userinfo is not allowed", baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("llm base url %q: query and fragment are not allowed", baseURL)
	}

	host := strings.ToLower(u.Hostname())
	allowed := normalizeAllowedHosts(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("llm base url %q: host %q is not in the allowed hosts", baseURL, host)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
	case "http":
		if !isLoopback(host) {
			return fmt.Errorf("llm base url %q: https is required for non-loopback hosts", baseURL)
		}
	default:
		return fmt.Errorf("llm base url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func normalizeAllowedHosts(allowedHosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if hp, _, err := net.SplitHostPort(v); err == nil {
			v = hp
		}
		if v != "" {
			out[v] = struct{}{}
		}
	}
	if len(out) == 0 {
		return defaultAllowedHosts
	}
	return out
}
