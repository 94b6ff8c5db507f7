package openrouter

import "testing"

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		allowedHosts []string
		wantErr      bool
	}{
		{name: "default host", baseURL: "https://openrouter.ai"},
		{name: "empty falls back to default", baseURL: "  "},
		{name: "api host", baseURL: "https://api.openrouter.ai/"},
		{name: "relative", baseURL: "openrouter.ai", wantErr: true},
		{name: "plain http to public host", baseURL: "http://openrouter.ai", wantErr: true},
		{name: "unknown host", baseURL: "https://evil.example", wantErr: true},
		{name: "configured host", baseURL: "https://proxy.internal", allowedHosts: []string{"proxy.internal"}},
		{name: "loopback http when allowed", baseURL: "http://127.0.0.1:8080", allowedHosts: []string{"127.0.0.1:8080"}},
		{name: "loopback http not allowed by default", baseURL: "http://127.0.0.1:8080", wantErr: true},
		{name: "query", baseURL: "https://openrouter.ai?x=1", wantErr: true},
		{name: "userinfo", baseURL: "https://u:p@openrouter.ai", wantErr: true},
		{name: "ftp", baseURL: "ftp://openrouter.ai", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.baseURL, tt.allowedHosts)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeAllowedHosts_DefaultWhenEmpty(t *testing.T) {
	out := normalizeAllowedHosts([]string{" ", "https://", "http://"})
	if len(out) != len(defaultAllowedHosts) {
		t.Fatalf("expected default allowed hosts, got %v", out)
	}
}
