package okta

import "testing"

func TestConfig_BaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		domain string
		want   string
	}{
		{name: "bare domain", domain: "example.okta.com", want: "https://example.okta.com"},
		{name: "https kept", domain: "https://example.okta.com", want: "https://example.okta.com"},
		{name: "trailing slash stripped", domain: "https://example.okta.com/", want: "https://example.okta.com"},
		{name: "http kept", domain: "http://localhost:8081", want: "http://localhost:8081"},
		{name: "empty", domain: "  ", want: ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Config{Domain: tc.domain}
			if got := cfg.BaseURL(); got != tc.want {
				t.Fatalf("BaseURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{Domain: "example.okta.com", Token: "tok", AppID: "0oa1"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	for _, tc := range []struct {
		name string
		cfg  Config
	}{
		{name: "missing domain", cfg: Config{Token: "tok", AppID: "0oa1"}},
		{name: "missing token", cfg: Config{Domain: "example.okta.com", AppID: "0oa1"}},
		{name: "missing app id", cfg: Config{Domain: "example.okta.com", Token: "tok"}},
		{name: "whitespace only", cfg: Config{Domain: " ", Token: " ", AppID: " "}},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.cfg.Validate(); err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
		})
	}
}

func TestConfig_Normalized(t *testing.T) {
	t.Parallel()

	cfg := Config{Domain: " example.okta.com ", Token: " tok ", AppID: " 0oa1 "}.Normalized()
	if cfg.Domain != "example.okta.com" || cfg.Token != "tok" || cfg.AppID != "0oa1" {
		t.Fatalf("Normalized() = %+v", cfg)
	}
}
