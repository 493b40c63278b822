package models

import "testing"

func TestNewTarget_ValidURLs(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantSlug string
	}{
		{"standard", "https://www.capterra.com/p/135003/Slack/reviews/", "Slack"},
		{"no trailing slash", "https://www.capterra.com/p/135003/Slack/reviews", "Slack"},
		{"hyphenated slug", "https://www.capterra.com/p/186596/acme-project-suite/reviews/", "acme-project-suite"},
		{"with query", "https://www.capterra.com/p/135003/Slack/reviews/?page=2", "Slack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := NewTarget(tt.url)
			if err != nil {
				t.Fatalf("NewTarget(%q): %v", tt.url, err)
			}
			if target.URL != tt.url {
				t.Errorf("URL = %q, want the raw input preserved", target.URL)
			}
			if target.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", target.Slug, tt.wantSlug)
			}
		})
	}
}

func TestNewTarget_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"not a url", "definitely not a url"},
		{"empty", ""},
		{"wrong host", "https://example.com/p/135003/Slack/reviews/"},
		{"missing reviews segment", "https://www.capterra.com/p/135003/Slack/"},
		{"missing product path", "https://www.capterra.com/reviews/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTarget(tt.url)
			if err == nil {
				t.Fatalf("NewTarget(%q) accepted an invalid URL", tt.url)
			}
			if !HasCode(err, ErrCodeInvalidInput) {
				t.Errorf("error = %v, want code %s", err, ErrCodeInvalidInput)
			}
		})
	}
}

func TestTarget_NameGuess(t *testing.T) {
	target := Target{Slug: "acme-project-suite"}
	if got := target.NameGuess(); got != "Acme Project Suite" {
		t.Errorf("NameGuess() = %q, want %q", got, "Acme Project Suite")
	}
}

func TestTarget_Label(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"slack", "load-slack"},
		{"acme-project-suite", "load-acme-proje"},
	}
	for _, tt := range tests {
		target := Target{Slug: tt.slug}
		if got := target.Label(); got != tt.want {
			t.Errorf("Label() with slug %q = %q, want %q", tt.slug, got, tt.want)
		}
	}
}
