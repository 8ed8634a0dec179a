package util

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsValidURL(t *testing.T) {
	valid := []string{
		"example.com",
		"example.com/page",
		"https://example.com/a/b?q=1",
		"sub.domain.co.uk",
	}
	for _, u := range valid {
		if !IsValidURL(u) {
			t.Errorf("expected %q to be valid", u)
		}
	}

	invalid := []string{
		"",
		"no-dots-here",
		"   ",
	}
	for _, u := range invalid {
		if IsValidURL(u) {
			t.Errorf("expected %q to be invalid", u)
		}
	}
}

func TestIsValidSlug(t *testing.T) {
	if !IsValidSlug("a") {
		t.Error("length 1 should be accepted")
	}
	if !IsValidSlug(strings.Repeat("a", 40)) {
		t.Error("length 40 should be accepted")
	}
	if IsValidSlug(strings.Repeat("a", 41)) {
		t.Error("length 41 should be rejected")
	}
	if IsValidSlug("") {
		t.Error("empty slug should be rejected")
	}
	for _, s := range []string{"has space", "a/b", "dot.dot", "semi;colon", "dash-ok?no"} {
		if IsValidSlug(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
	if !IsValidSlug("Mixed123abc") {
		t.Error("alphanumeric slug should be accepted")
	}
}

func TestNormalizeURL(t *testing.T) {
	if got := NormalizeURL("example.com/page"); got != "https://example.com/page" {
		t.Errorf("expected https prefix, got %q", got)
	}
	if got := NormalizeURL("http://example.com"); got != "http://example.com" {
		t.Errorf("http url should pass through, got %q", got)
	}
	if got := NormalizeURL("https://example.com"); got != "https://example.com" {
		t.Errorf("https url should pass through, got %q", got)
	}
}

func TestGenerateSlug(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		slug := GenerateSlug()
		if len(slug) != 8 {
			t.Fatalf("expected 8 chars, got %d (%q)", len(slug), slug)
		}
		for _, c := range slug {
			if !strings.ContainsRune(slugAlphabet, c) {
				t.Fatalf("unexpected character %q in slug %q", c, slug)
			}
		}
		seen[slug] = true
	}
	if len(seen) < 90 {
		t.Errorf("expected mostly unique slugs, got %d unique out of 100", len(seen))
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := ClientIP(r); got != "10.0.0.9" {
		t.Errorf("expected remote host, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	if got := ClientIP(r); got != "1.2.3.4" {
		t.Errorf("expected first XFF ip, got %q", got)
	}

	r2 := httptest.NewRequest("GET", "http://example/", nil)
	r2.RemoteAddr = "10.0.0.9:5555"
	r2.Header.Set("X-Real-IP", "9.9.9.9")
	if got := ClientIP(r2); got != "9.9.9.9" {
		t.Errorf("expected X-Real-IP, got %q", got)
	}
}
