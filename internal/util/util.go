package util

import (
	"crypto/rand"
	"net"
	"net/http"
	"regexp"
	"strings"
)

const (
	slugAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	slugLength   = 8
)

// Deliberately permissive: a host with a dotted 1-6 char label plus optional
// path/query. Rejects obvious garbage, does not guarantee reachability.
var urlPattern = regexp.MustCompile(`[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&//=]*)?`)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,40}$`)

func IsValidURL(raw string) bool {
	return urlPattern.MatchString(strings.TrimSpace(raw))
}

// IsValidSlug accepts 1-40 ASCII letters or digits, nothing else.
func IsValidSlug(raw string) bool {
	return slugPattern.MatchString(raw)
}

// NormalizeURL prepends https:// to scheme-less URLs. Applied once at create
// time; resolve returns the stored URL untouched.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// GenerateSlug returns a random 8-character identifier over [0-9A-Za-z].
// Collisions are treated as negligible; the database unique constraint is
// the authoritative guard, not this function.
func GenerateSlug() string {
	buf := make([]byte, slugLength)
	rand.Read(buf)

	slug := make([]byte, slugLength)
	for i := range buf {
		slug[i] = slugAlphabet[int(buf[i])%len(slugAlphabet)]
	}
	return string(slug)
}

// ClientIP extracts the caller's network origin, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
