package origin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Wildcard in an allow-list admits every origin.
const Wildcard = "*"

// Normalize validates a browser Origin value and returns it as
// scheme://host[:port] with the scheme and host lowercased and default ports
// dropped.
func Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if trimmed == "null" {
		return "null", true
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" || u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return "", false
	}
	if u.Path != "" && u.Path != "/" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}

	hostname := strings.ToLower(u.Hostname())
	if hostname == "" {
		return "", false
	}
	host := hostname
	if strings.Contains(hostname, ":") {
		host = "[" + hostname + "]"
	}
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n == 0 {
			return "", false
		}
		if !(scheme == "http" && n == 80) && !(scheme == "https" && n == 443) {
			host += ":" + strconv.FormatUint(n, 10)
		}
	}
	return scheme + "://" + host, true
}

// ParseList parses a comma-separated allow-list. Entries are normalized;
// "*" is kept as is.
func ParseList(raw string) ([]string, error) {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == Wildcard {
			out = append(out, entry)
			continue
		}
		normalized, ok := Normalize(entry)
		if !ok {
			return nil, fmt.Errorf("invalid origin %q (expected full origin like https://example.com)", entry)
		}
		out = append(out, normalized)
	}
	return out, nil
}

// Allowed reports whether the Origin header value may open a connection.
// An empty allow-list admits everything, as does a missing header (non-browser
// clients do not send one).
func Allowed(header string, allowed []string) bool {
	if len(allowed) == 0 || strings.TrimSpace(header) == "" {
		return true
	}
	normalized, ok := Normalize(header)
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == Wildcard || a == normalized {
			return true
		}
	}
	return false
}
