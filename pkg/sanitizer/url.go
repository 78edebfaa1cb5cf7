package sanitizer

import (
	"net/url"
	"strings"
)

// SanitizeURL normalizes an image URL: force https, strip www and
// trailing slashes, lowercase host and path. Returns "" for anything
// that does not parse to a host.
func SanitizeURL(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return ""
	}

	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = "https"

	if after, ok := strings.CutPrefix(u.Host, "www."); ok {
		u.Host = after
	}
	u.Path = strings.TrimSuffix(strings.TrimSpace(u.Path), "/")

	return u.String()
}
