package entity

import (
	"fmt"
	"net"
	"net/url"
)

// MaxURLLength bounds accepted source URLs.
const MaxURLLength = 2048

// ValidateURL checks that rawURL is an absolute http(s) URL whose host does not
// resolve to a loopback, link-local, private or unspecified address. Hosts that do
// not resolve are accepted here; fetching them fails later.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}
	if len(rawURL) > MaxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", MaxURLLength),
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "url is malformed"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "url must use http or https scheme"}
	}
	if u.Hostname() == "" {
		return &ValidationError{Field: "url", Message: "url must have a host"}
	}

	ips, err := net.LookupIP(u.Hostname())
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if isRestrictedIP(ip) {
			return &ValidationError{Field: "url", Message: "url cannot point to a private network"}
		}
	}
	return nil
}

// isRestrictedIP covers loopback, link-local (cloud metadata included), RFC 1918,
// unique local IPv6 and unspecified addresses.
func isRestrictedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() ||
		ip.IsUnspecified()
}
