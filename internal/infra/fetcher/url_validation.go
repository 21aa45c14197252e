package fetcher

import (
	"fmt"
	"net/url"

	"summarize-pro/internal/domain/entity"
)

// validateURL checks scheme and host, and with denyPrivateIPs also rejects hosts
// resolving to restricted addresses.
func validateURL(urlStr string, denyPrivateIPs bool) error {
	if denyPrivateIPs {
		if err := entity.ValidateURL(urlStr); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidURL, err)
		}
		return nil
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	return nil
}
