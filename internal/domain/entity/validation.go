package entity

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// ValidateWebhookURL validates a user-supplied webhook URL before it is stored
// as a guild's notification channel. It checks that the URL is well-formed,
// uses the HTTPS scheme, and has a valid host. It also blocks private IP
// addresses to prevent SSRF attacks, since the worker will POST to this URL.
// Returns a ValidationError if the URL is invalid or empty.
func ValidateWebhookURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "webhook_url", Message: "webhook URL is required"}
	}

	// DoS protection: enforce maximum URL length
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "webhook_url",
			Message: fmt.Sprintf("webhook URL must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse webhook URL: %w", err)
	}

	// Webhooks carry an auth token in the path, so plain http is never valid.
	if parsedURL.Scheme != "https" {
		return &ValidationError{Field: "webhook_url", Message: "webhook URL must use https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "webhook_url", Message: "webhook URL must have a valid host"}
	}

	// SSRF protection: block private IP addresses
	host := parsedURL.Hostname()
	ips, err := net.LookupIP(host)
	if err == nil && len(ips) > 0 {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return &ValidationError{
					Field:   "webhook_url",
					Message: "webhook URL cannot point to private network",
				}
			}
		}
	}

	return nil
}

// ValidateArtistReference checks the user-supplied artist reference (permalink,
// profile URL, or platform ID) passed to a track request.
func ValidateArtistReference(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return &ValidationError{Field: "artist", Message: "artist reference is required"}
	}
	if len(ref) > maxURLLength {
		return &ValidationError{
			Field:   "artist",
			Message: fmt.Sprintf("artist reference must not exceed %d characters", maxURLLength),
		}
	}
	return nil
}

// isPrivateIP checks if an IP address is in a private or restricted range.
// This prevents SSRF attacks by blocking access to:
// - localhost (127.0.0.0/8, ::1)
// - link-local addresses (169.254.0.0/16, fe80::/10)
// - private networks (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
// - cloud metadata endpoints (169.254.169.254)
func isPrivateIP(ip net.IP) bool {
	// localhost
	if ip.IsLoopback() {
		return true
	}

	// link-local
	if ip.IsLinkLocalUnicast() {
		return true
	}

	// Private IPv4 ranges
	privateIPv4Ranges := []string{
		"10.0.0.0/8",     // Private network
		"172.16.0.0/12",  // Private network
		"192.168.0.0/16", // Private network
		"169.254.0.0/16", // Link-local (includes cloud metadata)
	}

	for _, cidr := range privateIPv4Ranges {
		_, subnet, _ := net.ParseCIDR(cidr)
		if subnet.Contains(ip) {
			return true
		}
	}

	return false
}
