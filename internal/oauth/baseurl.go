package oauth

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// BaseURLGuard validates user-supplied provider base URLs before the
// server makes requests to them. The Canvas tenant base is the only
// end-user-controlled URL this service POSTs to, which makes it an
// SSRF vector without these checks.
type BaseURLGuard struct {
	allowPrivateIPs bool
}

// NewBaseURLGuard creates a base URL validator. allowPrivateIPs relaxes
// the checks for development against a local Canvas instance.
func NewBaseURLGuard(allowPrivateIPs bool) *BaseURLGuard {
	return &BaseURLGuard{
		allowPrivateIPs: allowPrivateIPs,
	}
}

// Validate checks a base URL for use as an outbound request target.
func (g *BaseURLGuard) Validate(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if !parsedURL.IsAbs() {
		return fmt.Errorf("URL must be absolute")
	}

	// Canvas instances are always served over https. http is accepted
	// only in development mode.
	switch parsedURL.Scheme {
	case "https":
	case "http":
		if !g.allowPrivateIPs {
			return fmt.Errorf("only https URLs are allowed")
		}
	default:
		return fmt.Errorf("only http and https schemes are allowed")
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	if g.isBlockedHostname(hostname) {
		return fmt.Errorf("access to this hostname is not allowed")
	}

	// Resolve hostname to IP
	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("failed to resolve hostname: %w", err)
	}

	if len(ips) == 0 {
		return fmt.Errorf("hostname does not resolve to any IP address")
	}

	for _, ip := range ips {
		if err := g.validateIP(ip); err != nil {
			return fmt.Errorf("IP address %s is not allowed: %w", ip.String(), err)
		}
	}

	return nil
}

// isBlockedHostname checks if a hostname is explicitly blocked
func (g *BaseURLGuard) isBlockedHostname(hostname string) bool {
	hostname = strings.ToLower(hostname)

	localhostVariations := []string{
		"localhost",
		"localhost.localdomain",
		"127.0.0.1",
		"[::1]",
		"::1",
		"0.0.0.0",
	}

	for _, blocked := range localhostVariations {
		if hostname == blocked {
			return !g.allowPrivateIPs
		}
	}

	// Block cloud metadata endpoints regardless of mode
	metadataEndpoints := []string{
		"169.254.169.254", // AWS, Azure, GCP metadata
		"metadata.google.internal",
		"169.254.170.2", // AWS ECS metadata
		"fd00:ec2::254", // AWS IMDSv2 IPv6
	}

	for _, blocked := range metadataEndpoints {
		if hostname == blocked || strings.HasSuffix(hostname, "."+blocked) {
			return true
		}
	}

	return false
}

// validateIP checks if an IP address is allowed
func (g *BaseURLGuard) validateIP(ip net.IP) error {
	if g.allowPrivateIPs {
		return nil
	}

	if g.isPrivateIP(ip) {
		return fmt.Errorf("access to private IP addresses is not allowed")
	}

	if ip.IsLoopback() {
		return fmt.Errorf("access to loopback addresses is not allowed")
	}

	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("access to link-local addresses is not allowed")
	}

	if ip.IsMulticast() {
		return fmt.Errorf("access to multicast addresses is not allowed")
	}

	if ip.IsUnspecified() {
		return fmt.Errorf("access to unspecified addresses is not allowed")
	}

	return nil
}

// isPrivateIP checks if an IP is in a private range
func (g *BaseURLGuard) isPrivateIP(ip net.IP) bool {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16", // Link-local / AWS metadata
		"127.0.0.0/8",    // Loopback
	}

	for _, cidr := range privateRanges {
		_, network, _ := net.ParseCIDR(cidr)
		if network.Contains(ip) {
			return true
		}
	}

	if ip.To4() == nil {
		// IPv6
		privateV6Ranges := []string{
			"fc00::/7",  // Unique local address
			"fe80::/10", // Link-local
			"::1/128",   // Loopback
			"fd00::/8",  // Unique local address (more specific)
		}

		for _, cidr := range privateV6Ranges {
			_, network, _ := net.ParseCIDR(cidr)
			if network.Contains(ip) {
				return true
			}
		}
	}

	return false
}
