package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Endpoint represents a projctl control server found on the network
type Endpoint struct {
	// Instance is the advertised service instance name (usually the host name)
	Instance string

	// Hostname is the mDNS hostname (e.g., "lecture-pi.local.")
	Hostname string

	// IP is the preferred address (IPv4 when available)
	IP string

	// Port is the HTTP port of the control server
	Port int

	// Version is the projctl version of the server
	Version string

	// Projectors lists the projector names the server controls
	Projectors []string

	// Metadata contains the raw mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("projctl %s (%s) at %s", e.Instance, e.Version, net.JoinHostPort(e.IP, strconv.Itoa(e.Port)))
}

// BaseURL returns the HTTP base URL for the control server
func (e *Endpoint) BaseURL() string {
	return "http://" + net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
