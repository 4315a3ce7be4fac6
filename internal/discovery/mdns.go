package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/version"
)

const (
	// ServiceType is the mDNS service type advertised by projctl serve
	ServiceType = "_projctl._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 5 * time.Second

	// TXT record keys
	txtVersion    = "version"
	txtProjectors = "projectors"
)

// Advertisement is a registered mDNS service.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers a control server on the local network until Shutdown
// is called.
func Advertise(instance string, port int, projectors []string) (*Advertisement, error) {
	txt := TXTRecords(projectors)
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising control server",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", txt),
	)
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// TXTRecords builds the TXT records advertised for a server.
func TXTRecords(projectors []string) []string {
	return []string{
		txtVersion + "=" + version.Version,
		txtProjectors + "=" + strings.Join(projectors, ","),
	}
}

// Scanner handles mDNS discovery of control servers
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for control servers until the timeout or ctx expires.
func (s *Scanner) Scan(ctx context.Context) ([]*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu        sync.Mutex
		endpoints = make([]*Endpoint, 0)
		seen      = make(map[string]bool)
		collected = make(chan struct{})
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(collected)
		for entry := range entries {
			endpoint := parseServiceEntry(entry)
			if endpoint == nil {
				continue
			}
			mu.Lock()
			if !seen[endpoint.Instance] {
				seen[endpoint.Instance] = true
				endpoints = append(endpoints, endpoint)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()

	// The resolver closes entries once browsing stops
	select {
	case <-collected:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]*Endpoint(nil), endpoints...), nil
}

// WaitFor waits for a specific server instance.
func (s *Scanner) WaitFor(ctx context.Context, instance string) (*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Endpoint, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			endpoint := parseServiceEntry(entry)
			if endpoint != nil && endpoint.Instance == instance {
				select {
				case found <- endpoint:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case endpoint := <-found:
		return endpoint, nil
	case <-ctx.Done():
		// The match may have landed just as the context was cancelled
		select {
		case endpoint := <-found:
			return endpoint, nil
		default:
		}
		return nil, fmt.Errorf("control server %s not found within %s", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Endpoint
// Returns nil if the entry has no usable address
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Endpoint {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	var projectors []string
	if list := metadata[txtProjectors]; list != "" {
		projectors = strings.Split(list, ",")
	}

	return &Endpoint{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Version:      metadata[txtVersion],
		Projectors:   projectors,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
