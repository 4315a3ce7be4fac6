// Package discovery advertises and finds projctl control servers on the
// local network using multicast DNS.
//
// A running "projctl serve" registers a "_projctl._tcp" service whose TXT
// records carry the projctl version and the names of the projectors it
// controls. Clients browse for that service type to find servers without
// knowing their addresses.
//
// # Usage Example
//
//	adv, err := discovery.Advertise("lecture-pi", 8470, []string{"hall"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Shutdown()
//
//	endpoints, err := discovery.NewScanner().Scan(ctx)
//	for _, e := range endpoints {
//	    fmt.Printf("Found: %s serving %v\n", e.BaseURL(), e.Projectors)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Servers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
