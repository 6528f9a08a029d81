package net

import (
	"context"
	"fmt"
	"log/slog"
	stdnet "net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service drawboard servers advertise.
const ServiceType = "_drawboard._tcp"

const DefaultBrowseTimeout = 2 * time.Second

// Server is a drawboard server found on the local network.
type Server struct {
	Instance string
	Host     string
	Addr     string
	Port     int
}

// URL returns a drawboard:// link for the server.
func (s Server) URL() string {
	u := url.URL{Scheme: LinkScheme, Host: s.HostPort()}
	return u.String()
}

func (s Server) HostPort() string {
	return stdnet.JoinHostPort(s.Addr, strconv.Itoa(s.Port))
}

// Browse queries the local network for drawboard servers for up to timeout.
// Entries without an address or port are dropped; duplicates are merged.
func Browse(ctx context.Context, timeout time.Duration, logger *slog.Logger) ([]Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	var (
		mu      sync.Mutex
		servers []Server
		seen    = map[string]bool{}
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range entries {
			srv, ok := serverFromEntry(e)
			if !ok {
				logger.Debug("Ignoring incomplete mDNS entry", "name", e.Name)
				continue
			}
			mu.Lock()
			if !seen[srv.HostPort()] {
				seen[srv.HostPort()] = true
				servers = append(servers, srv)
				logger.Debug("Found drawboard server", "instance", srv.Instance, "addr", srv.HostPort())
			}
			mu.Unlock()
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	wg.Wait()

	if err != nil {
		return nil, fmt.Errorf("mdns query %s: %w", ServiceType, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return servers, nil
}

func serverFromEntry(e *mdns.ServiceEntry) (Server, bool) {
	if e == nil || e.Port == 0 {
		return Server{}, false
	}
	addr := e.AddrV4
	if addr == nil {
		addr = e.Addr
	}
	if addr == nil {
		return Server{}, false
	}
	instance := strings.TrimSuffix(e.Name, "."+ServiceType+".local.")
	return Server{
		Instance: instance,
		Host:     strings.TrimSuffix(e.Host, "."),
		Addr:     addr.String(),
		Port:     e.Port,
	}, true
}
