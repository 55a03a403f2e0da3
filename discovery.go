package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog"
)

// Advertiser announces the server on the local network so nearby clients
// can find a lobby host without typing an address. Failures are logged and
// never affect startup or shutdown.
type Advertiser interface {
	Start(port int) error
	Stop()
}

// NewAdvertiser returns the mDNS advertiser when enabled, otherwise a
// no-op.
func NewAdvertiser(enabled bool, log zerolog.Logger) Advertiser {
	if !enabled {
		return noopAdvertiser{}
	}
	return &mdnsAdvertiser{log: log.With().Str("component", "discovery").Logger()}
}

type mdnsAdvertiser struct {
	log    zerolog.Logger
	server *zeroconf.Server
}

func (a *mdnsAdvertiser) Start(port int) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if i := strings.IndexByte(hostname, '.'); i >= 0 {
		hostname = hostname[:i]
	}
	instance := fmt.Sprintf("guttertheory-backend-%s", hostname)

	server, err := zeroconf.Register(instance, "_guttertheory._tcp", "local.", port, []string{"app=guttertheory"}, nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("mdns registration failed, continuing without discovery")
		return err
	}
	a.server = server
	a.log.Info().Str("instance", instance).Int("port", port).Msg("advertising on local network")
	return nil
}

func (a *mdnsAdvertiser) Stop() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

type noopAdvertiser struct{}

func (noopAdvertiser) Start(int) error { return nil }
func (noopAdvertiser) Stop()           {}
