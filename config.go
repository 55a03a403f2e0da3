package main

import (
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

const (
	// Lobby configuration
	MaxPlayers     = 16
	LobbyCodeLen   = 4
	StaleAfterSecs = 10 // presence older than this is evicted on the next sweep

	// Combat configuration
	LockAngleDeg  = 18.0 // max bearing deviation for a shot to register
	DefaultRangeM = 40.0 // weapon range when the client omits one
	EarthRadiusM  = 6371000.0

	// Zone bucketing
	ZoneRings = 9

	// Network
	WriteChannelSize = 64
	WriteWait        = 10 // seconds
	PongWait         = 60 // seconds
	PingInterval     = 25 // seconds
	MaxMessageBytes  = 4096
)

// LobbyCodeChars is the alphabet lobby codes are drawn from.
const LobbyCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Config holds environment variable configuration for the server process.
type Config struct {
	Port      int    `env:"PORT" envDefault:"8000"`
	Host      string `env:"HOST" envDefault:"0.0.0.0"`
	Discovery bool   `env:"DISCOVERY" envDefault:"true"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig parses the process environment into a Config.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse environment variables")
	}
	return cfg, nil
}
