package config

import (
	"time"

	"github.com/yndnr/docmesh-go/internal/peer"
	"github.com/yndnr/docmesh-go/internal/server/httpserver"
	"github.com/yndnr/docmesh-go/internal/server/peerserver"
	"github.com/yndnr/docmesh-go/internal/storage"
)

// ServerConfig is the root configuration for docmesh-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Peers   []PeerConfig   `koanf:"peers"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig       `koanf:"http"`
	Peer PeerServerConfig `koanf:"peer"`
}

// HTTPConfig configures the document HTTP engine.
type HTTPConfig struct {
	Addr string `koanf:"addr"`

	// Workers is the number of connection handlers.
	Workers int `koanf:"workers"`

	// MaxQueue caps accepted connections waiting for a worker.
	// 0 means unbounded.
	MaxQueue int `koanf:"max_queue"`

	// AcceptRate caps accepted connections per second. 0 disables it.
	AcceptRate float64 `koanf:"accept_rate"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// PeerServerConfig configures this node's peer RPC endpoint.
type PeerServerConfig struct {
	// Addr is the listen address. Empty disables the peer server.
	Addr string `koanf:"addr"`
}

// StorageSection configures the document store backend.
type StorageSection struct {
	// Backend is one of the names in the storage registry.
	Backend  string         `koanf:"backend"`
	DataDir  string         `koanf:"data_dir"`
	Postgres PostgresConfig `koanf:"postgres"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	SSLMode  string `koanf:"ssl_mode"`
	DSN      string `koanf:"dsn"`
}

// PeerConfig describes one remote node.
type PeerConfig struct {
	Name    string        `koanf:"name"`
	Address string        `koanf:"address"`
	Timeout time.Duration `koanf:"timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// HTTPServerConfig converts the section into the engine's Config.
func (c *ServerConfig) HTTPServerConfig() *httpserver.Config {
	h := c.Server.HTTP
	return &httpserver.Config{
		Addr:         h.Addr,
		Workers:      h.Workers,
		MaxQueue:     h.MaxQueue,
		AcceptRate:   h.AcceptRate,
		ReadTimeout:  h.ReadTimeout,
		WriteTimeout: h.WriteTimeout,
	}
}

// PeerServerConfig converts the section into the peer server's Config.
func (c *ServerConfig) PeerServerConfig() peerserver.Config {
	return peerserver.Config{Addr: c.Server.Peer.Addr}
}

// StorageOptions converts the section into backend Options.
func (c *ServerConfig) StorageOptions() storage.Options {
	pg := c.Storage.Postgres
	badger := storage.DefaultBadgerConfig()
	return storage.Options{
		DataDir: c.Storage.DataDir,
		Badger:  badger,
		Postgres: storage.PostgresConfig{
			Host:     pg.Host,
			Port:     pg.Port,
			User:     pg.User,
			Password: pg.Password,
			Database: pg.Database,
			SSLMode:  pg.SSLMode,
			DSN:      pg.DSN,
		},
	}
}

// PeerServers converts the peer list, in configuration order.
func (c *ServerConfig) PeerServers() []peer.Server {
	servers := make([]peer.Server, 0, len(c.Peers))
	for _, p := range c.Peers {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = peer.DefaultTimeout
		}
		servers = append(servers, peer.Server{
			Name:    p.Name,
			Address: p.Address,
			Timeout: timeout,
		})
	}
	return servers
}
