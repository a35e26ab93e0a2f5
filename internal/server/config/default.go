package config

import (
	"time"

	"github.com/yndnr/docmesh-go/internal/storage"
)

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:8888"
	DefaultPeerAddr     = "127.0.0.1:8889"
	DefaultWorkers      = 50
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second

	DefaultStorageBackend = storage.BackendBadger
	DefaultDataDir        = "/var/lib/docmesh/data"
	DefaultPostgresPort   = 5432
	DefaultPostgresSSL    = "disable"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				Workers:      DefaultWorkers,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
			},
			Peer: PeerServerConfig{
				Addr: DefaultPeerAddr,
			},
		},
		Storage: StorageSection{
			Backend: DefaultStorageBackend,
			DataDir: DefaultDataDir,
			Postgres: PostgresConfig{
				Port:    DefaultPostgresPort,
				SSLMode: DefaultPostgresSSL,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
