package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/yndnr/docmesh-go/internal/core/service"
	"github.com/yndnr/docmesh-go/internal/storage"
)

// Verify validates the configuration. backends is consulted so an unknown
// storage backend is rejected before anything is opened.
func Verify(cfg *ServerConfig, backends *storage.Registry) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage, backends); err != nil {
		return err
	}
	if err := verifyPeers(cfg.Peers); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		return err
	}
	if cfg.HTTP.Workers < 1 {
		return errors.New("server.http.workers must be at least 1")
	}
	if cfg.HTTP.MaxQueue < 0 {
		return errors.New("server.http.max_queue must not be negative")
	}
	if cfg.HTTP.AcceptRate < 0 {
		return errors.New("server.http.accept_rate must not be negative")
	}
	if cfg.HTTP.ReadTimeout < 0 || cfg.HTTP.WriteTimeout < 0 {
		return errors.New("server.http timeouts must not be negative")
	}

	if cfg.Peer.Addr == "" {
		return nil
	}
	if err := verifyAddr("server.peer.addr", cfg.Peer.Addr); err != nil {
		return err
	}
	if cfg.Peer.Addr == cfg.HTTP.Addr {
		return fmt.Errorf("server.peer.addr conflicts with server.http.addr (%s)", cfg.Peer.Addr)
	}
	return nil
}

func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s %q: %w", field, addr, err)
	}
	return nil
}

func verifyStorage(cfg *StorageSection, backends *storage.Registry) error {
	if backends == nil {
		backends = storage.NewRegistry()
	}
	if !backends.Has(cfg.Backend) {
		return fmt.Errorf("storage.backend %q is unknown (known: %s)",
			cfg.Backend, strings.Join(backends.Names(), ", "))
	}

	switch cfg.Backend {
	case storage.BackendBadger, storage.BackendBolt:
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required")
		}
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return errors.New("cannot create data directory: " + err.Error())
		}
	case storage.BackendPostgres:
		if cfg.Postgres.DSN != "" {
			return nil
		}
		if cfg.Postgres.Host == "" {
			return errors.New("storage.postgres.host is required")
		}
		if cfg.Postgres.Database == "" {
			return errors.New("storage.postgres.database is required")
		}
		if cfg.Postgres.Port < 0 || cfg.Postgres.Port > 65535 {
			return fmt.Errorf("storage.postgres.port %d is out of range", cfg.Postgres.Port)
		}
	}
	return nil
}

func verifyPeers(peers []PeerConfig) error {
	names := make(map[string]struct{}, len(peers))
	addrs := make(map[string]struct{}, len(peers))
	for i, p := range peers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("peers[%d].name is required", i)
		}
		if p.Name == service.LocalSourceName {
			return fmt.Errorf("peers[%d].name %q is reserved for the local listing", i, p.Name)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("peers[%d].name %q is duplicated", i, p.Name)
		}
		names[p.Name] = struct{}{}

		u, err := url.Parse(p.Address)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("peers[%d].address %q must be an http(s) URL", i, p.Address)
		}
		if _, dup := addrs[p.Address]; dup {
			return fmt.Errorf("peers[%d].address %q is duplicated", i, p.Address)
		}
		addrs[p.Address] = struct{}{}

		if p.Timeout < 0 {
			return fmt.Errorf("peers[%d].timeout must not be negative", i)
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", cfg.Format)
	}
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is invalid", cfg.Level)
	}
	return nil
}
