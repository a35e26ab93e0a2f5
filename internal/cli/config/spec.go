package config

import "time"

// CLIConfig is the configuration for docmesh-cli.
type CLIConfig struct {
	// Server is the default node address, e.g. "http://127.0.0.1:8888".
	Server string `yaml:"server"`

	// Output is the default output format: table, json or yaml.
	Output string `yaml:"output"`

	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout"`

	// Servers maps short names to node addresses so --server can take
	// a name instead of an address.
	Servers map[string]string `yaml:"servers,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://127.0.0.1:8888",
		Output:  "table",
		Timeout: 30 * time.Second,
		Servers: make(map[string]string),
	}
}

// Resolve returns the address for a --server value, expanding names
// found in Servers. An empty value yields the default server.
func (c *CLIConfig) Resolve(server string) string {
	if server == "" {
		return c.Server
	}
	if addr, ok := c.Servers[server]; ok {
		return addr
	}
	return server
}
