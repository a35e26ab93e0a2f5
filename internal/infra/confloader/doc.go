// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that supports multiple
// sources using koanf as the underlying library.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables
//  3. Configuration file (YAML)
//  4. Default values already present in the target struct
//
// Environment variables use a double underscore between levels so keys
// that contain an underscore survive the mapping:
//
//	DOCMESH_STORAGE__DATA_DIR=/srv/docs  ->  storage.data_dir
//	DOCMESH_SERVER__HTTP__WORKERS=8       ->  server.http.workers
//
// A Watcher reports writes to the configuration file so a running node can
// reload the settings that are safe to change live.
package confloader
