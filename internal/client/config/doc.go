// Package config loads runtime configuration for the cryptdrive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Persisted settings from the user's config directory (last server URL,
//     last username, preferred stream buffer size), rewritten on change.
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags, which override everything.
//
// Supported flags
//
//	-a string   base URL of the storage server
//	-u string   username to offer at the login prompt
//	-b int      stream buffer size (1024, 2048, 4096 or 8192 bytes)
//	-d string   local data directory for synced files
package config
