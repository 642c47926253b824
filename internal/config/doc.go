// Package config handles configuration loading for mcp-sse-adapter.
//
// # Overview
//
// The adapter runs without any configuration file; Default returns a working
// configuration. A file, when present, overrides individual keys and the
// environment overrides the file.
//
// # Configuration File
//
// Located via the MCP_SSE_CONFIG environment variable, falling back to
// ~/.config/mcp-sse-adapter/config.yaml. Files ending in .toml are parsed as
// TOML, everything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	tailscale:
//	  auth_key: "${TS_AUTHKEY}"
//
// # Environment Overrides
//
//	PORT             replaces the port of server.http_addr
//	LOG_LEVEL        logging.level
//	LOG_FORMAT       logging.format
//	MCP_SSE_DB_PATH  database.path
//
// # Example
//
//	server:
//	  http_addr: ":8787"
//	  name: "mcp-sse-adapter"
//	  ping_interval: "15s"
//	  write_timeout: "10s"
//
//	database:
//	  driver: "sqlite"
//	  path: "/var/lib/mcp-sse-adapter/audit.db"
//
//	logging:
//	  level: "info"
//	  format: "text"
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
package config
