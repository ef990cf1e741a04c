// Package config loads runtime configuration for the blog client and the
// migration tool.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables with the BLOG_ prefix. A dotenv file is loaded
//     first: the one given with -e/-env, or ./.env when present. Variables
//     already set in the process environment are not overridden by it.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-s string   base URL of the content store
//	-d string   DSN of the local state database (sqlite path or postgres:// URL)
//	-t int      request timeout in seconds (0 disables)
//	-f string   file URL backend: "store" or "s3"
//
// # JSON schema
//
// Durations use timex.Duration, so "15s" and integer nanoseconds both work:
//
//	{
//	  "store_url": "https://blog.example.com",
//	  "state_dsn": "blog.db",
//	  "request_timeout": "15s",
//	  "files_backend": "s3",
//	  "s3": {"bucket": "blog-files", "region": "eu-central-1", "presign_expiry": "10m"}
//	}
package config
