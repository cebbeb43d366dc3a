// Package config provides configuration for the detection and parsing
// pipeline. It loads settings from multiple sources, validates them,
// and hands the format handlers a single typed Config.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. An optional labdata.yml in the working directory
//	3. Struct tag defaults (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern LABDATA_* for
// namespacing:
//
//	LABDATA_DETECTION_SCAN_ROWS=15
//	LABDATA_DETECTION_SCAN_BYTES=65536
//	LABDATA_PARSING_HEADER_SEARCH_ROWS=30
//	LABDATA_LOGGING_LEVEL=info
//	LABDATA_LOGGING_FORMAT=text
//
// # Usage
//
// Load configuration once at startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Library code that receives no configuration falls back to
// config.Default(), which needs no environment or files and is safe in
// tests.
package config
