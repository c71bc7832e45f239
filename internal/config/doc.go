// Package config loads the bootsel tool configuration.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags (applied by the CLI)
//  2. Environment variables (BOOTSEL_*)
//  3. Configuration file ($XDG_CONFIG_HOME/bootsel/config.yaml or --config)
//  4. Default values
//
// Example config.yaml:
//
//	logging:
//	  level: debug
//	output:
//	  format: json
//	store:
//	  path: /var/lib/bootsel/trace.db
//	module:
//	  dir: ./manifests/app
//	  env:
//	    platform: gecko
//	    locale: en
//
// Environment variables replace dots with underscores, for example
// BOOTSEL_LOGGING_LEVEL=debug. BOOTSEL_MODULE_ENV takes a comma-separated
// list of name=value pairs.
package config
