// Package config handles YAML job configuration with environment variable
// substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. A config file is optional: cmd/merger can assemble the same
// structure from flags and call Finalize directly.
package config
