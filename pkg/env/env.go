// Package env reads individual environment variables for the few spots
// that need a value before the envconfig-backed config is loaded, such
// as picking the logger format at process start.
package env

import "os"

// Get returns the value of key, or fallback when the variable is unset
// or empty. An empty value is treated as unset on purpose: a blank
// LOG_FORMAT should still mean json.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
