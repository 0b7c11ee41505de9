// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. Both the API server
// and the consumer process read the same Config, so the broker queue
// parameters and cache key TTL cannot drift between them.
package config
