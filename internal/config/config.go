// Package config exposes the process-wide settings resolved through viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// LookupTimeout is the overall deadline for one first-to-respond lookup
	LookupTimeout time.Duration
	// PoolSize caps concurrent provider requests per lookup manager
	PoolSize int
	// BulkConcurrency caps how many keys a bulk lookup resolves at once
	BulkConcurrency int
	// UserAgent is the User-Agent header sent to every provider
	UserAgent string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("lookup.timeout", "10s")
	viper.SetDefault("lookup.pool_size", 5)
	viper.SetDefault("lookup.bulk_concurrency", 4)
	viper.SetDefault("http.user_agent", "cadastro/1.0")

	// Get values from viper
	LookupTimeout = viper.GetDuration("lookup.timeout")
	PoolSize = viper.GetInt("lookup.pool_size")
	BulkConcurrency = viper.GetInt("lookup.bulk_concurrency")
	UserAgent = viper.GetString("http.user_agent")
}

// SetPoolSize sets the PoolSize global, ignoring non-positive values
func SetPoolSize(size int) {
	if size > 0 {
		PoolSize = size
	}
}
