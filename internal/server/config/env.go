package config

import (
	"strconv"

	"github.com/dmitrijs2005/salesdesk/internal/flagx"
)

// parseEnv overlays the variables used by the hosted deployment:
//
//	DATABASE_URL   PostgreSQL DSN
//	JWT_SECRET     HMAC secret
//	PORT           HTTP port, bound on all interfaces
//	CORS_ORIGIN    allowed origin(s)
//	LOW_STOCK_THRESHOLD
//
// Unset or blank variables leave the current value untouched.
func parseEnv(config *Config) {
	if v, ok := flagx.LookupEnv("DATABASE_URL"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := flagx.LookupEnv("JWT_SECRET"); ok {
		config.SecretKey = v
	}
	if v, ok := flagx.LookupEnv("PORT"); ok {
		config.EndpointAddrHTTP = ":" + v
	}
	if v, ok := flagx.LookupEnv("CORS_ORIGIN"); ok {
		config.CORSOrigins = v
	}
	if v, ok := flagx.LookupEnv("LOW_STOCK_THRESHOLD"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.LowStockThreshold = n
		}
	}
}
