package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/salesdesk/internal/flagx"
	"github.com/dmitrijs2005/salesdesk/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Interval
// fields use timex.Duration so both "15m" and integer nanoseconds parse.
// Pointer fields distinguish "absent" from a zero value.
type JsonConfig struct {
	EndpointAddrHTTP             string          `json:"endpoint_addr_http"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	CORSOrigins                  string          `json:"cors_origins"`
	LowStockThreshold            *int            `json:"low_stock_threshold"`
	ExportDir                    string          `json:"export_dir"`
	S3Enabled                    *bool           `json:"s3_enabled"`
	S3RootUser                   string          `json:"s3_root_user"`
	S3RootPassword               string          `json:"s3_root_password"`
	S3Bucket                     string          `json:"s3_bucket"`
	S3Region                     string          `json:"s3_region"`
	S3BaseEndpoint               string          `json:"s3_base_endpoint"`
	ExportLinkValidityDuration   *timex.Duration `json:"export_link_validity_duration"`
}

// parseJson loads the file named by -c/-config (if any) into config.
// Only keys present in the file override the current values. A file that
// cannot be read or parsed panics, as misconfiguration should stop startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	setString(&config.CORSOrigins, c.CORSOrigins)
	if c.LowStockThreshold != nil {
		config.LowStockThreshold = *c.LowStockThreshold
	}
	setString(&config.ExportDir, c.ExportDir)
	if c.S3Enabled != nil {
		config.S3Enabled = *c.S3Enabled
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.ExportLinkValidityDuration != nil {
		config.ExportLinkValidityDuration = c.ExportLinkValidityDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
