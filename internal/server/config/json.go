package config

import (
	"encoding/json"
	"os"

	"devfolio/internal/flagx"
	"devfolio/internal/timex"
)

// jsonConfig is an intermediate DTO for reading JSON configuration files.
// Interval fields use timex.Duration so both "15m" and integer nanoseconds
// parse. Pointer fields distinguish "absent" from "zero".
type jsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	RedisAddr                    *string         `json:"redis_addr"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	OIDCProvider                 *string         `json:"oidc_provider"`
	OIDCIssuerURL                *string         `json:"oidc_issuer_url"`
	OIDCClientID                 *string         `json:"oidc_client_id"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
	PresenceTTL                  *timex.Duration `json:"presence_ttl"`
}

// parseJSON loads configuration values from the JSON file given via the
// -c/-config flags, if any. Missing file path means no overlay. A file that
// cannot be read or parsed panics: a requested but broken config file is a
// startup error, not something to run past.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.EndpointAddrHTTP, jc.EndpointAddrHTTP)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.OIDCProvider, jc.OIDCProvider)
	setString(&cfg.OIDCIssuerURL, jc.OIDCIssuerURL)
	setString(&cfg.OIDCClientID, jc.OIDCClientID)
	setString(&cfg.S3RootUser, jc.S3RootUser)
	setString(&cfg.S3RootPassword, jc.S3RootPassword)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)

	if jc.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RefreshTokenValidityDuration != nil {
		cfg.RefreshTokenValidityDuration = jc.RefreshTokenValidityDuration.Duration
	}
	if jc.PresenceTTL != nil {
		cfg.PresenceTTL = jc.PresenceTTL.Duration
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
