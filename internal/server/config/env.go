package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envOverlay mirrors Config with pointer fields so only variables actually
// set in the environment overlay the current values. Variables are prefixed
// DEVFOLIO_, e.g. DEVFOLIO_DATABASE_DSN.
type envOverlay struct {
	EndpointAddrHTTP             *string        `envconfig:"ENDPOINT_ADDR_HTTP"`
	DatabaseDSN                  *string        `envconfig:"DATABASE_DSN"`
	RedisAddr                    *string        `envconfig:"REDIS_ADDR"`
	SecretKey                    *string        `envconfig:"SECRET_KEY"`
	AccessTokenValidityDuration  *time.Duration `envconfig:"ACCESS_TOKEN_VALIDITY"`
	RefreshTokenValidityDuration *time.Duration `envconfig:"REFRESH_TOKEN_VALIDITY"`
	OIDCProvider                 *string        `envconfig:"OIDC_PROVIDER"`
	OIDCIssuerURL                *string        `envconfig:"OIDC_ISSUER_URL"`
	OIDCClientID                 *string        `envconfig:"OIDC_CLIENT_ID"`
	S3RootUser                   *string        `envconfig:"S3_ROOT_USER"`
	S3RootPassword               *string        `envconfig:"S3_ROOT_PASSWORD"`
	S3Bucket                     *string        `envconfig:"S3_BUCKET"`
	S3Region                     *string        `envconfig:"S3_REGION"`
	S3BaseEndpoint               *string        `envconfig:"S3_BASE_ENDPOINT"`
	PresenceTTL                  *time.Duration `envconfig:"PRESENCE_TTL"`
}

func parseEnv(cfg *Config) {
	var env envOverlay
	if err := envconfig.Process("devfolio", &env); err != nil {
		panic(err)
	}

	setString(&cfg.EndpointAddrHTTP, env.EndpointAddrHTTP)
	setString(&cfg.DatabaseDSN, env.DatabaseDSN)
	setString(&cfg.RedisAddr, env.RedisAddr)
	setString(&cfg.SecretKey, env.SecretKey)
	setString(&cfg.OIDCProvider, env.OIDCProvider)
	setString(&cfg.OIDCIssuerURL, env.OIDCIssuerURL)
	setString(&cfg.OIDCClientID, env.OIDCClientID)
	setString(&cfg.S3RootUser, env.S3RootUser)
	setString(&cfg.S3RootPassword, env.S3RootPassword)
	setString(&cfg.S3Bucket, env.S3Bucket)
	setString(&cfg.S3Region, env.S3Region)
	setString(&cfg.S3BaseEndpoint, env.S3BaseEndpoint)

	if env.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = *env.AccessTokenValidityDuration
	}
	if env.RefreshTokenValidityDuration != nil {
		cfg.RefreshTokenValidityDuration = *env.RefreshTokenValidityDuration
	}
	if env.PresenceTTL != nil {
		cfg.PresenceTTL = *env.PresenceTTL
	}
}
