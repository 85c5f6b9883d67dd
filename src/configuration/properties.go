package configuration

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Properties struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"DEBUG"`

		DB     DBProperties         `envPrefix:"DB_"`
		Auth   AuthProperties       `envPrefix:"AUTH_"`
		S3     S3Properties         `envPrefix:"S3_"`
		Server HttpServerProperties `envPrefix:"HTTP_"`
	}

	// AuthProperties selects and configures the identity provider.
	// Mode "local" issues HS256 tokens itself; mode "oidc" verifies
	// tokens against an external issuer.
	AuthProperties struct {
		Mode      string        `env:"MODE" envDefault:"local"`
		JWTSecret string        `env:"JWT_SECRET" envDefault:"plantserv-dev-secret"`
		TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
		OIDCHost  string        `env:"OIDC_HOST"`
		OIDCID    string        `env:"OIDC_ID"`
	}

	HttpServerProperties struct {
		Port        string        `env:"PORT" envDefault:"8088"`
		ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		CORSOrigins []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	S3Properties struct {
		Host      string        `env:"HOST" envDefault:"localhost:9000"`
		AccessKey string        `env:"ACCESS_KEY"`
		SecretKey string        `env:"SECRET_KEY"`
		Bucket    string        `env:"BUCKET" envDefault:"plant-images"`
		UseSSL    bool          `env:"USE_SSL" envDefault:"false"`
		URLExpiry time.Duration `env:"URL_EXPIRY" envDefault:"168h"`
	}

	// DBProperties points the key-value store at a sqlite file.
	// An empty path keeps everything in memory.
	DBProperties struct {
		Path string `env:"PATH"`
	}
)

func ReadProperties() *Properties {
	config := &Properties{}

	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("read config error: %w", err))
	}
	return config
}
