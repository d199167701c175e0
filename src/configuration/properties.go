package configuration

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Properties struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"DEBUG"`

		Auth   AuthProperties       `envPrefix:"AUTH_"`
		S3     S3Properties         `envPrefix:"S3_"`
		Server HttpServerProperties `envPrefix:"HTTP_"`
		Gemini GeminiProperties     `envPrefix:"GEMINI_"`
	}

	AuthProperties struct {
		Host              string `env:"HOST"`
		ID                string `env:"ID"`
		IDTokenCookieName string `env:"ID_COOKIE" envDefault:"thumbly_id_token"`
		DemoMode          bool   `env:"DEMO_MODE" envDefault:"false"`
		DemoUserID        string `env:"DEMO_USER" envDefault:"demo-user"`
		AppEnv            string `env:"APP_ENV" envDefault:"development"`
	}

	HttpServerProperties struct {
		Port           string        `env:"PORT" envDefault:"8088"`
		AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
		ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	}

	S3Properties struct {
		Host        string        `env:"HOST" envDefault:"localhost:9000"`
		AccessKey   string        `env:"ACCESS_KEY"`
		SecretKey   string        `env:"SECRET_KEY"`
		Bucket      string        `env:"BUCKET" envDefault:"thumbnails"`
		UseSSL      bool          `env:"USE_SSL" envDefault:"false"`
		ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	}

	GeminiProperties struct {
		Host    string        `env:"HOST" envDefault:"https://generativelanguage.googleapis.com"`
		APIKey  string        `env:"API_KEY"`
		Model   string        `env:"MODEL" envDefault:"gemini-2.5-flash"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
	}
)

// DemoEnabled reports whether the identity resolver should substitute the
// demo identity: either the explicit flag, or any non-production environment.
func (a AuthProperties) DemoEnabled() bool {
	return a.DemoMode || a.AppEnv != "production"
}

func ReadProperties() *Properties {
	config := &Properties{}

	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("read config error: %w", err))
	}
	return config
}
