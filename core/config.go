package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		CORSOrigins        []string
		AuthRateLimit      string
		JWTExpirationDelta time.Duration // 0: sessions never expire
	}

	FeedConfig struct {
		URL           string
		Format        string // csv | xlsx
		Sheet         string
		Timeout       time.Duration
		StrictHeaders bool
	}

	OverridesConfig struct {
		Backend string // postgres | redis | memory
		Timeout time.Duration
	}

	StaticAccount struct {
		Username     string `mapstructure:"username"`
		PasswordHash string `mapstructure:"passwordHash"`
		SDO          string `mapstructure:"sdo"`
		SchoolName   string `mapstructure:"schoolName"`
		Email        string `mapstructure:"email"`
	}

	AuthConfig struct {
		Backends []string
		Admins   []StaticAccount
		Timeout  time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	InsightsConfig struct {
		APIKey string
		Model  string
	}

	ClientConfig struct {
		APIURL      string
		SessionFile string
		Timeout     time.Duration
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		SecretKey    string
		RollbarToken string

		Server    ServerConfig
		Feed      FeedConfig
		Overrides OverridesConfig
		Auth      AuthConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		Insights  InsightsConfig
		Client    ClientConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	if dbc.Port == "" {
		return dbc.Host
	}
	return dbc.Host + ":" + dbc.Port
}

func newViper() (*viper.Viper, string) {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "TAP Monitor")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "k3x!9q-ftad_t@p-m0n1t0r+z2r8$w^p7c(e)v0b")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 10*time.Second)
	conf.SetDefault("server.corsOrigins", []string{"*"})
	conf.SetDefault("server.authRateLimit", "20-M")
	conf.SetDefault("server.jwtExpirationDelta", time.Duration(0))

	conf.SetDefault("feed.url", "")
	conf.SetDefault("feed.format", "csv")
	conf.SetDefault("feed.sheet", "")
	conf.SetDefault("feed.timeout", 15*time.Second)
	conf.SetDefault("feed.strictHeaders", false)

	conf.SetDefault("overrides.backend", "postgres")
	conf.SetDefault("overrides.timeout", 8*time.Second)

	conf.SetDefault("auth.backends", []string{"static", "postgres", "redis"})
	conf.SetDefault("auth.timeout", 8*time.Second)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "tapmonitor")
	conf.SetDefault("database.user", "postgres")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("redis.addr", "localhost:6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)
	conf.SetDefault("redis.prefix", "ftad")

	conf.SetDefault("insights.apiKey", "")
	conf.SetDefault("insights.model", "gemini-2.5-pro")

	home, _ := os.UserHomeDir()
	conf.SetDefault("client.apiURL", "http://localhost:8000")
	conf.SetDefault("client.sessionFile", filepath.Join(home, ".config", "tapmonitor", "session.json"))
	conf.SetDefault("client.timeout", 15*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return conf, env
}

// NewConfig reads the configuration from defaults, the optional config/.env.<env> file and the environment.
// Environment keys are prefixed with the upper-cased ENV and use "_" as separator: DEV_FEED_URL, PROD_SERVER_HOST...
func NewConfig() *Config {
	v, env := newViper()
	return configFrom(v, env)
}

func configFrom(v *viper.Viper, env string) *Config {
	conf := &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			CORSOrigins:        v.GetStringSlice("server.corsOrigins"),
			AuthRateLimit:      v.GetString("server.authRateLimit"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Feed: FeedConfig{
			URL:           v.GetString("feed.url"),
			Format:        strings.ToLower(v.GetString("feed.format")),
			Sheet:         v.GetString("feed.sheet"),
			Timeout:       v.GetDuration("feed.timeout"),
			StrictHeaders: v.GetBool("feed.strictHeaders"),
		},
		Overrides: OverridesConfig{
			Backend: strings.ToLower(v.GetString("overrides.backend")),
			Timeout: v.GetDuration("overrides.timeout"),
		},
		Auth: AuthConfig{
			Backends: v.GetStringSlice("auth.backends"),
			Timeout:  v.GetDuration("auth.timeout"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
		},
		Insights: InsightsConfig{
			APIKey: v.GetString("insights.apiKey"),
			Model:  v.GetString("insights.model"),
		},
		Client: ClientConfig{
			APIURL:      v.GetString("client.apiURL"),
			SessionFile: v.GetString("client.sessionFile"),
			Timeout:     v.GetDuration("client.timeout"),
		},
	}
	if err := v.UnmarshalKey("auth.admins", &conf.Auth.Admins); err != nil {
		log.Fatalf("config.UnmarshalKey(auth.admins): %v", err)
	}
	return conf
}
