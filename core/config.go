package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		AppName  string

		SecretKey        string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		RollbarToken     string

		// DefaulterThreshold is the default cut-off percentage below which a
		// student is reported as a defaulter. Callers may override it per report.
		DefaulterThreshold float64

		Admin      AdminConfig
		DangerZone DangerZoneConfig
		Server     ServerConfig
		Database   DatabaseConfig
		Cache      CacheConfig
	}

	AdminConfig struct {
		Username string
		Password string
	}

	DangerZoneConfig struct {
		// Password guards the irreversible bulk-delete operations.
		// When empty, the danger zone is disabled entirely.
		Password string
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugAddr                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ConfirmTokenTimeout       time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	CacheConfig struct {
		// Backend is either "memory" (default) or "redis".
		Backend       string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "SGU Attendance")
	conf.SetDefault("secretKey", "+p3)f8gm$0^s7=p&v#5bw(r!x2@-dzqe9u4yjh6k_1c%nlot5i")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("defaulterThreshold", 75.0)

	conf.SetDefault("admin.username", "admin")
	conf.SetDefault("admin.password", "")
	conf.SetDefault("dangerZone.password", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.addr", ":8000")
	conf.SetDefault("server.debugAddr", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("server.confirmTokenTimeout", 5*time.Minute)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.name", "attendance")
	conf.SetDefault("database.user", "attendance")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("cache.backend", "memory")
	conf.SetDefault("cache.redisAddr", "localhost:6379")
	conf.SetDefault("cache.redisPassword", "")
	conf.SetDefault("cache.redisDB", 0)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:              conf.GetBool("debug"),
		TestMode:           conf.GetBool("testMode"),
		Env:                env,
		Build:              conf.GetString("build"),
		AppName:            conf.GetString("appName"),
		SecretKey:          conf.GetString("secretKey"),
		DefaultFromEmail:   mail.Address{Address: conf.GetString("defaultFromEmail")},
		SendgridAPIKey:     conf.GetString("sendgridApiKey"),
		RollbarToken:       conf.GetString("rollbarToken"),
		DefaulterThreshold: conf.GetFloat64("defaulterThreshold"),
		Admin: AdminConfig{
			Username: conf.GetString("admin.username"),
			Password: conf.GetString("admin.password"),
		},
		DangerZone: DangerZoneConfig{
			Password: conf.GetString("dangerZone.password"),
		},
		Server: ServerConfig{
			Host:                      conf.GetString("server.host"),
			Addr:                      conf.GetString("server.addr"),
			DebugAddr:                 conf.GetString("server.debugAddr"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
			ConfirmTokenTimeout:       conf.GetDuration("server.confirmTokenTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Cache: CacheConfig{
			Backend:       conf.GetString("cache.backend"),
			RedisAddr:     conf.GetString("cache.redisAddr"),
			RedisPassword: conf.GetString("cache.redisPassword"),
			RedisDB:       conf.GetInt("cache.redisDB"),
		},
	}
}
