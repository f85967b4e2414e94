package config

import (
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/kylinpoet/song-for-guoxi/internal/logx"
)

var configLogger = logx.GetScope("config")

// Built-in defaults for the church configuration row seeded on first run.
const (
	DefaultChurchName    = "郭溪教会"
	DefaultAdminPassword = "222221"
)

// Config holds the application configuration
type Config struct {
	AppEnv string
	Server struct {
		Addr        string
		BodyLimitMB int
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // text, json
	}
	DB struct {
		Driver       string // sqlite | postgres
		URL          string
		MaxOpenConns int
		MaxIdleConns int
	}
	Church struct {
		Name          string
		AdminPassword string
	}
	Admin struct {
		// Token is the shared secret issued as the admin_token cookie.
		Token string
	}
	Storage struct {
		Endpoint   string
		Bucket     string
		AccessKey  string
		SecretKey  string
		Region     string
		UseSSL     bool
		PublicBase string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		TTLSec   int
	}
	MQ struct {
		URL      string // RabbitMQ URL
		Exchange string
	}
	ES struct {
		Addrs    string // comma separated
		Username string
		Password string
		Index    string
	}
	Apollo struct {
		Enable    bool
		AppID     string
		Cluster   string
		Namespace string
		Addrs     string
		AccessKey string
	}
}

// Load loads config from env, and if enabled, overrides with Apollo values.
// Returns config, store, optional apollo closer, and error.
func Load() (*Config, *Store, func(), error) {
	cfg := FromEnv()
	store := NewStore(cfg)

	if cfg.Apollo.Enable {
		closer, err := overrideFromApollo(cfg, store)
		if err != nil {
			configLogger.Sugar().Errorf("apollo override failed: %v", err)
			return cfg, store, closer, err
		}
		return cfg, store, closer, nil
	}

	return cfg, store, nil, nil
}

// FromEnv builds a Config from environment variables and defaults only.
func FromEnv() *Config {
	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Server.Addr = getEnv("SERVER_ADDR", ":8080")
	cfg.Server.BodyLimitMB = getInt("SERVER_BODY_LIMIT_MB", 50)
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "text")

	cfg.DB.Driver = getEnv("DB_DRIVER", "sqlite")
	cfg.DB.URL = getEnv("DB_URL", "file:songnav.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	cfg.DB.MaxOpenConns = getInt("DB_MAX_OPEN", 10)
	cfg.DB.MaxIdleConns = getInt("DB_MAX_IDLE", 5)

	cfg.Church.Name = getEnv("CHURCH_NAME", DefaultChurchName)
	cfg.Church.AdminPassword = getEnv("ADMIN_PASSWORD", DefaultAdminPassword)

	cfg.Admin.Token = getEnv("ADMIN_TOKEN", "")
	if cfg.Admin.Token == "" {
		cfg.Admin.Token = uuid.NewString()
		configLogger.Warn("ADMIN_TOKEN not set; using a random token for this process")
	}

	// Object storage (S3 / R2 compatible)
	cfg.Storage.Endpoint = getEnv("STORAGE_ENDPOINT", "")
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", "")
	cfg.Storage.AccessKey = getEnv("STORAGE_ACCESS_KEY", "")
	cfg.Storage.SecretKey = getEnv("STORAGE_SECRET_KEY", "")
	cfg.Storage.Region = getEnv("STORAGE_REGION", "auto")
	cfg.Storage.UseSSL = getBool("STORAGE_USE_SSL", true)
	cfg.Storage.PublicBase = getEnv("STORAGE_PUBLIC_BASE", "")

	// Redis
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)
	cfg.Redis.TTLSec = getInt("CACHE_TTL_SEC", 60)

	// RabbitMQ
	cfg.MQ.URL = getEnv("RABBITMQ_URL", "")
	cfg.MQ.Exchange = getEnv("MQ_EXCHANGE", "songnav")

	// Elasticsearch
	cfg.ES.Addrs = getEnv("ES_ADDRS", "")
	cfg.ES.Username = getEnv("ES_USERNAME", "")
	cfg.ES.Password = getEnv("ES_PASSWORD", "")
	cfg.ES.Index = getEnv("ES_INDEX", "songnav-collections")

	cfg.Apollo.Enable = getBool("APOLLO_ENABLE", false)
	cfg.Apollo.AppID = getEnv("APOLLO_APP_ID", "")
	cfg.Apollo.Cluster = getEnv("APOLLO_CLUSTER", "default")
	cfg.Apollo.Namespace = getEnv("APOLLO_NAMESPACE", "application")
	cfg.Apollo.Addrs = getEnv("APOLLO_ADDRS", "")
	cfg.Apollo.AccessKey = getEnv("APOLLO_ACCESS_KEY", "")

	return cfg
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	return lo.Ternary(v != "", v, def)
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
