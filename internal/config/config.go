package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
}

type Upstream struct {
	BaseURL string        `yaml:"UPSTREAM_BASE_URL" env:"UPSTREAM_BASE_URL" env-required:"true"`
	Timeout time.Duration `yaml:"UPSTREAM_TIMEOUT" env:"UPSTREAM_TIMEOUT" env-default:"10s"`
}

type Security struct {
	JWTKey             string        `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	SessionTTL         time.Duration `yaml:"SESSION_TTL" env:"SESSION_TTL" env-default:"24h"`
	RevalidateInterval time.Duration `yaml:"SESSION_REVALIDATE_INTERVAL" env:"SESSION_REVALIDATE_INTERVAL" env-default:"5m"`
}

// Storage selects the state-store backend. "file" keeps one JSON document per
// key on local disk; redis and postgres are for shared deployments.
type Storage struct {
	Backend string `yaml:"STORAGE_BACKEND" env:"STORAGE_BACKEND" env-default:"file"`
	FileDir string `yaml:"STORAGE_FILE_DIR" env:"STORAGE_FILE_DIR" env-default:"./state"`
}

type Database struct {
	Host     string `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"PG_USER" env:"PG_USER"`
	Password string `yaml:"PG_PASSWORD" env:"PG_PASSWORD"`
	Name     string `yaml:"PG_DBNAME" env:"PG_DBNAME"`
	SSLMode  string `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type CacheConfig struct {
	CatalogTTL time.Duration `yaml:"CATALOG_TTL" env:"CATALOG_TTL" env-default:"60s"`
}

type Checkout struct {
	// Minimum lead time between checkout and the requested delivery date,
	// compared as a fraction of days rather than calendar-day boundaries.
	MinLeadTime time.Duration `yaml:"MIN_LEAD_TIME" env:"CHECKOUT_MIN_LEAD_TIME" env-default:"48h"`
	// Grace period after which an order stuck in "syncing" becomes retryable.
	SyncRetryAfter time.Duration `yaml:"SYNC_RETRY_AFTER" env:"CHECKOUT_SYNC_RETRY_AFTER" env-default:"2m"`
}

type SendGrid struct {
	APIKey    string `yaml:"SENDGRID_API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"SENDGRID_FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"pedidos@milsabores.cl"`
	FromName  string `yaml:"SENDGRID_FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Pastelería Mil Sabores"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer   `yaml:"http_server"`
	Upstream     Upstream     `yaml:"upstream"`
	Security     Security     `yaml:"security"`
	Storage      Storage      `yaml:"storage"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	Cache        CacheConfig  `yaml:"cache"`
	Checkout     Checkout     `yaml:"checkout"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			log.Fatal("Config path is not set")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return &cfg
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/%d",
		r.Username, r.Password, r.Host, r.Port, r.DB)
}
