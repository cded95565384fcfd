package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL"`
	Postgres          Postgres
	Telegram          Telegram
	Redis             Redis
	API               API
	Cache             Cache
	Jobs              Jobs
	GoogleDrive       GoogleDrive
	MarketCap         MarketCap
	Import            Import
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION"`
	OrdersPerPage     int           `env:"ORDERS_PER_PAGE" envDefault:"10"`
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
}

type Telegram struct {
	Token            string        `env:"TELEGRAM_TOKEN"`
	UpdTimeout       time.Duration `env:"TELEGRAM_UPD_TIMEOUT"`
	FileLimitInBytes int           `env:"TELEGRAM_FILE_LIMIT_IN_BYTES"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type API struct {
	Debug         bool          `env:"API_DEBUG"`
	Timeout       time.Duration `env:"API_TIMEOUT"`
	QuoteProvider string        `env:"QUOTE_PROVIDER" envDefault:"yahoo"`
	YahooApi      YahooApi
	MoexApi       MoexApi
}

type YahooApi struct {
	Url string `env:"YAHOO_API_URL" envDefault:"https://query2.finance.yahoo.com"`
}

type MoexApi struct {
	Url string `env:"MOEX_API_URL" envDefault:"https://iss.moex.com"`
}

type Cache struct {
	QuotesExpiration time.Duration `env:"CACHE_QUOTES_EXPIRATION" envDefault:"1m"`
}

type Jobs struct {
	DeleteOldReportsInterval time.Duration `env:"DELETE_OLD_REPORTS_JOB_INTERVAL" envDefault:"1h"`
	WarmQuoteCacheInterval   time.Duration `env:"WARM_QUOTE_CACHE_JOB_INTERVAL" envDefault:"5m"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE"`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"24h"`
}

// MarketCap thresholds are compared against market cap divided by Unit.
// Defaults are INR crores.
type MarketCap struct {
	LargeThreshold float64 `env:"MARKET_CAP_LARGE_THRESHOLD" envDefault:"67000"`
	MidThreshold   float64 `env:"MARKET_CAP_MID_THRESHOLD" envDefault:"22000"`
	Unit           float64 `env:"MARKET_CAP_UNIT" envDefault:"10000000"`
	SanityBound    float64 `env:"MARKET_CAP_SANITY_BOUND" envDefault:"1e15"`
}

type Import struct {
	HeaderScanRows int    `env:"IMPORT_HEADER_SCAN_ROWS" envDefault:"10"`
	MaxRows        int    `env:"IMPORT_MAX_ROWS" envDefault:"5000"`
	SymbolSuffix   string `env:"IMPORT_SYMBOL_SUFFIX" envDefault:".NS"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
