package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	DBDriver    string // postgres / mysql / sqlite
	DatabaseURL string // postgresのDSN（あれば最優先）

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	MySQLDSN   string
	SQLitePath string

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限

	RedisAddr     string // 空ならカート退避はメモリのみ
	RedisPassword string
	RedisDB       int

	CartSnapshotTTL time.Duration // Redisに置くスナップショットの寿命
	CartSessionIdle time.Duration // これ以上触られていないカートは退避して破棄

	KafkaBrokers    []string // 空ならイベント送信しない
	KafkaOrderTopic string

	ElasticsearchURL      string // 空なら検索はDBのLIKE
	ElasticsearchUser     string
	ElasticsearchPassword string
	ElasticsearchIndex    string

	LowStockThreshold int64
	StoreTimezone     string

	LogLevel    string
	OTelEnabled bool

	AdminEmail    string // 初回起動時に作る管理者
	AdminPassword string
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := envIntDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	redisDB, err := envIntDefault("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	lowStock, err := envIntDefault("LOW_STOCK_THRESHOLD", 10)
	if err != nil {
		return Config{}, err
	}
	accessTTL, err := envDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	snapshotTTL, err := envDurationDefault("CART_SNAPSHOT_TTL", 7*24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	idle, err := envDurationDefault("CART_SESSION_IDLE", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  envDefault("PORT", "8080"),
		GoEnv: envDefault("GO_ENV", "dev"),

		DBDriver:    strings.ToLower(envDefault("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     envDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: envDefault("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       envDefault("POSTGRES_DB", "farmacia"),
		PostgresHost:     envDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  envDefault("POSTGRES_SSLMODE", "disable"),

		MySQLDSN:   os.Getenv("MYSQL_DSN"),
		SQLitePath: envDefault("SQLITE_PATH", "farmacia.db"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: accessTTL,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		CartSnapshotTTL: snapshotTTL,
		CartSessionIdle: idle,

		KafkaBrokers:    csv(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: envDefault("KAFKA_ORDER_TOPIC", "order_events"),

		ElasticsearchURL:      os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchUser:     os.Getenv("ELASTICSEARCH_USER"),
		ElasticsearchPassword: os.Getenv("ELASTICSEARCH_PASSWORD"),
		ElasticsearchIndex:    envDefault("ELASTICSEARCH_INDEX", "products"),

		LowStockThreshold: int64(lowStock),
		StoreTimezone:     envDefault("STORE_TIMEZONE", "America/Sao_Paulo"),

		LogLevel:    envDefault("LOG_LEVEL", "info"),
		OTelEnabled: envDefault("OTEL_ENABLED", "false") == "true",

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	case "mysql":
		if cfg.MySQLDSN == "" {
			return Config{}, fmt.Errorf("MYSQL_DSN is required")
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be one of postgres, mysql, sqlite: %q", cfg.DBDriver)
	}
	if cfg.LowStockThreshold < 1 {
		return Config{}, fmt.Errorf("LOW_STOCK_THRESHOLD must be >= 1")
	}
	if _, err := time.LoadLocation(cfg.StoreTimezone); err != nil {
		return Config{}, fmt.Errorf("STORE_TIMEZONE is invalid: %w", err)
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// 店舗のタイムゾーン（Loadで検証済み）
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) IsDev() bool {
	return c.GoEnv == "dev"
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func envDurationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
