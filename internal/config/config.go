package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// placeholderSecret is the value shipped in .env.example; it must never reach production.
const placeholderSecret = "change-this-secret-in-production"

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Config 애플리케이션 전체 설정
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Relay     RelayConfig
	Store     StoreConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Rooms     RoomsConfig
	CORS      CORSConfig
	Log       LogConfig
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// WebSocketConfig WebSocket 관련 설정
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteTimeout    time.Duration
	PongWait        time.Duration
	MaxMessageBytes int64
	SendBuffer      int
	EventsPerSecond float64
	EventBurst      int
}

// RelayConfig realtime relay persistence settings
type RelayConfig struct {
	PersistWorkers     int
	PersistQueueSize   int
	PersistTimeout     time.Duration
	StoreLookupTimeout time.Duration
}

// StoreConfig selects and configures the room/user store backend.
type StoreConfig struct {
	Driver        string // postgres, mongo, memory
	Postgres      PostgresConfig
	MongoURI      string
	MongoDatabase string
}

// PostgresConfig 데이터베이스 설정
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// DSN builds the gorm postgres DSN.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode, p.TimeZone,
	)
}

// RedisConfig Redis 설정. Empty Addr disables the snapshot cache and presence.
type RedisConfig struct {
	Addr             string
	Password         string
	DB               int
	SnapshotCacheTTL time.Duration
}

// AuthConfig 인증 설정
type AuthConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
	RateLimit         int
}

// RoomsConfig room lifecycle settings
type RoomsConfig struct {
	Retention       time.Duration
	JanitorInterval time.Duration
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string
}

// LogConfig logrus settings
type LogConfig struct {
	Level  string
	Format string
}

// Load 환경 변수에서 설정 로드
func Load() (*Config, error) {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if jwtSecret == placeholderSecret {
		return nil, fmt.Errorf("JWT_SECRET must be changed from %q", placeholderSecret)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":8080"),
			ReadTimeout:     getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getDuration("IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 16*1024),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 16*1024),
			WriteTimeout:    getDuration("WS_WRITE_TIMEOUT", 5*time.Second),
			PongWait:        getDuration("WS_PONG_WAIT", 60*time.Second),
			MaxMessageBytes: int64(getInt("WS_MAX_MESSAGE_BYTES", 8<<20)),
			SendBuffer:      getInt("WS_SEND_BUFFER", 256),
			EventsPerSecond: getFloat("WS_EVENTS_PER_SECOND", 200),
			EventBurst:      getInt("WS_EVENT_BURST", 400),
		},
		Relay: RelayConfig{
			PersistWorkers:     getInt("PERSIST_WORKERS", 4),
			PersistQueueSize:   getInt("PERSIST_QUEUE_SIZE", 256),
			PersistTimeout:     getDuration("PERSIST_TIMEOUT", 5*time.Second),
			StoreLookupTimeout: getDuration("STORE_LOOKUP_TIMEOUT", 3*time.Second),
		},
		Store: storeFromEnv(),
		Redis: RedisConfig{
			Addr:             getEnv("REDIS_ADDR", ""),
			Password:         getEnv("REDIS_PASSWORD", ""),
			DB:               getInt("REDIS_DB", 0),
			SnapshotCacheTTL: getDuration("SNAPSHOT_CACHE_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret:         jwtSecret,
			AccessTokenExpiry: getDuration("ACCESS_TOKEN_EXPIRY", 24*time.Hour),
			RateLimit:         getInt("AUTH_RATE_LIMIT", 10),
		},
		Rooms: RoomsConfig{
			Retention:       getDuration("ROOM_RETENTION", 0),
			JanitorInterval: getDuration("ROOM_JANITOR_INTERVAL", time.Hour),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := validateDriver(cfg.Store.Driver); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadStore 저장소 설정만 로드 (roomctl 등 운영 도구용, JWT_SECRET 불필요)
func LoadStore() (StoreConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}
	cfg := storeFromEnv()
	return cfg, validateDriver(cfg.Driver)
}

func storeFromEnv() StoreConfig {
	return StoreConfig{
		Driver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "whiteboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "whiteboard"),
	}
}

func validateDriver(driver string) error {
	switch driver {
	case "postgres", "mongo", "memory":
		return nil
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", driver)
	}
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
