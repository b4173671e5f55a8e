package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rentwheel/service-rental/internal/common/database"
)

const envPrefix = "RENTAL"

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ImageKitConfig holds credentials for the image hosting service.
type ImageKitConfig struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string

	// UploadPrefix overrides the SDK's upload API base when set.
	UploadPrefix string
}

// RedisConfig holds the connection used by the booking creation guard.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BookingConfig tunes the booking engine.
type BookingConfig struct {
	Serialize               bool
	LockTTL                 time.Duration
	AvailabilityConcurrency int
}

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	CORSOrigins    []string
	DBConfig       database.PostgresConfig
	JWTConfig      JWTConfig
	KafkaConfig    KafkaConfig
	ImageKitConfig ImageKitConfig
	RedisConfig    RedisConfig
	BookingConfig  BookingConfig
}

// Load reads configuration from RENTAL_* environment variables, with an
// optional config.yaml in the working directory or /etc/rental.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/rental")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "car_rental")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "rental.booking.events")


	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("BOOKING_SERIALIZE", false)
	v.SetDefault("BOOKING_LOCK_TTL", 5*time.Second)
	v.SetDefault("AVAILABILITY_CONCURRENCY", 8)
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		Port:        normalizePort(v.GetString("SERVICE_PORT")),
		AppEnv:      v.GetString("APP_ENV"),
		CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		ImageKitConfig: ImageKitConfig{
			PublicKey:    v.GetString("IMAGEKIT_PUBLIC_KEY"),
			PrivateKey:   v.GetString("IMAGEKIT_PRIVATE_KEY"),
			URLEndpoint:  strings.TrimRight(v.GetString("IMAGEKIT_URL_ENDPOINT"), "/"),
			UploadPrefix: v.GetString("IMAGEKIT_UPLOAD_PREFIX"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		BookingConfig: BookingConfig{
			Serialize:               v.GetBool("BOOKING_SERIALIZE"),
			LockTTL:                 v.GetDuration("BOOKING_LOCK_TTL"),
			AvailabilityConcurrency: v.GetInt("AVAILABILITY_CONCURRENCY"),
		},
	}

	if cfg.JWTConfig.Secret == "" {
		if cfg.AppEnv != "development" {
			return nil, errors.New("RENTAL_JWT_SECRET is required outside development")
		}
		cfg.JWTConfig.Secret = "development-secret"
	}
	if cfg.BookingConfig.AvailabilityConcurrency < 1 {
		cfg.BookingConfig.AvailabilityConcurrency = 1
	}
	return cfg, nil
}

func normalizePort(port string) string {
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
