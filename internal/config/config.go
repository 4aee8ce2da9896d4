package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	Port    string
	GinMode string

	// Database
	DBDriver   string // mysql, postgres, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Sessions
	SessionStore  string // redis, cookie
	RedisHost     string
	RedisPort     string
	RedisPassword string
	SessionSecret string

	// Storage
	StorageDriver      string // local, minio, s3, gcs, memory
	MediaRoot          string
	StorageBucket      string
	StorageEndpoint    string
	StorageAccessKey   string
	StorageSecretKey   string
	StorageRegion      string
	StorageUseSSL      bool
	GCSCredentialsFile string

	// Images
	ImageMaxDimension int
	ImageMaxPixels    int
	MaxUploadSizeMB   int

	CORSAllowedOrigins string // comma-separated

	OpenAIAPIKey string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	return &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "chatuser"),
		DBPassword: getEnv("DB_PASSWORD", "chatpassword"),
		DBName:     getEnv("DB_NAME", "group_chat"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "group_chat.db"),

		SessionStore:  getEnv("SESSION_STORE", "redis"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),

		StorageDriver:      getEnv("STORAGE_DRIVER", "local"),
		MediaRoot:          getEnv("MEDIA_ROOT", "media"),
		StorageBucket:      getEnv("STORAGE_BUCKET", "group-chat-media"),
		StorageEndpoint:    getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey:   getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:   getEnv("STORAGE_SECRET_KEY", ""),
		StorageRegion:      getEnv("STORAGE_REGION", "us-east-1"),
		StorageUseSSL:      getBool("STORAGE_USE_SSL", false),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		ImageMaxDimension: getInt("IMAGE_MAX_DIMENSION", 300),
		ImageMaxPixels:    getInt("IMAGE_MAX_PIXELS", 89478485),
		MaxUploadSizeMB:   getInt("MAX_UPLOAD_SIZE_MB", 10),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}
}

// DSN returns the connection string for the configured database driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
	case "sqlite":
		return c.SQLitePath
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release" || c.AppEnv == "production"
}

// CORSOrigins returns the allowed origins as a slice.
func (c *Config) CORSOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("invalid boolean for %s: %v, using default %v", key, err, defaultValue)
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid int for %s: %v, using default %d", key, err, defaultValue)
		return defaultValue
	}
	return i
}
