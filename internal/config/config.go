package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string

	// MinioEndpoint switches file storage from local disk to object
	// storage when set.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	UploadDir      string

	// JWTSecret has no fallback; the server refuses to start without it.
	JWTSecret string

	// Seed passwords for the bootstrap admin/user accounts. Seeding is
	// skipped for accounts whose password is unset.
	SeedAdminPassword string
	SeedUserPassword  string
}

// Load reads configuration from the environment, with an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getenv("PORT", "8080"),
		PostgresDSN:       getenv("POSTGRES_DSN", ""),
		MongoURI:          getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getenv("MONGO_DB", "studyshare"),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:     getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey:    getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getenv("MINIO_BUCKET", "studyshare-uploads"),
		MinioUseSSL:       getenv("MINIO_USE_SSL", "false") == "true",
		UploadDir:         getenv("UPLOAD_DIR", "uploads"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
		SeedUserPassword:  os.Getenv("SEED_USER_PASSWORD"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
