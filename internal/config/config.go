package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	TaskStoreMongo    = "mongo"
	TaskStorePostgres = "postgres"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	LogToDB     bool
	CORSOrigins string

	TaskStore   string // mongo | postgres
	PostgresDSN string

	FSPath      string // Spool directory for committed import files
	MaxUploadMB int

	ImportPreviewLimit    int
	ImportMaxErrors       int
	ImportRetentionHours  int
	ImportClaimMinutes    int // a processing attempt untouched this long can be taken over
	ImportCleanupSchedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "go-fwpm"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "go-fwpm"),
		LogToDB:     getEnv("LOG_TO_DB", "false") == "true",
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		TaskStore:   strings.ToLower(getEnv("TASK_STORE", TaskStoreMongo)),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		FSPath:      getEnv("FS_PATH", "./uploads"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 10),

		ImportPreviewLimit:    getEnvInt("IMPORT_PREVIEW_LIMIT", 5),
		ImportMaxErrors:       getEnvInt("IMPORT_MAX_ERRORS", 50),
		ImportRetentionHours:  getEnvInt("IMPORT_RETENTION_HOURS", 720),
		ImportClaimMinutes:    getEnvInt("IMPORT_CLAIM_MINUTES", 10),
		ImportCleanupSchedule: getEnv("IMPORT_CLEANUP_SCHEDULE", "@daily"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		log.Printf("Invalid value for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
