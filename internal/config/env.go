package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBUser        string
	DBPassword    string
	DBHost        string
	DBName        string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL string

	JWTSecret       string
	JWTAccessTTL    time.Duration
	JWTRefreshTTL   time.Duration
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FirebaseProject string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	AIModel           string
	AIEmbeddingModel  string
	AgentsConfig      string
	KnowledgeDir      string

	WhatsAppAPIURL       string
	WhatsAppAPIKey       string
	WhatsAppUseMock      bool
	WhatsAppWebhookToken string
	WhatsAppRetryCount   int
	WhatsAppTimeout      time.Duration

	UPIVPA            string
	UPIPayeeName      string
	RazorpayKeyID     string
	RazorpayKeySecret string

	UploadDir             string
	SeatLockTTL           time.Duration
	DashboardPushInterval time.Duration
	CORSAllowedOrigins    []string
}

// LoadEnv reads configuration from the process environment. A .env file in the
// working directory is loaded first when present.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		AppAddr: getEnv("APP_ADDR", ":8080"),
		GinMode: getEnv("GIN_MODE", ""),

		DBUser:        getEnv("DB_USER", "root"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBHost:        getEnv("DB_HOST", "127.0.0.1:3306"),
		DBName:        getEnv("DB_NAME", "adventure_buddha"),
		DBAutoMigrate: parseBool(getEnv("DB_AUTO_MIGRATE", "true"), true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		JWTSecret:       getEnv("JWT_SECRET", "super-secret-key-change-me"),
		JWTAccessTTL:    parseDuration(getEnv("JWT_ACCESS_TTL", "24h"), 24*time.Hour),
		JWTRefreshTTL:   parseDuration(getEnv("JWT_REFRESH_TTL", "168h"), 7*24*time.Hour),
		GoogleClientID:  getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:5173/auth/google/callback"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),

		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:           getEnv("AI_MODEL", "xai/grok-beta"),
		AIEmbeddingModel:  getEnv("AI_EMBEDDING_MODEL", ""),
		AgentsConfig:      getEnv("AGENTS_CONFIG", ""),
		KnowledgeDir:      getEnv("KNOWLEDGE_DIR", "./data/knowledge"),

		WhatsAppAPIURL:       getEnv("WHATSAPP_API_URL", ""),
		WhatsAppAPIKey:       getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppUseMock:      parseBool(getEnv("WHATSAPP_USE_MOCK", "true"), true),
		WhatsAppWebhookToken: getEnv("WHATSAPP_WEBHOOK_TOKEN", ""),
		WhatsAppRetryCount:   parseInt(getEnv("WHATSAPP_RETRY_COUNT", "3"), 3),
		WhatsAppTimeout:      parseDuration(getEnv("WHATSAPP_TIMEOUT", "10s"), 10*time.Second),

		UPIVPA:            getEnv("UPI_VPA", "adventurebuddha@upi"),
		UPIPayeeName:      getEnv("UPI_PAYEE_NAME", "Adventure Buddha"),
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),

		UploadDir:             getEnv("UPLOAD_DIR", "./uploads"),
		SeatLockTTL:           parseDuration(getEnv("SEAT_LOCK_TTL", "5m"), 5*time.Minute),
		DashboardPushInterval: parseDuration(getEnv("DASHBOARD_PUSH_INTERVAL", "30s"), 30*time.Second),
		CORSAllowedOrigins:    parseStringList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// DSN builds the MySQL data source name.
func (e Env) DSN() string {
	return e.DBUser + ":" + e.DBPassword + "@tcp(" + e.DBHost + ")/" + e.DBName +
		"?parseTime=true&loc=Local&charset=utf8mb4&clientFoundRows=true&timeout=5s&readTimeout=30s&writeTimeout=30s"
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseStringList(value string) []string {
	if value == "" {
		return nil
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
