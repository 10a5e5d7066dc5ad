package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Keys        APIKeys
	Infermedica InfermedicaConfig
	Ai          AIConfig
	Interview   InterviewConfig
	Tracing     TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	StreamLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	RequireAuth        bool
}

type DatabaseConfig struct {
	Connection string // empty means assessments go to Redis
}

type APIKeys struct {
	GoogleGemini   string
	InfermedicaID  string
	InfermedicaKey string
}

type InfermedicaConfig struct {
	BaseURL     string
	Model       string
	Language    string
	Timeout     time.Duration
	CacheSize   int
	EnrichCount int
	// DisableGroups asks the remote to only send single questions.
	DisableGroups bool
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

type AIConfig struct {
	LLMProvider   string // "gemini" or "ollama"
	LLMModel      string
	OllamaBaseURL string
}

type InterviewConfig struct {
	MaxQuestions            int
	ExtensionFactor         float64
	HighConfidence          float64
	DominanceGap            float64
	ConfirmedConfidence     float64
	ConvergenceConfidence   float64
	MinQuestions            int
	RemoteStopMinQuestions  int
	ConvergenceMinQuestions int
	EmergencyKeywords       []string // empty keeps the built-in list
	SessionTTL              time.Duration
	AssessmentTTL           time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			StreamLogFilePath:  getEnv("STREAM_LOG_FILE_PATH", "logs/stream.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			RequireAuth:        getEnvAsBool("REQUIRE_AUTH", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
			InfermedicaID:  getEnv("INFERMEDICA_APP_ID", ""),
			InfermedicaKey: getEnv("INFERMEDICA_APP_KEY", ""),
		},
		Infermedica: InfermedicaConfig{
			BaseURL:       getEnv("INFERMEDICA_BASE_URL", "https://api.infermedica.com/v3"),
			Model:         getEnv("INFERMEDICA_MODEL", "infermedica-en"),
			Language:      getEnv("INFERMEDICA_LANGUAGE", ""),
			Timeout:       getEnvAsDuration("INFERMEDICA_TIMEOUT", 30*time.Second),
			CacheSize:     getEnvAsInt("INFERMEDICA_CACHE_SIZE", 512),
			EnrichCount:   getEnvAsInt("INFERMEDICA_ENRICH_COUNT", 5),
			DisableGroups: getEnvAsBool("INFERMEDICA_DISABLE_GROUPS", false),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:      getEnv("LLM_MODEL", "gemini-2.0-flash"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Interview: InterviewConfig{
			MaxQuestions:            getEnvAsInt("INTERVIEW_MAX_QUESTIONS", 15),
			ExtensionFactor:         getEnvAsFloat("INTERVIEW_EXTENSION_FACTOR", 1.5),
			HighConfidence:          getEnvAsFloat("STOP_HIGH_CONFIDENCE", 0.85),
			DominanceGap:            getEnvAsFloat("STOP_DOMINANCE_GAP", 0.40),
			ConfirmedConfidence:     getEnvAsFloat("STOP_CONFIRMED_CONFIDENCE", 0.70),
			ConvergenceConfidence:   getEnvAsFloat("STOP_CONVERGENCE_CONFIDENCE", 0.60),
			MinQuestions:            getEnvAsInt("STOP_MIN_QUESTIONS", 3),
			RemoteStopMinQuestions:  getEnvAsInt("STOP_REMOTE_MIN_QUESTIONS", 5),
			ConvergenceMinQuestions: getEnvAsInt("STOP_CONVERGENCE_MIN_QUESTIONS", 6),
			EmergencyKeywords:       getEnvAsList("EMERGENCY_KEYWORDS", nil),
			SessionTTL:              getEnvAsDuration("SESSION_TTL", time.Hour),
			AssessmentTTL:           getEnvAsDuration("ASSESSMENT_TTL", 7*24*time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "symptom-checker-backend"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
