package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	ProviderOpenRouter = "openrouter"
	ProviderGigaChat   = "gigachat"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	LLM      LLMConfig
	GigaChat GigaChatConfig
	Chat     ChatConfig
	Google   GoogleConfig
	JWT      JWTConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string // json or console
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	BodyLimit    int // bytes
}

type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	// ConnectAttempts bounds the startup ping loop while the database boots.
	ConnectAttempts int
}

type LLMConfig struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Referrer          string
	Temperature       float64
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
	// Empty URLs keep the SDK defaults.
	OAuthURL string
	BaseURL  string
}

type ChatConfig struct {
	TransactionLimit int
	GoalLimit        int
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	GmailQuery   string
	MaxMessages  int
}

type JWTConfig struct {
	SecretKey  string // empty disables bearer auth
	Expiration time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work too (Docker/K8s)
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8000"),
			ReadTimeout:  time.Duration(getInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
			CORSOrigins:  splitList(getEnv("CORS_ORIGIN", "http://localhost:3000")),
			BodyLimit:    getInt("BODY_LIMIT_MB", 10) * 1024 * 1024,
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pfms"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getInt("DB_MAX_CONNS", 10)),

			ConnectAttempts: getInt("DB_CONNECT_ATTEMPTS", 5),
		},
		LLM: LLMConfig{
			Provider:          strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenRouter)),
			APIKey:            getEnv("OPENROUTER_API_KEY", ""),
			Model:             getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
			BaseURL:           strings.TrimRight(getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"), "/"),
			Referrer:          getEnv("OPENROUTER_REFERRER", "http://localhost:8000"),
			Temperature:       getFloat("LLM_TEMPERATURE", 0.2),
			Timeout:           time.Duration(getInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxRetries:        getInt("LLM_MAX_RETRIES", 1),
			RequestsPerMinute: getInt("LLM_REQUESTS_PER_MINUTE", 60),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true",
			OAuthURL:           getEnv("GIGACHAT_OAUTH_URL", ""),
			BaseURL:            getEnv("GIGACHAT_BASE_URL", ""),
		},
		Chat: ChatConfig{
			TransactionLimit: getInt("CHAT_TRANSACTION_LIMIT", 1000),
			GoalLimit:        getInt("CHAT_GOAL_LIMIT", 100),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8000/api/gmail/callback"),
			GmailQuery:   getEnv("GMAIL_QUERY", "subject:(receipt OR payment OR invoice) newer_than:30d"),
			MaxMessages:  getInt("GMAIL_MAX_MESSAGES", 20),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", ""),
			Expiration: time.Duration(getInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would leave the server without a store or
// a model provider. Missing credentials are reported per call instead.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderGigaChat:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
