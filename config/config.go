// Package config, uygulama ayarlarını environment variable'lardan okur.
//
// .env dosyası varsa godotenv ile yüklenir; production'da değerler
// doğrudan ortamdan gelir. Her değerin bir varsayılanı vardır,
// sadece JWT_SECRET zorunludur.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, tüm alt ayar gruplarını toplar.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Upload    UploadConfig
	LiveKit   LiveKitConfig
	Email     EmailConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type DatabaseConfig struct {
	Path string // SQLite dosya yolu, testlerde ":memory:"
}

type JWTConfig struct {
	Secret       string
	ExpiryHours  int  // Token ve cookie ömrü (varsayılan: 24 saat)
	CookieSecure bool // false sadece local development için
}

// Expiry, token ömrünü time.Duration olarak döner.
func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type UploadConfig struct {
	Dir     string
	MaxSize int64 // Byte cinsinden (varsayılan: 10MB)
}

// LiveKitConfig, 1:1 arama token'ları için. APIKey boşsa call token endpoint'i 400 döner.
type LiveKitConfig struct {
	URL       string
	APIKey    string
	APISecret string
}

// EmailConfig, şifre sıfırlama e-postaları için Resend ayarları.
// APIKey boşsa forgot-password sessizce hiçbir şey göndermez.
type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
	AppURL       string
}

type LogConfig struct {
	Development bool
}

type RateLimitConfig struct {
	LoginAttempts   int
	LoginWindow     time.Duration
	MessageCount    int
	MessageWindow   time.Duration
	MessageCooldown time.Duration
}

// Load, ayarları okur ve doğrular.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("SERVER_PORT", 5005)
	if err != nil {
		return nil, err
	}

	expiryHours, err := getInt("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, err
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	loginAttempts, err := getInt("RATE_LIMIT_LOGIN_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	messageCount, err := getInt("RATE_LIMIT_MESSAGES", 10)
	if err != nil {
		return nil, err
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/sohbet.db"),
		},
		JWT: JWTConfig{
			Secret:       jwtSecret,
			ExpiryHours:  expiryHours,
			CookieSecure: getEnv("APP_ENV", "production") != "development",
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize: maxSize,
		},
		LiveKit: LiveKitConfig{
			URL:       getEnv("LIVEKIT_URL", "ws://localhost:7880"),
			APIKey:    getEnv("LIVEKIT_API_KEY", ""),
			APISecret: getEnv("LIVEKIT_API_SECRET", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromAddress:  getEnv("EMAIL_FROM", "noreply@sohbet.app"),
			AppURL:       getEnv("APP_URL", "http://localhost:5173"),
		},
		Log: LogConfig{
			Development: getEnv("APP_ENV", "production") == "development",
		},
		RateLimit: RateLimitConfig{
			LoginAttempts:   loginAttempts,
			LoginWindow:     5 * time.Minute,
			MessageCount:    messageCount,
			MessageWindow:   5 * time.Second,
			MessageCooldown: 10 * time.Second,
		},
	}

	return cfg, nil
}

// Addr, http.Server için "host:port" döner.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
