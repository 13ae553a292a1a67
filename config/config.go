// Package config đọc cấu hình từ biến môi trường (và file .env khi chạy local).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSecretLength = 32

var (
	ErrSecretTooShort  = fmt.Errorf("SESSION_SECRET must be at least %d characters", minSecretLength)
	ErrSecretIsDefault = errors.New("SESSION_SECRET is a known placeholder value")
	ErrInvalidTTL      = errors.New("session ttl must be positive")
)

// Chuỗi mẫu hay bị copy nguyên từ README / .env.example. Secret chứa bất kỳ
// chuỗi nào ở đây đều bị từ chối, dài bao nhiêu cũng vậy.
var placeholderSecrets = []string{
	"changeme",
	"change-me",
	"change-this",
	"change_this",
	"replace-me",
	"replaceme",
	"placeholder",
	"example",
	"your-secret",
	"your_secret",
	"your-super-secret",
	"secret-key",
	"secret_key",
	"default-secret",
	"development-secret",
	"dev-secret",
	"test-secret",
	"jwt-key",
	"in-production",
	"at-least-32",
}

// DBConfig tách riêng để lệnh console chỉ cần DATABASE_URL.
type DBConfig struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:wedding.db?_foreign_keys=on"`
}

// Config được đọc một lần lúc khởi động, sau đó không đổi.
type Config struct {
	DB DBConfig

	SessionSecret string `env:"SESSION_SECRET,required"`
	Environment   string `env:"NODE_ENV" envDefault:"development"`
	Port          string `env:"PORT" envDefault:"8080"`

	GuestSessionTTL time.Duration `env:"GUEST_SESSION_TTL" envDefault:"4320h"`
	AdminSessionTTL time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"8h"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	ExportDir          string   `env:"EXPORT_DIR" envDefault:"./exports"`
}

// Load nạp .env (nếu có), parse biến môi trường rồi validate.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDB chỉ đọc cấu hình database.
func LoadDB() (DBConfig, error) {
	if err := loadDotEnv(); err != nil {
		return DBConfig{}, err
	}
	var cfg DBConfig
	if err := env.Parse(&cfg); err != nil {
		return DBConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	secret := strings.TrimSpace(c.SessionSecret)
	if isPlaceholder(secret) {
		return ErrSecretIsDefault
	}
	if len(secret) < minSecretLength {
		return ErrSecretTooShort
	}
	if c.GuestSessionTTL <= 0 || c.AdminSessionTTL <= 0 {
		return ErrInvalidTTL
	}
	return nil
}

func isPlaceholder(secret string) bool {
	lower := strings.ToLower(secret)
	for _, p := range placeholderSecrets {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return isRepeated(strings.NewReplacer("-", "", "_", "", ".", "").Replace(lower))
}

// isRepeated: chuỗi chỉ là một đoạn ngắn lặp lại, vd "abcabcabc..." hay "xxxx...".
func isRepeated(s string) bool {
	n := len(s)
	for size := 1; size <= n/2; size++ {
		if n%size == 0 && strings.Repeat(s[:size], n/size) == s {
			return true
		}
	}
	return false
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Secret trả secret dạng []byte cho ký JWT và fingerprint.
func (c Config) Secret() []byte {
	return []byte(c.SessionSecret)
}
