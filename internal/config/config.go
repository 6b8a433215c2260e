package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	Database  DatabaseConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Email     EmailConfig
	Storage   StorageConfig
	Reconcile ReconcileConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// PaymentConfig holds Mercado Pago gateway configuration
type PaymentConfig struct {
	AccessToken string
	FrontendURL string
	BackendURL  string
}

// EmailConfig holds SMTP configuration for the outbox dispatcher
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// StorageConfig holds document storage configuration
type StorageConfig struct {
	UploadDir string
}

// ReconcileConfig holds the payment reconciliation sweep configuration
type ReconcileConfig struct {
	Spec            string // cron spec for the sweep
	OutboxSpec      string // cron spec for the email outbox dispatcher
	PendingTimeout  int    // minutes before a pending payment is re-queried
	AbandonAfter    int    // hours before an unmatched checkout is abandoned
	MaxEmailRetries int
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "3000"),
		Database:  loadDatabaseConfig(appMode),
		JWT:       loadJWTConfig(appMode),
		Payment:   loadPaymentConfig(),
		Email:     loadEmailConfig(),
		Storage:   loadStorageConfig(),
		Reconcile: loadReconcileConfig(),
	}

	if config.Payment.AccessToken == "" {
		log.Println("Warning: MERCADOPAGO_ACCESS_TOKEN not set, checkout creation will fail")
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "aneti_comunidade"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	// Tokens expire after one hour unless overridden
	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: accessMins,
	}
}

// loadPaymentConfig loads Mercado Pago config
func loadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		AccessToken: getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:3000"),
	}
}

// loadEmailConfig loads SMTP config
func loadEmailConfig() EmailConfig {
	port, _ := strconv.Atoi(getEnv("EMAIL_PORT", "587"))

	return EmailConfig{
		Host:     getEnv("EMAIL_HOST", "smtp.example.com"),
		Port:     port,
		Username: getEnv("EMAIL_USER", ""),
		Password: getEnv("EMAIL_PASSWORD", ""),
		From:     getEnv("EMAIL_FROM", "noreply@aneti.org.br"),
	}
}

// loadStorageConfig loads document storage config
func loadStorageConfig() StorageConfig {
	return StorageConfig{
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
	}
}

// loadReconcileConfig loads background job config
func loadReconcileConfig() ReconcileConfig {
	pendingTimeout, _ := strconv.Atoi(getEnv("RECONCILE_PENDING_TIMEOUT_MINUTES", "30"))
	abandonAfter, _ := strconv.Atoi(getEnv("RECONCILE_ABANDON_AFTER_HOURS", "72"))
	maxRetries, _ := strconv.Atoi(getEnv("EMAIL_MAX_RETRIES", "5"))

	return ReconcileConfig{
		Spec:            getEnv("RECONCILE_CRON", "@every 10m"),
		OutboxSpec:      getEnv("OUTBOX_CRON", "@every 1m"),
		PendingTimeout:  pendingTimeout,
		AbandonAfter:    abandonAfter,
		MaxEmailRetries: maxRetries,
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		// Default production origins
		return "https://comunidade.aneti.org.br"
	}
	return origins
}
