package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"casa-empenos/internal/core/domain"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	LogLevel string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Admin    AdminConfig
	Loan     LoanConfig
	Schedule ScheduleConfig
	Reminder ReminderConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // mysql | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// AdminConfig holds the seeded administrator credentials
type AdminConfig struct {
	Username string
	Password string
}

// LoanConfig holds loan lifecycle settings
type LoanConfig struct {
	PaymentPolicy     domain.PaymentPolicy
	TermDays          int
	ValuationMinRatio float64
	ValuationMaxRatio float64
}

// ScheduleConfig holds appointment scheduling settings
type ScheduleConfig struct {
	Timezone string
	Location *time.Location
}

// ReminderConfig holds the expiry reminder job settings
type ReminderConfig struct {
	Cron                   string
	Days                   int
	LineChannelAccessToken string
	LineTo                 string
}

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

	database, err := loadDatabaseConfig(appMode)
	if err != nil {
		return nil, err
	}
	loan, err := loadLoanConfig()
	if err != nil {
		return nil, err
	}
	schedule, err := loadScheduleConfig()
	if err != nil {
		return nil, err
	}

	// Build config based on APP_MODE
	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: database,
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Admin:    loadAdminConfig(),
		Loan:     loan,
		Schedule: schedule,
		Reminder: loadReminderConfig(),
	}

	if config.IsProd() && config.JWT.Secret == defaultJWTSecret {
		return nil, fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s, PAYMENT_POLICY: %s]",
		appMode, database.Driver, loan.PaymentPolicy)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) (DatabaseConfig, error) {
	prefix := modePrefix(mode)

	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))
	if driver != "mysql" && driver != "sqlite" {
		return DatabaseConfig{}, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'sqlite')", driver)
	}

	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", "3306"),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "casa_empenos"),
		SQLitePath: getEnv("SQLITE_PATH", "data.db"),
	}, nil
}

const defaultJWTSecret = "default_secret"

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))
	if accessMins <= 0 {
		accessMins = 60
	}

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", defaultJWTSecret),
		AccessTokenMins: accessMins,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadAdminConfig loads the seeded admin account
func loadAdminConfig() AdminConfig {
	return AdminConfig{
		Username: getEnv("ADMIN_USERNAME", "admin"),
		Password: getEnv("ADMIN_PASSWORD", ""),
	}
}

// loadLoanConfig loads loan lifecycle settings
func loadLoanConfig() (LoanConfig, error) {
	policy := domain.PaymentPolicy(strings.TrimSpace(getEnv("PAYMENT_POLICY", string(domain.PaymentKeepHistory))))
	if !policy.Valid() {
		return LoanConfig{}, fmt.Errorf("invalid PAYMENT_POLICY: '%s' (must be '%s' or '%s')",
			policy, domain.PaymentKeepHistory, domain.PaymentReverseLastRenewal)
	}

	termDays, err := strconv.Atoi(getEnv("LOAN_TERM_DAYS", strconv.Itoa(domain.DefaultTermDays)))
	if err != nil || termDays <= 0 {
		return LoanConfig{}, fmt.Errorf("invalid LOAN_TERM_DAYS: must be a positive integer")
	}

	minRatio, err := strconv.ParseFloat(getEnv("VALUATION_MIN_RATIO", "0.5"), 64)
	if err != nil {
		return LoanConfig{}, fmt.Errorf("invalid VALUATION_MIN_RATIO: %w", err)
	}
	maxRatio, err := strconv.ParseFloat(getEnv("VALUATION_MAX_RATIO", "0.8"), 64)
	if err != nil {
		return LoanConfig{}, fmt.Errorf("invalid VALUATION_MAX_RATIO: %w", err)
	}
	if minRatio <= 0 || maxRatio < minRatio {
		return LoanConfig{}, fmt.Errorf("invalid valuation band [%v, %v]", minRatio, maxRatio)
	}

	return LoanConfig{
		PaymentPolicy:     policy,
		TermDays:          termDays,
		ValuationMinRatio: minRatio,
		ValuationMaxRatio: maxRatio,
	}, nil
}

// loadScheduleConfig loads the timezone used to decide "today"
func loadScheduleConfig() (ScheduleConfig, error) {
	tz := getEnv("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return ScheduleConfig{}, fmt.Errorf("invalid APP_TIMEZONE: '%s': %w", tz, err)
	}
	return ScheduleConfig{Timezone: tz, Location: loc}, nil
}

// loadReminderConfig loads the reminder job settings
func loadReminderConfig() ReminderConfig {
	days, err := strconv.Atoi(getEnv("REMINDER_DAYS", "3"))
	if err != nil || days < 0 {
		days = 3
	}

	return ReminderConfig{
		Cron:                   getEnv("REMINDER_CRON", "30 8 * * *"),
		Days:                   days,
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineTo:                 getEnv("LINE_REMINDER_TO", ""),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
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
		// Default production origin
		return "https://empenos.example.com"
	}
	return origins
}
