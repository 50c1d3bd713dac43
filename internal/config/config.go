// Package config reads the service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"

	MediaMemory     = "memory"
	MediaCloudinary = "cloudinary"
)

type Config struct {
	Port           string
	Env            string
	Store          string
	MongoURI       string
	MongoDatabase  string
	MongoTx        bool
	JWTSecret      string
	TokenTTL       time.Duration
	AdminEmail     string
	AdminPassword  string
	Media          string
	CloudName      string
	CloudAPIKey    string
	CloudSecret    string
	DeliveryFee    decimal.Decimal
	AllowedOrigins []string
}

func (c Config) Development() bool { return c.Env == "development" }

// Load reads .env (if present) and then the process environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment.
func FromEnv() (Config, error) {
	c := Config{
		Port:          getEnv("PORT", "4000"),
		Env:           getEnv("APP_ENV", "production"),
		Store:         getEnv("STORE", StoreMemory),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "ecommerce"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		Media:         getEnv("MEDIA", MediaMemory),
		CloudName:     os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudAPIKey:   os.Getenv("CLOUDINARY_API_KEY"),
		CloudSecret:   os.Getenv("CLOUDINARY_SECRET_KEY"),
	}

	var err error
	if c.MongoTx, err = strconv.ParseBool(getEnv("MONGODB_TRANSACTIONS", "false")); err != nil {
		return Config{}, fmt.Errorf("MONGODB_TRANSACTIONS: %w", err)
	}
	if c.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "168h")); err != nil {
		return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if c.TokenTTL <= 0 {
		return Config{}, errors.New("TOKEN_TTL must be positive")
	}
	if c.DeliveryFee, err = decimal.NewFromString(getEnv("DELIVERY_FEE", "10")); err != nil {
		return Config{}, fmt.Errorf("DELIVERY_FEE: %w", err)
	}
	if c.DeliveryFee.IsNegative() {
		return Config{}, errors.New("DELIVERY_FEE cannot be negative")
	}
	c.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174"))

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AdminEmail == "" || c.AdminPassword == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	switch c.Store {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required when STORE=mongo")
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	switch c.Media {
	case MediaMemory:
	case MediaCloudinary:
		if c.CloudName == "" || c.CloudAPIKey == "" || c.CloudSecret == "" {
			return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_SECRET_KEY are required when MEDIA=cloudinary")
		}
	default:
		return fmt.Errorf("unknown MEDIA %q", c.Media)
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
