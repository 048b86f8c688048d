package main

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPPort          int
	RedisAddr         string
	RedisPassword     string
	BuilderbotBaseURL string
	BuilderbotBotID   string
	BuilderbotAPIKey  string
	CORSOrigins       []string
	MediaMaxRetry     int
}

// LoadConfig reads configuration from the environment. The Redis credential
// pair selects the durable backend; everything else has a local-dev default.
func LoadConfig() *Config {
	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	maxRetry := 3
	if v := os.Getenv("MEDIA_MAX_RETRY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxRetry = n
		}
	}

	origins := []string{"http://localhost:3000"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}

	baseURL := os.Getenv("BUILDERBOT_BASE_URL")
	if baseURL == "" {
		baseURL = "https://app.builderbot.cloud"
	}

	return &Config{
		HTTPPort:          port,
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		BuilderbotBaseURL: baseURL,
		BuilderbotBotID:   os.Getenv("BUILDERBOT_BOT_ID"),
		BuilderbotAPIKey:  os.Getenv("BUILDERBOT_API_KEY"),
		CORSOrigins:       origins,
		MediaMaxRetry:     maxRetry,
	}
}

// HasRedis reports whether both Redis credential variables are present.
func (c *Config) HasRedis() bool {
	return c.RedisAddr != "" && c.RedisPassword != ""
}

// IsHostedProduction detects a recognized hosted deployment, where running on
// the volatile in-memory backend would silently lose all data on restart.
func IsHostedProduction() bool {
	return os.Getenv("VERCEL") == "1" ||
		os.Getenv("RAILWAY_ENVIRONMENT") != "" ||
		os.Getenv("RAILWAY_ENVIRONMENT_NAME") != ""
}
