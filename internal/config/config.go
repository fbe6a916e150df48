package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Document store
	MongoURI            string
	MongoDatabase       string
	CollectedCollection string
	GeneratedCollection string
	NewspaperCollection string

	// Metrics sink
	RedisURL   string
	PipelineID string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiMaxTokens      int
	GeminiConcurrentReqs int

	// Subtitle pipeline
	SubtitleCacheDir  string
	TargetLanguages   []string
	ExtensionPriority []string

	// Collector
	MaxVideosPerChannel int

	// Newspaper assembly
	ReadingWPM int
	UserDayTZ  string

	// User provider
	UsersFile string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		MongoURI:             mustGetEnv("MONGO_URI"),
		MongoDatabase:        getEnvOrDefault("MONGO_DATABASE", "gazette"),
		CollectedCollection:  getEnvOrDefault("COLLECTED_COLLECTION", "collected_content"),
		GeneratedCollection:  getEnvOrDefault("GENERATED_COLLECTION", "generated_content"),
		NewspaperCollection:  getEnvOrDefault("NEWSPAPER_COLLECTION", "newspapers"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		PipelineID:           getEnvOrDefault("PIPELINE_ID", "adhoc"),
		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiMaxTokens:      getEnvAsIntOrDefault("GEMINI_MAX_TOKENS", 32768),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 3),
		SubtitleCacheDir:     getEnvOrDefault("SUBTITLE_CACHE_DIR", "./subtitle_cache"),
		TargetLanguages:      getEnvAsListOrDefault("TARGET_LANGUAGES", []string{"en", "hi"}),
		ExtensionPriority:    getEnvAsListOrDefault("SUBTITLE_EXTENSIONS", []string{"srt", "vtt", "json3"}),
		MaxVideosPerChannel:  getEnvAsIntOrDefault("MAX_VIDEOS_PER_CHANNEL", 5),
		ReadingWPM:           getEnvAsIntOrDefault("READING_WPM", 200),
		UserDayTZ:            getEnvOrDefault("USER_DAY_TZ", "Asia/Kolkata"),
		UsersFile:            getEnvOrDefault("USERS_FILE", "./users.yaml"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
