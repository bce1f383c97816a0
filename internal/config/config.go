// Package config handles service configuration
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
)

type Config struct {
	HTTPAddr     string
	GRPCAddr     string
	CameraSource string // empty waits for /api/set_camera
	StaticDir    string
	CORSOrigins  []string
	LogLevel     string

	// Measurement
	ROISize              int
	HistoryLen           int
	ConsistencyThreshold float64 // CIEDE2000 units
	KMeansClusters       int
	KMeansAttempts       int
	KMeansSeed           uint64
	KMeansMaxIter        int
	ConcurrentRegions    bool
	DefaultLighting      string
	IdleInterval         time.Duration

	// Frame sources
	SourceFPS           int
	StaleHashDistance   int // negative disables stale-frame detection
	SourceMissThreshold int
	SourceResetTimeout  time.Duration
}

func Load() *Config {
	return &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":5000"),
		GRPCAddr:     getEnv("GRPC_ADDR", ":50051"),
		CameraSource: os.Getenv("CAMERA_SOURCE"),
		StaticDir:    getEnv("STATIC_DIR", "static"),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"*"}),
		LogLevel:     getEnv("LOG_LEVEL", "debug"),

		ROISize:              getEnvInt("ROI_SIZE", 160),
		HistoryLen:           getEnvInt("HISTORY_LEN", 10),
		ConsistencyThreshold: getEnvFloat("CONSISTENCY_THRESHOLD", 2.0),
		KMeansClusters:       getEnvInt("KMEANS_CLUSTERS", 5),
		KMeansAttempts:       getEnvInt("KMEANS_ATTEMPTS", 3),
		KMeansSeed:           getEnvUint64("KMEANS_SEED", 42),
		KMeansMaxIter:        getEnvInt("KMEANS_MAX_ITER", 300),
		ConcurrentRegions:    getEnvBool("CONCURRENT_REGIONS", true),
		DefaultLighting:      getEnv("DEFAULT_LIGHTING", "D65"),
		IdleInterval:         getEnvDuration("IDLE_INTERVAL", 10*time.Millisecond),

		SourceFPS:           getEnvInt("SOURCE_FPS", 15),
		StaleHashDistance:   getEnvInt("STALE_HASH_DISTANCE", 0),
		SourceMissThreshold: getEnvInt("SOURCE_MISS_THRESHOLD", 30),
		SourceResetTimeout:  getEnvDuration("SOURCE_RESET_TIMEOUT", 2*time.Second),
	}
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return invalid("HTTP_ADDR", "must not be empty")
	case c.ROISize <= 0:
		return invalid("ROI_SIZE", "must be positive")
	case c.HistoryLen <= 0:
		return invalid("HISTORY_LEN", "must be positive")
	case c.ConsistencyThreshold <= 0:
		return invalid("CONSISTENCY_THRESHOLD", "must be positive")
	case c.KMeansClusters <= 0:
		return invalid("KMEANS_CLUSTERS", "must be positive")
	case c.KMeansAttempts <= 0:
		return invalid("KMEANS_ATTEMPTS", "must be positive")
	case c.KMeansMaxIter <= 0:
		return invalid("KMEANS_MAX_ITER", "must be positive")
	case strings.TrimSpace(c.DefaultLighting) == "":
		return invalid("DEFAULT_LIGHTING", "must not be blank")
	case c.IdleInterval <= 0:
		return invalid("IDLE_INTERVAL", "must be positive")
	case c.SourceFPS <= 0:
		return invalid("SOURCE_FPS", "must be positive")
	case c.SourceMissThreshold <= 0:
		return invalid("SOURCE_MISS_THRESHOLD", "must be positive")
	case c.SourceResetTimeout <= 0:
		return invalid("SOURCE_RESET_TIMEOUT", "must be positive")
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return invalid("LOG_LEVEL", "must be debug, info, warn or error")
	}
	return nil
}

// SlogLevel returns LOG_LEVEL as a slog level, defaulting to debug.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelDebug, false
}

func invalid(key, msg string) error {
	return apperrors.Newf(apperrors.CodeConfigInvalid, "%s %s", key, msg).WithMetadata("key", key)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvUint64(key string, def uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseUint(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
