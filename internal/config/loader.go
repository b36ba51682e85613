package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	minBufferSize     = 4096
	maxBufferSize     = 1048576
	defaultBufferSize = 32768
)

type config struct {
	host     string
	httpPort string

	bufferSize     int
	maxBufferSize  int
	maxConnections int
	idleTimeout    time.Duration

	healthEnabled bool
	healthPort    string

	pprofEnabled bool
	pprofPort    string

	logLevel       string
	logDevelopment bool
}

func parse() (*config, error) {
	host := getenv("HOST", "")
	httpPort := getenv("HTTP_PORT", "8080")

	bufferSize := parseBufferSize()

	maxBuffered, err := getenvInt("MAX_BUFFER_SIZE", 1<<20)
	if err != nil {
		return nil, err
	}
	if maxBuffered < bufferSize {
		return nil, fmt.Errorf("MAX_BUFFER_SIZE must not be smaller than BUFFER_SIZE (%d)", bufferSize)
	}

	maxConns, err := getenvInt("MAX_CONNECTIONS", 0)
	if err != nil {
		return nil, err
	}
	if maxConns < 0 {
		return nil, fmt.Errorf("MAX_CONNECTIONS must not be negative")
	}

	idleTimeout, err := getenvDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	healthEnabled := getenvBool("HEALTH_ENABLED", false)
	healthPort := getenv("HEALTH_PORT", "8081")

	pprofEnabled := getenvBool("PPROF_ENABLED", false)
	pprofPort := getenv("PPROF_PORT", "6060")

	logLevel := strings.ToLower(getenv("LOG_LEVEL", "info"))
	if _, err = zapcore.ParseLevel(logLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL value: %w", err)
	}
	logDevelopment := getenvBool("LOG_DEVELOPMENT", false)

	return &config{
		host:           host,
		httpPort:       httpPort,
		bufferSize:     bufferSize,
		maxBufferSize:  maxBuffered,
		maxConnections: maxConns,
		idleTimeout:    idleTimeout,
		healthEnabled:  healthEnabled,
		healthPort:     healthPort,
		pprofEnabled:   pprofEnabled,
		pprofPort:      pprofPort,
		logLevel:       logLevel,
		logDevelopment: logDevelopment,
	}, nil
}

func loadEnvFile() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

func parseBufferSize() int {
	raw := getenv("BUFFER_SIZE", strconv.Itoa(defaultBufferSize))
	size, err := strconv.Atoi(raw)
	if err != nil || size < minBufferSize || size > maxBufferSize {
		log.Printf("Invalid BUFFER_SIZE, falling back to %d", minBufferSize)
		return minBufferSize
	}
	return size
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val == "true"
}

func getenvInt(key string, def int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
