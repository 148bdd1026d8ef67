package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven defaults for browser sessions and the
// remote-control server. Per-session options set in code take precedence.
type Config struct {
	// Browser defaults
	Browser        string
	BinaryLocation string
	CDPAddress     string
	CDPPort        int
	UserDataDir    string

	// Session defaults for the remote-control server
	Undetectable bool
	Headless     bool
	Servername   string
	StartURL     string

	// Remote-control server
	ServerHost       string
	ServerPort       int
	PortCandidates   []string
	PortAutoFallback bool

	// Evaluation behavior
	EvalTimeout time.Duration

	// Logging
	LogDir   string
	LogLevel string

	// Capture settings for log_cdp_events sessions
	DataDir          string
	MaxFileSizeMB    int
	BufferSize       int
	HTTPMaxBodyBytes int
	WSMaxFrameBytes  int

	// Screenshot storage
	ScreenshotDir string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		Browser:          getEnvOrDefault("UC_BROWSER", "chrome"),
		BinaryLocation:   getEnvOrDefault("UC_BINARY_LOCATION", ""),
		CDPAddress:       getEnvOrDefault("UC_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("UC_CDP_PORT", 0),
		UserDataDir:      getEnvOrDefault("UC_USER_DATA_DIR", ""),
		Undetectable:     getEnvBoolOrDefault("UC_UNDETECTABLE", true),
		Headless:         getEnvBoolOrDefault("UC_HEADLESS", false),
		Servername:       getEnvOrDefault("UC_SERVERNAME", ""),
		StartURL:         getEnvOrDefault("UC_START_URL", ""),
		ServerHost:       getEnvOrDefault("UC_SERVER_HOST", "127.0.0.1"),
		ServerPort:       getEnvIntOrDefault("UC_SERVER_PORT", 8750),
		PortAutoFallback: getEnvBoolOrDefault("UC_SERVER_PORT_AUTO_FALLBACK", true),
		EvalTimeout:      getEnvDurationOrDefault("UC_EVAL_TIMEOUT", 30*time.Second),
		LogDir:           getEnvOrDefault("UC_LOG_DIR", "./logs"),
		LogLevel:         getEnvOrDefault("UC_LOG_LEVEL", "info"),
		DataDir:          getEnvOrDefault("UC_DATA_DIR", "./cdp_data"),
		MaxFileSizeMB:    getEnvIntOrDefault("UC_MAX_FILE_SIZE_MB", 200),
		BufferSize:       getEnvIntOrDefault("UC_BUFFER_SIZE", 5000),
		HTTPMaxBodyBytes: getEnvIntOrDefault("UC_HTTP_MAX_BODY_BYTES", 50*1024*1024),
		WSMaxFrameBytes:  getEnvIntOrDefault("UC_WS_MAX_FRAME_BYTES", 20*1024*1024),
		ScreenshotDir:    getEnvOrDefault("UC_SCREENSHOT_DIR", "./screenshots"),
	}
	cfg.PortCandidates = candidateAddrs(cfg.ServerHost,
		getEnvOrDefault("UC_SERVER_PORT_CANDIDATES", "8750,8751,8752"))

	return cfg, nil
}

// candidateAddrs expands a comma-separated port list into host:port bind
// addresses, skipping entries that are not ports.
func candidateAddrs(host, ports string) []string {
	var out []string
	for _, p := range strings.Split(ports, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := strconv.Atoi(p); err != nil {
			continue
		}
		out = append(out, fmt.Sprintf("%s:%s", host, p))
	}
	return out
}

// GetCDPURL returns the CDP HTTP endpoint for the configured address and port.
func (c *Config) GetCDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

// GetServerAddr returns the listen address for the remote-control server.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
