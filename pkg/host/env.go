package host

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oasbridge/bridge/pkg/logging"
	"github.com/oasbridge/bridge/pkg/policy"
)

// PolicyConfigFromEnv reads the policy knobs recognised by the core
// (§7.3), applying the documented defaults.
func PolicyConfigFromEnv() policy.Config {
	return policy.Config{
		AllowedMethods:     splitCSV(getenv("ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE")),
		AllowedPaths:       splitCSV(getenv("ALLOWED_PATHS", "*")),
		RateLimit:          atoiDefault("RATE_LIMIT", 60),
		RateWindow:         time.Duration(atoiDefault("RATE_WINDOW_MS", 60000)) * time.Millisecond,
		RateBurst:          atoiDefault("RATE_BURST", 0),
		Concurrency:        atoiDefault("CONCURRENCY", 0),
		ConcurrencyPerPath: atoiDefault("CONCURRENCY_PER_PATH", 0),
	}
}

// AuditSinkFromEnv builds the policy audit sink named by §7.3's LOG_FILE
// family: a rotating file when LOG_FILE is set, a no-op otherwise. The
// returned closer, if non-nil, must be closed at shutdown.
func AuditSinkFromEnv() (policy.Sink, func() error, error) {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		return policy.NoopSink{}, nil, nil
	}

	opts := []logging.Option{}
	if size := atoiDefault("LOG_MAX_SIZE", 0); size > 0 {
		opts = append(opts, logging.WithMaxSize(int64(size)))
	}
	if backups := atoiDefault("LOG_MAX_FILES", 0); backups > 0 {
		opts = append(opts, logging.WithMaxBackups(backups))
	}

	file, err := logging.NewRotatingFile(path, opts...)
	if err != nil {
		return nil, nil, err
	}

	format := getenv("LOG_FORMAT", "json")
	return policy.NewWriterSink(file, format), file.Close, nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func atoiDefault(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
