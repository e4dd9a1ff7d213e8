package policy

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Record is one audit record (§4.7). No headers, bodies, or query values are
// ever included — only the call's shape and outcome.
type Record struct {
	Timestamp    time.Time
	Method       string
	PathTemplate string
	HasQuery     bool
	Status       int
	OK           bool
	DurationMS   int64
}

// Sink persists audit records. Implementations must be safe for concurrent
// use: every invocation through the same Engine writes through it.
type Sink interface {
	Write(Record)
}

// NoopSink discards every record; selected when no audit file is configured.
type NoopSink struct{}

func (NoopSink) Write(Record) {}

// WriterSink serialises each record as one line onto an underlying
// io.Writer (typically a pkg/logging.RotatingFile), in the format named by
// §6.3's LOG_FORMAT ("json" or "tsv").
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

func NewWriterSink(w io.Writer, format string) *WriterSink {
	return &WriterSink{w: w, format: format}
}

func (s *WriterSink) Write(r Record) {
	var line string
	switch s.format {
	case "tsv":
		line = fmt.Sprintf("%s\t%s\t%s\t%t\t%d\t%t\t%d\n",
			r.Timestamp.Format(time.RFC3339), r.Method, r.PathTemplate, r.HasQuery, r.Status, r.OK, r.DurationMS)
	default:
		b, err := json.Marshal(struct {
			Timestamp    string `json:"timestamp"`
			Method       string `json:"method"`
			PathTemplate string `json:"pathTemplate"`
			HasQuery     bool   `json:"hasQuery"`
			Status       int    `json:"status"`
			OK           bool   `json:"ok"`
			DurationMS   int64  `json:"durationMs"`
		}{
			Timestamp:    r.Timestamp.Format(time.RFC3339),
			Method:       r.Method,
			PathTemplate: r.PathTemplate,
			HasQuery:     r.HasQuery,
			Status:       r.Status,
			OK:           r.OK,
			DurationMS:   r.DurationMS,
		})
		if err != nil {
			return
		}
		line = string(b) + "\n"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, line)
}
