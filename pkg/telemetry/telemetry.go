// Package telemetry records curation cost as an append-only JSON-Lines log
// with windowed aggregation.
package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is one curation call's cost record. TS is epoch seconds.
type Event struct {
	TS           float64 `json:"ts"`
	Entity       string  `json:"entity"`
	LocationHint string  `json:"location_hint"`
	Source       string  `json:"source"`
	Category     string  `json:"category"`
	InputChars   int     `json:"input_chars"`
	OutputChars  int     `json:"output_chars"`
}

// EntityStats aggregates one entity's share of a window.
type EntityStats struct {
	Events      int `json:"events"`
	InputChars  int `json:"input_chars"`
	OutputChars int `json:"output_chars"`
}

// Summary aggregates all events inside a trailing window.
type Summary struct {
	WindowSeconds int64                  `json:"window_seconds"`
	Events        int                    `json:"events"`
	InputChars    int                    `json:"input_chars"`
	OutputChars   int                    `json:"output_chars"`
	PerEntity     map[string]EntityStats `json:"per_entity"`
}

// Log appends events to a single JSONL file. Appends are serialized by a
// mutex; entries are never rewritten.
type Log struct {
	path      string
	logger    *zap.Logger
	publisher Publisher
	now       func() time.Time

	mu sync.Mutex
}

// Option configures the log.
type Option func(*Log)

// WithPublisher forwards every recorded event to a stream publisher.
// Publish failures are logged and swallowed; the local log is authoritative.
func WithPublisher(p Publisher) Option {
	return func(l *Log) {
		if p != nil {
			l.publisher = p
		}
	}
}

// NewLog creates a telemetry log writing to path.
func NewLog(path string, logger *zap.Logger, opts ...Option) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("telemetry log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	l := &Log{
		path:      path,
		logger:    logger,
		publisher: NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Record appends one event. A zero TS is stamped with the current time.
func (l *Log) Record(ctx context.Context, event Event) error {
	if event.TS == 0 {
		event.TS = float64(l.now().UnixNano()) / float64(time.Second)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening telemetry log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending telemetry event: %w", err)
	}

	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.Warn("publishing telemetry event failed", zap.Error(err))
	}

	return nil
}

// Summarize aggregates events within the trailing window. A missing log file
// and malformed lines both count as zero; corruption never aborts.
func (l *Log) Summarize(window time.Duration) (*Summary, error) {
	summary := &Summary{
		WindowSeconds: int64(window.Seconds()),
		PerEntity:     make(map[string]EntityStats),
	}

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening telemetry log: %w", err)
	}
	defer f.Close()

	cutoff := float64(l.now().UnixNano())/float64(time.Second) - window.Seconds()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.TS < cutoff {
			continue
		}

		summary.Events++
		summary.InputChars += event.InputChars
		summary.OutputChars += event.OutputChars

		entity := event.Entity
		if entity == "" {
			entity = "unknown"
		}
		stats := summary.PerEntity[entity]
		stats.Events++
		stats.InputChars += event.InputChars
		stats.OutputChars += event.OutputChars
		summary.PerEntity[entity] = stats
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading telemetry log: %w", err)
	}

	return summary, nil
}

// Close releases the publisher.
func (l *Log) Close() error {
	return l.publisher.Close()
}
