package nutricoach

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// CheckoutLogger is the interface for checkout audit logging.
type CheckoutLogger interface {
	LogItem(item ItemLog) error
}

// NewCheckoutLogFilePath returns a file path keyed by timestamp and
// session id so concurrent sessions produce separate audit logs.
func NewCheckoutLogFilePath(sessionID string) string {
	return fmt.Sprintf("./logs/%d.%s.json", time.Now().Unix(), sessionID)
}

// ItemLog records the outcome of one ingredient in a checkout run.
type ItemLog struct {
	Ingredient string    `json:"ingredient"`
	Timestamp  time.Time `json:"timestamp"`
	Query      string    `json:"query,omitempty"`
	Product    string    `json:"product,omitempty"`
	Count      int       `json:"count,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// Failed reports whether the item was skipped rather than added.
func (l ItemLog) Failed() bool { return l.Reason != "" }

// FileCheckoutLogger logs to a file, accumulating items and flushing at the end
type FileCheckoutLogger struct {
	items  []ItemLog
	writer io.Writer
}

// NewFileCheckoutLogger creates a new file-based checkout logger
func NewFileCheckoutLogger(writer io.Writer) *FileCheckoutLogger {
	return &FileCheckoutLogger{
		items:  make([]ItemLog, 0),
		writer: writer,
	}
}

// LogItem logs an item to the buffer (does not flush immediately)
func (fcl *FileCheckoutLogger) LogItem(item ItemLog) error {
	fcl.items = append(fcl.items, item)
	return nil
}

// Flush flushes all accumulated items to the writer
func (fcl *FileCheckoutLogger) Flush() error {
	if fcl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"checkout_session": map[string]any{
			"timestamp": time.Now(),
			"items":     fcl.items,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkout log: %w", err)
	}

	if _, err := fcl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write checkout log: %w", err)
	}

	// Clear the buffer after successful write
	fcl.items = fcl.items[:0]
	return nil
}

// NoOpCheckoutLogger is a logger that discards all log entries
type NoOpCheckoutLogger struct{}

// NewNoOpCheckoutLogger creates a new no-op checkout logger
func NewNoOpCheckoutLogger() *NoOpCheckoutLogger {
	return &NoOpCheckoutLogger{}
}

// LogItem discards the item log (no-op)
func (nop *NoOpCheckoutLogger) LogItem(item ItemLog) error {
	return nil
}

// StdoutCheckoutLogger logs each item as a JSON line to stdout (for Lambda/CloudWatch)
type StdoutCheckoutLogger struct{}

// NewStdoutCheckoutLogger creates a new stdout-based checkout logger
func NewStdoutCheckoutLogger() *StdoutCheckoutLogger {
	return &StdoutCheckoutLogger{}
}

// LogItem writes the item as a JSON line to os.Stdout
func (l *StdoutCheckoutLogger) LogItem(item ItemLog) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
