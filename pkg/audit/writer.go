// Package audit provides the built-in sink implementations for compliance
// decisions: a JSON-lines writer, a tamper-evident hash-chained evidence log,
// SQL-backed stores, and archive exporters.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
)

// WriterSink writes audit and compliance-check entries as JSON lines.
// It implements both contracts.AuditSink and contracts.ComplianceCheckSink
// and is safe for concurrent use.
type WriterSink struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewWriterSink creates a sink writing to os.Stdout.
func NewWriterSink() *WriterSink {
	return NewWriterSinkWithWriter(os.Stdout)
}

// NewWriterSinkWithWriter creates a sink writing to w.
// This allows injection for testing and custom destinations.
func NewWriterSinkWithWriter(w io.Writer) *WriterSink {
	if w == nil {
		w = os.Stdout
	}
	return &WriterSink{writer: w}
}

type auditLine struct {
	ID        string                `json:"id"`
	Kind      string                `json:"kind"`
	Timestamp time.Time             `json:"timestamp"`
	Audit     *contracts.AuditEntry `json:"audit,omitempty"`

	Check *contracts.ComplianceCheckEntry `json:"check,omitempty"`
}

func (s *WriterSink) CreateAuditLog(_ context.Context, entry *contracts.AuditEntry) (string, error) {
	id := uuid.New().String()
	return id, s.write(auditLine{
		ID:        id,
		Kind:      "audit_log",
		Timestamp: time.Now().UTC(),
		Audit:     entry,
	})
}

func (s *WriterSink) CreateComplianceCheck(_ context.Context, entry *contracts.ComplianceCheckEntry) (string, error) {
	id := uuid.New().String()
	return id, s.write(auditLine{
		ID:        id,
		Kind:      "compliance_check",
		Timestamp: time.Now().UTC(),
		Check:     entry,
	})
}

func (s *WriterSink) write(line auditLine) error {
	raw, err := json.Marshal(line)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Prefix with AUDIT: for easy filtering
	_, err = s.writer.Write(append([]byte("AUDIT: "), append(raw, '\n')...))
	return err
}
