package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
)

// ChainEntry is one link of the tamper-evident evidence log. Hash covers the
// entry's canonical JSON with Hash itself zeroed; PrevHash chains entries.
type ChainEntry struct {
	ID        string                `json:"id"`
	Timestamp time.Time             `json:"timestamp"`
	Entry     *contracts.AuditEntry `json:"entry"`
	PrevHash  string                `json:"prevHash,omitempty"`
	Hash      string                `json:"hash,omitempty"`
}

// EvidenceLog is an in-memory hash-chained audit sink. Every appended entry
// carries the hash of its predecessor, so any mutation of history is
// detectable with Verify.
type EvidenceLog struct {
	mu       sync.RWMutex
	entries  []ChainEntry
	lastHash string
}

// NewEvidenceLog creates an empty evidence log.
func NewEvidenceLog() *EvidenceLog {
	return &EvidenceLog{}
}

// CreateAuditLog appends an entry to the chain, implementing
// contracts.AuditSink.
func (l *EvidenceLog) CreateAuditLog(_ context.Context, entry *contracts.AuditEntry) (string, error) {
	return l.Append(entry)
}

// Append links an entry onto the chain and returns its id.
func (l *EvidenceLog) Append(entry *contracts.AuditEntry) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ce := ChainEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Entry:     entry,
		PrevHash:  l.lastHash,
	}
	h, err := hashChainEntry(&ce)
	if err != nil {
		return "", err
	}
	ce.Hash = h
	l.lastHash = h
	l.entries = append(l.entries, ce)
	return ce.ID, nil
}

// Entries returns a copy of the chain in append order.
func (l *EvidenceLog) Entries() []ChainEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ChainEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesBetween returns entries with start <= timestamp < end. Zero bounds
// are open.
func (l *EvidenceLog) EntriesBetween(start, end time.Time) []ChainEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []ChainEntry
	for _, e := range l.entries {
		if !start.IsZero() && e.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && !e.Timestamp.Before(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ChainHead returns the hash of the newest entry, or "" for an empty log.
func (l *EvidenceLog) ChainHead() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastHash
}

// Verify walks the chain and reports integrity. On failure it returns the
// index of the first broken link; intact logs return (true, -1).
func (l *EvidenceLog) Verify() (bool, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prevHash := ""
	for i, e := range l.entries {
		if e.PrevHash != prevHash {
			return false, i
		}
		expected, err := hashChainEntry(&e)
		if err != nil || e.Hash != expected {
			return false, i
		}
		prevHash = e.Hash
	}
	return true, -1
}

// hashChainEntry hashes the canonical JSON of the entry with Hash cleared.
func hashChainEntry(e *ChainEntry) (string, error) {
	clone := *e
	clone.Hash = ""
	raw, err := json.Marshal(&clone)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
