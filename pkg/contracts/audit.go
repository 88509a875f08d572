package contracts

import "context"

// AuditEntry is the record handed to the injected audit sink.
// Metadata MUST be PII-free: counts, hashes, violation codes, evidence ids.
type AuditEntry struct {
	ActorID    string         `json:"actorId,omitempty"`
	ActorEmail string         `json:"actorEmail"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Changes    map[string]any `json:"changes,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	RequestID  string         `json:"requestId,omitempty"`
}

// CheckStatus is the outcome recorded on a compliance-check entry.
type CheckStatus string

const (
	CheckStatusPassed        CheckStatus = "passed"
	CheckStatusFailed        CheckStatus = "failed"
	CheckStatusPendingReview CheckStatus = "pending_review"
)

// ComplianceCheckEntry is the record handed to the compliance-check sink when
// a gate run produced violations. Severity carries the worst severity present.
type ComplianceCheckEntry struct {
	EntityType     string         `json:"entityType"`
	EntityID       string         `json:"entityId"`
	MarketID       string         `json:"marketId"`
	CheckType      string         `json:"checkType"`
	Status         CheckStatus    `json:"status"`
	Severity       Severity       `json:"severity"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Details        map[string]any `json:"details"`
	Recommendation string         `json:"recommendation,omitempty"`
}

// AuditSink persists audit entries. Implementations may block; the engine
// calls them best-effort with a per-call deadline.
type AuditSink interface {
	CreateAuditLog(ctx context.Context, entry *AuditEntry) (auditID string, err error)
}

// ComplianceCheckSink persists compliance-check records.
type ComplianceCheckSink interface {
	CreateComplianceCheck(ctx context.Context, entry *ComplianceCheckEntry) (checkID string, err error)
}
