package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetdocs/internal/logging"
)

// DefaultHistoryLimit is the default number of audit entries returned.
const DefaultHistoryLimit = 50

// ErrAuditUnavailable is returned when no readable audit sink is configured.
var ErrAuditUnavailable = errors.New("audit log not configured")

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionRowCreate   AuditAction = "row_create"
	ActionRowUpdate   AuditAction = "row_update"
	ActionRowDelete   AuditAction = "row_delete"
	ActionBulkDelete  AuditAction = "bulk_delete"
	ActionTableReset  AuditAction = "table_reset"
	ActionAuthRebind  AuditAction = "auth_rebind"
	ActionFolderDrift AuditAction = "folder_drift"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry represents a single audit log entry. OldValues and NewValues
// hold the full row before and after the mutation.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	TableKey     string        `json:"tableKey"`
	RowKey       string        `json:"rowKey,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	OldValues    Record        `json:"oldValues,omitempty"`
	NewValues    Record        `json:"newValues,omitempty"`
	RowsAffected int           `json:"rowsAffected,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditLogParams contains parameters for creating an audit log entry.
type AuditLogParams struct {
	Action       AuditAction
	TableKey     string
	RowKey       string
	OldValues    Record
	NewValues    Record
	RowsAffected int
	Reason       string
}

// AuditLogFilter contains filtering options for querying audit logs.
type AuditLogFilter struct {
	TableKey string
	Action   AuditAction
	Limit    int
	Offset   int
}

// AuditSink stores audit entries.
type AuditSink interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// AuditReader is implemented by sinks that can be queried. Entries are
// returned newest first.
type AuditReader interface {
	List(ctx context.Context, filter AuditLogFilter) ([]AuditEntry, error)
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionRowDelete, ActionBulkDelete:
		return SeverityHigh
	case ActionTableReset:
		return SeverityCritical
	case ActionFolderDrift:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// LogAudit creates a new audit log entry. Caller details are taken from
// ctx. Without a sink the entry is built but not stored.
func (s *Service) LogAudit(ctx context.Context, params AuditLogParams) (*AuditEntry, error) {
	entry := &AuditEntry{
		ID:           uuid.NewString(),
		Action:       params.Action,
		Severity:     determineSeverity(params.Action),
		TableKey:     params.TableKey,
		RowKey:       params.RowKey,
		IPAddress:    IPAddressFromContext(ctx),
		UserAgent:    UserAgentFromContext(ctx),
		OldValues:    params.OldValues,
		NewValues:    params.NewValues,
		RowsAffected: params.RowsAffected,
		Reason:       params.Reason,
		CreatedAt:    time.Now().UTC(),
	}
	if s.audit == nil {
		return entry, nil
	}
	if err := s.audit.Append(ctx, *entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// recordAudit logs an audit entry for a completed mutation. A sink failure
// never fails the mutation; it is only logged.
func (s *Service) recordAudit(ctx context.Context, params AuditLogParams) {
	if _, err := s.LogAudit(ctx, params); err != nil {
		logging.FromContext(ctx).Error("audit entry not stored",
			"action", params.Action, "table", params.TableKey, "row", params.RowKey, "error", err)
	}
}

// GetAuditLog retrieves audit log entries with optional filtering.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]AuditEntry, error) {
	reader, ok := s.audit.(AuditReader)
	if !ok {
		return nil, ErrAuditUnavailable
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}
	return reader.List(ctx, filter)
}

// MemoryAudit keeps the most recent audit entries in process memory.
type MemoryAudit struct {
	mu      sync.RWMutex
	entries []AuditEntry
	max     int
}

// NewMemoryAudit creates an in-memory audit log holding at most max
// entries. A non-positive max keeps every entry.
func NewMemoryAudit(max int) *MemoryAudit {
	return &MemoryAudit{max: max}
}

// Append stores an entry, dropping the oldest when full.
func (m *MemoryAudit) Append(_ context.Context, entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if m.max > 0 && len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
	return nil
}

// List returns matching entries, newest first.
func (m *MemoryAudit) List(_ context.Context, filter AuditLogFilter) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []AuditEntry
	for _, e := range m.entries {
		if filter.TableKey != "" && e.TableKey != filter.TableKey {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	// Entries are appended in time order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
