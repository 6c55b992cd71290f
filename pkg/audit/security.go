// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/auth"
	"github.com/pulse-labs/pulse-assistant/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection detects SQL injection patterns
	// in text handed to the assistant or one of its tools.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventWarehouseQuery is logged for every SQL statement the assistant runs
	// against the warehouse (can be high volume).
	EventWarehouseQuery SecurityEventType = "warehouse_query"
	// EventSessionSetup is logged when a new assistant session is opened with a credential.
	EventSessionSetup SecurityEventType = "session_setup"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	SessionID uuid.UUID         `json:"session_id"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails contains specifics of a detected SQL injection attempt.
type InjectionDetails struct {
	Input       string `json:"input"`       // which input carried the payload (question, topic, ...)
	Value       string `json:"value"`       // the offending text
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
	Tool        string `json:"tool"`        // tool that received the input
}

// WarehouseQueryDetails contains specifics of a SQL statement the assistant executed.
type WarehouseQueryDetails struct {
	SQL             string `json:"sql"`
	RowCount        int64  `json:"row_count"`
	Success         bool   `json:"success"`
	ErrorMessage    string `json:"error_message,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
// The logger is automatically configured with "security_audit" namespace for easy
// filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	// Create a child logger with security-specific namespace for SIEM parsing
	securityLogger := logger.Named("security_audit")
	return &SecurityAuditor{logger: securityLogger}
}

// LogInjectionAttempt records a detected SQL injection attempt with full context.
// This is logged at ERROR level with "critical" severity for immediate alerting.
//
// The context is used to extract the originating client address when the
// middleware has recorded one.
//
// Example usage:
//
//	auditor.LogInjectionAttempt(ctx, sessionID,
//	    audit.InjectionDetails{
//	        Input:       "question",
//	        Value:       "'; DROP TABLE reviews_forLS--",
//	        Fingerprint: "s&1c",
//	        Tool:        "execute_sql",
//	    },
//	)
func (a *SecurityAuditor) LogInjectionAttempt(
	ctx context.Context,
	sessionID uuid.UUID,
	details InjectionDetails,
) {
	clientIP := auth.GetClientIPFromContext(ctx)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSQLInjectionAttempt,
		SessionID: sessionID,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  "critical",
	}

	// Serialize event to JSON for SIEM ingestion
	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	// Log at ERROR level to ensure visibility in monitoring systems
	a.logger.Error("SQL injection attempt detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("session_id", sessionID.String()),
		zap.String("input", details.Input),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("tool", details.Tool),
		zap.String("client_ip", clientIP),
		zap.String("severity", "critical"),
	)
}

// LogWarehouseQuery records a SQL statement the assistant ran against the warehouse.
// Successful executions are logged at INFO level, failures at WARN level.
// Note: this can generate high log volume with chatty sessions.
func (a *SecurityAuditor) LogWarehouseQuery(
	ctx context.Context,
	sessionID uuid.UUID,
	details WarehouseQueryDetails,
) {
	clientIP := auth.GetClientIPFromContext(ctx)

	// Truncate and scrub the statement; audit events are not the place
	// to replay full query text.
	details.SQL = logging.SanitizeQuery(details.SQL)

	severity := "info"
	if !details.Success {
		severity = "warning"
	}

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventWarehouseQuery,
		SessionID: sessionID,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  severity,
	}

	eventJSON, _ := json.Marshal(event)

	fields := []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("session_id", sessionID.String()),
		zap.Int64("row_count", details.RowCount),
		zap.Int64("execution_time_ms", details.ExecutionTimeMs),
		zap.String("client_ip", clientIP),
		zap.String("severity", severity),
	}

	if details.Success {
		a.logger.Info("Warehouse query executed", fields...)
		return
	}

	fields = append(fields, zap.String("error", details.ErrorMessage))
	a.logger.Warn("Warehouse query failed", fields...)
}

// LogSessionSetup records that a new assistant session was opened.
// This is logged at INFO level for the audit trail. The credential itself
// is never included; only the model the session was opened with.
func (a *SecurityAuditor) LogSessionSetup(
	ctx context.Context,
	sessionID uuid.UUID,
	model string,
) {
	clientIP := auth.GetClientIPFromContext(ctx)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSessionSetup,
		SessionID: sessionID,
		ClientIP:  clientIP,
		Details: map[string]string{
			"model": model,
		},
		Severity: "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Assistant session opened",
		zap.String("event_json", string(eventJSON)),
		zap.String("session_id", sessionID.String()),
		zap.String("model", model),
		zap.String("client_ip", clientIP),
		zap.String("severity", "info"),
	)
}
