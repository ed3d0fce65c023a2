package model

import "time"

// AuditLog is one mutating HTTP request as recorded by the audit consumer.
type AuditLog struct {
	Base
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"statusCode"`
	DurationMs int64     `json:"durationMs"`
	RemoteIP   string    `json:"remoteIp"`
	OccurredOn time.Time `json:"occurredOn"`
}

func (*AuditLog) TableName() string { return "audit_logs" }

func (*AuditLog) Columns() []string {
	return withBase("user_id", "username", "method", "path", "status_code", "duration_ms", "remote_ip", "occurred_on")
}

func (a *AuditLog) Values() []any {
	return append(a.baseValues(), a.UserID, a.Username, a.Method, a.Path, a.StatusCode, a.DurationMs, a.RemoteIP, a.OccurredOn)
}

func (a *AuditLog) ScanDest() []any {
	return append(a.baseDest(), &a.UserID, &a.Username, &a.Method, &a.Path, &a.StatusCode, &a.DurationMs, &a.RemoteIP, &a.OccurredOn)
}
