// Package models defines the log records accepted from tenants and the
// filters used to read them back.
package models

import (
	"slices"
	"time"

	id "logdata/pkg/domain"
	s "logdata/pkg/string"
	"logdata/pkg/validation"
)

// LevelError is the only level that triggers alert fan-out. Matching is exact.
const LevelError = "ERROR"

// LogPayload is the structured body a tenant submits.
type LogPayload struct {
	Timestamp string         `json:"timestamp"`
	Host      string         `json:"host" validate:"max=255"`
	Service   string         `json:"service" validate:"max=255"`
	Level     string         `json:"level" validate:"required,notblank,max=32"`
	Event     map[string]any `json:"event"`
	User      map[string]any `json:"user"`
	Message   string         `json:"message" validate:"required"`
	Tags      []string       `json:"tags" validate:"max=64,dive,max=128"`
}

func (p *LogPayload) Normalize() {
	if p == nil {
		return
	}
	s.TrimStrings(&p.Timestamp, &p.Host, &p.Service)
	p.Tags = s.CompactSlice(p.Tags)
}

func (p *LogPayload) Validate() error {
	return validation.Validate(p)
}

// UserName extracts the submitting user's name from the free-form user object,
// preferring "name" over "username".
func (p *LogPayload) UserName() string {
	for _, key := range []string{"name", "username"} {
		if v, ok := p.User[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Record is a stored log. Records are never mutated after ingestion.
type Record struct {
	ID         id.LogID    `json:"id"`
	TenantID   id.TenantID `json:"company_id"`
	TenantName string      `json:"company_name"`
	Log        LogPayload  `json:"log"`
	ReceivedAt time.Time   `json:"received_at"`
}

func NewRecord(tenantID id.TenantID, tenantName string, payload LogPayload, receivedAt time.Time) *Record {
	payload.Tags = slices.Clone(payload.Tags)
	return &Record{
		ID:         id.NewLogID(),
		TenantID:   tenantID,
		TenantName: tenantName,
		Log:        payload,
		ReceivedAt: receivedAt,
	}
}

// HasAnyTag reports whether the record carries at least one of tags.
func (r *Record) HasAnyTag(tags []string) bool {
	for _, t := range r.Log.Tags {
		if slices.Contains(tags, t) {
			return true
		}
	}
	return false
}

// AlertStatus reports what happened to alerting for an ingested log.
type AlertStatus string

const (
	AlertSent        AlertStatus = "sent"
	AlertNotRequired AlertStatus = "not_required"
	AlertFailed      AlertStatus = "failed"
)

// IngestResult is returned for every stored log, including when alerting failed.
type IngestResult struct {
	Record *Record
	Alert  AlertStatus
}

// SearchFilter selects stored logs. Zero-valued fields are not applied.
// The time range applies only when both bounds are set.
type SearchFilter struct {
	TenantID id.TenantID
	Level    string
	UserName string
	Tags     []string
	Start    *time.Time
	End      *time.Time
	Limit    int
}

func (f SearchFilter) HasTimeRange() bool {
	return f.Start != nil && f.End != nil
}

// Matches applies the filter to a single record. Stores that cannot push the
// filter down use it directly.
func (f SearchFilter) Matches(r *Record) bool {
	if !f.TenantID.IsNil() && r.TenantID != f.TenantID {
		return false
	}
	if f.Level != "" && r.Log.Level != f.Level {
		return false
	}
	if f.UserName != "" && r.Log.UserName() != f.UserName {
		return false
	}
	if len(f.Tags) > 0 && !r.HasAnyTag(f.Tags) {
		return false
	}
	if f.HasTimeRange() && (r.ReceivedAt.Before(*f.Start) || r.ReceivedAt.After(*f.End)) {
		return false
	}
	return true
}
