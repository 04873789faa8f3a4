package models

import (
	"time"

	dErrors "logdata/pkg/domain-errors"
	s "logdata/pkg/string"
	"logdata/pkg/validation"
)

// SearchRequest is the client-facing filter. The tenant is never taken from
// the request; it comes from the verified token.
type SearchRequest struct {
	Level    string     `json:"level" validate:"max=32"`
	UserName string     `json:"user_name" validate:"max=255"`
	Tags     []string   `json:"tags" validate:"max=64"`
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
	Limit    int        `json:"limit" validate:"gte=0"`
}

func (r *SearchRequest) Normalize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.Level, &r.UserName)
	r.Tags = s.CompactSlice(r.Tags)
}

func (r *SearchRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return dErrors.New(dErrors.CodeValidation, "end must not be before start")
	}
	return nil
}
