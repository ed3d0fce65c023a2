// Package model holds the persisted records of the back office. Each record
// describes its own table mapping (table, columns, key, values, scan
// destinations) so the generic repository can read and write it without
// reflection.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Base carries the identity and audit columns shared by every entity.
// ModifiedBy and ModifiedOn stay nil until the first update.
type Base struct {
	ID         uuid.UUID  `json:"id"`
	IsActive   bool       `json:"isActive"`
	CreatedBy  string     `json:"createdBy"`
	CreatedOn  time.Time  `json:"createdOn"`
	ModifiedBy *string    `json:"modifiedBy,omitempty"`
	ModifiedOn *time.Time `json:"modifiedOn,omitempty"`
}

var baseColumns = []string{"id", "is_active", "created_by", "created_on", "modified_by", "modified_on"}

// withBase prefixes the entity specific columns with the Base columns.
func withBase(cols ...string) []string {
	out := make([]string, 0, len(baseColumns)+len(cols))
	out = append(out, baseColumns...)
	return append(out, cols...)
}

func (b *Base) KeyColumns() []string { return []string{"id"} }
func (b *Base) KeyValues() []any     { return []any{b.ID} }

func (b *Base) baseValues() []any {
	return []any{b.ID, b.IsActive, b.CreatedBy, b.CreatedOn, b.ModifiedBy, b.ModifiedOn}
}

func (b *Base) baseDest() []any {
	return []any{&b.ID, &b.IsActive, &b.CreatedBy, &b.CreatedOn, &b.ModifiedBy, &b.ModifiedOn}
}

// StampCreated assigns a fresh identifier when none is set, marks the row
// active and records who created it.
func (b *Base) StampCreated(by string, at time.Time) {
	if b.ID == uuid.Nil {
		b.ID = NewID()
	}
	b.IsActive = true
	b.CreatedBy = by
	b.CreatedOn = at.UTC()
}

// StampModified records the last writer.
func (b *Base) StampModified(by string, at time.Time) {
	at = at.UTC()
	b.ModifiedBy = &by
	b.ModifiedOn = &at
}

// NewID returns a random identifier for records that need their id before
// they are staged (e.g. to reference them from join rows).
func NewID() uuid.UUID { return uuid.Must(uuid.NewV4()) }
