package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lifecycle is the uniform audit envelope embedded in every aggregate:
// creation, modification, and tombstone metadata. Soft-deleted rows keep
// their data; queries exclude rows with a non-null deleted_at.
type Lifecycle struct {
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	CreatedBy *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	UpdatedBy *uuid.UUID `db:"updated_by" json:"updated_by,omitempty"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	DeletedBy *uuid.UUID `db:"deleted_by" json:"deleted_by,omitempty"`
}

// Touch stamps creation metadata on a fresh aggregate.
func (l *Lifecycle) Touch(now time.Time, by *uuid.UUID) {
	l.CreatedAt = now
	l.CreatedBy = by
	l.UpdatedAt = now
	l.UpdatedBy = by
}

// StringList is a JSONB-backed list of strings.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("StringList.Scan: unsupported source type %T", src)
	}
}

// UUIDList is a JSONB-backed list of UUIDs.
type UUIDList []uuid.UUID

// Value implements driver.Valuer.
func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		l = UUIDList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *UUIDList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = UUIDList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("UUIDList.Scan: unsupported source type %T", src)
	}
}

// Contains reports whether id is present in the list.
func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}
