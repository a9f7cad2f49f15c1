package collections

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AutoFieldKind marks a field whose value is conventionally generated
// rather than typed in by hand. Detection is name-based and advisory:
// an explicitly provided value always wins over a generated one.
type AutoFieldKind string

const (
	AutoNone      AutoFieldKind = ""
	AutoCreatedAt AutoFieldKind = "created_at"
	AutoUpdatedAt AutoFieldKind = "updated_at"
	AutoRandomID  AutoFieldKind = "random_id"
	AutoSequence  AutoFieldKind = "sequence"
	AutoUserID    AutoFieldKind = "user_id"
)

// DetectAutoField classifies a field by name. Only exact conventional
// names match; a near-miss like "author_id" is left alone.
func DetectAutoField(name string) AutoFieldKind {
	switch strings.ToLower(name) {
	case "created_at", "createdat", "created", "create_time":
		return AutoCreatedAt
	case "updated_at", "updatedat", "modified_at", "modified", "update_time":
		return AutoUpdatedAt
	case "user_id", "userid", "uid", "owner_id":
		return AutoUserID
	case "id", "uuid", "guid":
		return AutoRandomID
	case "seq", "sequence", "counter":
		return AutoSequence
	default:
		return AutoNone
	}
}

// Generate produces a value for an auto field: the current time for
// timestamps, a fresh UUID for IDs, and a monotonic number for
// sequences.
func (k AutoFieldKind) Generate() any {
	switch k {
	case AutoCreatedAt, AutoUpdatedAt:
		return time.Now().UTC().Format(time.RFC3339)
	case AutoRandomID:
		return uuid.NewString()
	case AutoUserID:
		return "user-" + uuid.NewString()[:8]
	case AutoSequence:
		return time.Now().UnixNano()
	default:
		return nil
	}
}

// Description explains the kind for interactive prompts.
func (k AutoFieldKind) Description() string {
	switch k {
	case AutoCreatedAt:
		return "creation timestamp, filled automatically"
	case AutoUpdatedAt:
		return "update timestamp, filled automatically"
	case AutoRandomID:
		return "random identifier, filled automatically"
	case AutoUserID:
		return "user identifier, filled automatically"
	case AutoSequence:
		return "sequence number, filled automatically"
	default:
		return ""
	}
}
