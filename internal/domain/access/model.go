package access

import (
	"context"
	"slices"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allowed Decision = iota
	DeniedBanned
	DeniedNotAdmin
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedBanned:
		return "banned"
	case DeniedNotAdmin:
		return "not_admin"
	default:
		return "unknown"
	}
}

// Status is a user's standing in the two-tier model.
type Status string

const (
	StatusAdmin   Status = "admin"
	StatusBanned  Status = "banned"
	StatusRegular Status = "regular"
)

// Config is the admin and ban membership.
// The JSON field names are the on-disk contract of access.json.
type Config struct {
	Admins []int64 `json:"admin_ids"`
	Banned []int64 `json:"banned_users"`
}

// Normalized returns a copy with sorted, de-duplicated, non-nil lists.
func (c Config) Normalized() Config {
	return Config{Admins: normalize(c.Admins), Banned: normalize(c.Banned)}
}

func normalize(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	out = append(out, ids...)
	slices.Sort(out)
	return slices.Compact(out)
}

// Store persists the access lists. Load reports found=false when nothing was saved yet.
type Store interface {
	Load(ctx context.Context) (cfg Config, found bool, err error)
	Save(ctx context.Context, cfg Config) error
}
