package stats

import (
	"context"
	"slices"
	"time"

	"chessclub-bot/internal/domain/access"
	domain "chessclub-bot/internal/domain/user"
)

// ActiveWindow is how recently a user must have written to count as active.
const ActiveWindow = 7 * 24 * time.Hour

type Records interface {
	LoadProfiles(ctx context.Context) map[int64]domain.Profile
	LoadActivity(ctx context.Context) map[int64]domain.Activity
}

type Membership interface {
	Admins() []int64
	Banned() []int64
	Status(id int64) access.Status
}

type Summary struct {
	TotalUsers         int       `json:"total_users"`
	ActiveUsers        int       `json:"active_users"`
	RegisteredUsers    int       `json:"registered_users"`
	UsersWithHandle    int       `json:"users_with_handle"`
	BannedUsers        int       `json:"banned_users"`
	TotalMessages      int       `json:"total_messages"`
	AvgMessagesPerUser float64   `json:"avg_messages_per_user"`
	TotalBalance       int       `json:"total_balance"`
	AvgBalance         float64   `json:"avg_balance"`
	AdminIDs           []int64   `json:"admin_ids"`
	GeneratedAt        time.Time `json:"generated_at"`
}

type UserRow struct {
	ID           int64         `json:"id"`
	Username     string        `json:"username,omitempty"`
	LastSeen     time.Time     `json:"last_seen"`
	MessageCount int           `json:"message_count"`
	Handle       string        `json:"handle,omitempty"`
	Balance      int           `json:"balance"`
	Registered   bool          `json:"registered"`
	Status       access.Status `json:"status"`
}

type UserList struct {
	Users           []UserRow `json:"users"`
	Total           int       `json:"total"`
	Remaining       int       `json:"remaining"`
	RegisteredUsers int       `json:"registered_users"`
	TotalBalance    int       `json:"total_balance"`
}

type Service struct {
	records Records
	access  Membership
}

func NewService(records Records, access Membership) *Service {
	return &Service{records: records, access: access}
}

func (s *Service) Summary(ctx context.Context, now time.Time) Summary {
	activity := s.records.LoadActivity(ctx)
	profiles := s.records.LoadProfiles(ctx)

	sum := Summary{
		TotalUsers:  len(activity),
		BannedUsers: len(s.access.Banned()),
		AdminIDs:    s.access.Admins(),
		GeneratedAt: now,
	}

	cutoff := now.Add(-ActiveWindow)
	for _, a := range activity {
		sum.TotalMessages += a.MessageCount
		if a.LastSeen.After(cutoff) {
			sum.ActiveUsers++
		}
	}
	for _, p := range profiles {
		sum.TotalBalance += p.Balance
		if p.Registered() {
			sum.RegisteredUsers++
			if p.Handle() != "" {
				sum.UsersWithHandle++
			}
		}
	}
	if sum.TotalUsers > 0 {
		sum.AvgMessagesPerUser = float64(sum.TotalMessages) / float64(sum.TotalUsers)
	}
	if sum.RegisteredUsers > 0 {
		sum.AvgBalance = float64(sum.TotalBalance) / float64(sum.RegisteredUsers)
	}
	return sum
}

// ListUsers returns up to limit users, most recently seen first.
// A limit of zero or less returns everyone.
func (s *Service) ListUsers(ctx context.Context, limit int) UserList {
	activity := s.records.LoadActivity(ctx)
	profiles := s.records.LoadProfiles(ctx)

	rows := make([]UserRow, 0, len(activity))
	for id, a := range activity {
		rows = append(rows, s.row(id, a, profiles[id]))
	}
	slices.SortFunc(rows, func(a, b UserRow) int {
		if c := b.LastSeen.Compare(a.LastSeen); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	list := UserList{Total: len(rows)}
	for _, p := range profiles {
		list.TotalBalance += p.Balance
		if p.Registered() {
			list.RegisteredUsers++
		}
	}
	if limit > 0 && len(rows) > limit {
		list.Remaining = len(rows) - limit
		rows = rows[:limit]
	}
	list.Users = rows
	return list
}

// User returns a single row. ok is false when the user has neither activity nor a profile.
func (s *Service) User(ctx context.Context, id int64) (UserRow, bool) {
	a, seen := s.records.LoadActivity(ctx)[id]
	p, hasProfile := s.records.LoadProfiles(ctx)[id]
	if !seen && !hasProfile {
		return UserRow{}, false
	}
	return s.row(id, a, p), true
}

func (s *Service) row(id int64, a domain.Activity, p domain.Profile) UserRow {
	return UserRow{
		ID:           id,
		Username:     a.DisplayName(),
		LastSeen:     a.LastSeen.Time,
		MessageCount: a.MessageCount,
		Handle:       p.Handle(),
		Balance:      p.Balance,
		Registered:   p.Registered(),
		Status:       s.access.Status(id),
	}
}
