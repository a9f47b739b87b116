package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessclub-bot/internal/domain/access"
	"chessclub-bot/internal/metrics"
	"chessclub-bot/internal/repository/jsonfile"
	accesssvc "chessclub-bot/internal/service/access"
	"chessclub-bot/internal/service/admin"
	"chessclub-bot/internal/service/broadcast"
	"chessclub-bot/internal/service/registration"
	"chessclub-bot/internal/service/stats"
	usersvc "chessclub-bot/internal/service/user"
)

const adminID int64 = 7

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[int64]bool
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID, text})
	if f.fail[chatID] {
		return errors.New("Forbidden: bot was blocked by the user")
	}
	return nil
}

func (f *fakeSender) to(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		if m.chatID == chatID {
			out = append(out, m.text)
		}
	}
	return out
}

type fixture struct {
	router *Router
	users  *usersvc.Service
	access *accesssvc.Service
	sender *fakeSender
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	m := metrics.NewMetrics(metrics.NewRegistry())
	log := zerolog.Nop()

	users := usersvc.NewService(
		jsonfile.NewProfileRepository(filepath.Join(dir, "user_profiles.json")),
		jsonfile.NewActivityRepository(filepath.Join(dir, "user_activity.json")),
		usersvc.WithMetrics(m),
	)
	acc := accesssvc.New(access.Config{Admins: []int64{adminID}}, jsonfile.NewAccessRepository(filepath.Join(dir, "access.json")), log)
	sender := &fakeSender{fail: map[int64]bool{}}
	delivery := NewDelivery(sender)

	router := NewRouter(Deps{
		Users:        users,
		Access:       acc,
		Registration: registration.NewService(users, m, log),
		Admin:        admin.NewService(acc, users, delivery, log),
		Broadcast:    broadcast.NewService(users, acc, delivery, m, log),
		Stats:        stats.NewService(users, acc),
		Metrics:      m,
		Logger:       log,
		LogFile:      filepath.Join(dir, "bot.log"),
		Now:          func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	return &fixture{router: router, users: users, access: acc, sender: sender, dir: dir}
}

func (f *fixture) send(id int64, text string) string {
	replies := f.router.Handle(context.Background(), Message{UserID: id, ChatID: id, Username: "user", FirstName: "Ann", Text: text})
	if len(replies) == 0 {
		return ""
	}
	return replies[0].Text
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)

	out := f.send(42, "/start")
	assert.Contains(t, out, "Lichess username")

	assert.Equal(t, msgNotRegistered, f.send(42, "/balance"))
	assert.Equal(t, msgInvalidHandle, f.send(42, "a!"))

	out = f.send(42, "Magnus_99")
	assert.Contains(t, out, "Registration complete")
	assert.Contains(t, out, "magnus_99")

	out = f.send(42, "/balance")
	assert.Contains(t, out, "100 points")
	assert.Contains(t, out, "magnus_99")

	assert.Equal(t, msgReceived, f.send(42, "hello again"))
	assert.Contains(t, f.send(42, "/start"), "Welcome back")

	out = f.send(42, "/info")
	assert.Contains(t, out, "<code>42</code>")
	assert.Contains(t, out, "Messages sent:</b> 8")

	a, ok := f.users.Activity(context.Background(), 42)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"/start", "/balance", "/info"}, a.CommandsUsed)
}

func TestBannedUserIsBlocked(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.access.BanUser(context.Background(), 13))

	assert.Equal(t, msgBanned, f.send(13, "/start"))
	assert.Equal(t, msgBanned, f.send(13, "somehandle"))
	assert.Equal(t, msgAdminBanned, f.send(13, "/stats"))
	assert.Equal(t, msgBanned, f.send(13, "/whatever"))

	// Activity is still recorded, the handle is not.
	a, ok := f.users.Activity(context.Background(), 13)
	require.True(t, ok)
	assert.Equal(t, 4, a.MessageCount)
	assert.False(t, f.users.IsRegistered(context.Background(), 13))
}

func TestNonAdminCannotBan(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, msgAdminDenied, f.send(50, "/ban 60"))
	assert.False(t, f.access.IsBanned(60))
}

func TestAdminBanCommands(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.send(adminID, "/ban"), "Usage")
	assert.Equal(t, msgInvalidUserID, f.send(adminID, "/ban abc"))
	assert.Equal(t, "❌ Cannot ban an administrator.", f.send(adminID, "/ban 7"))

	assert.Equal(t, "✅ User 60 has been banned.", f.send(adminID, "/ban 60"))
	assert.True(t, f.access.IsBanned(60))
	assert.Equal(t, []string{"🚫 You have been banned from using this bot."}, f.sender.to(60))
	assert.Equal(t, "❌ User is already banned.", f.send(adminID, "/ban 60"))

	assert.Equal(t, "✅ User 60 has been unbanned.", f.send(adminID, "/unban@club_bot 60"))
	assert.Equal(t, "❌ User is not banned.", f.send(adminID, "/unban 60"))
}

func TestAdminManagement(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "✅ User 8 is now an administrator.", f.send(adminID, "/addadmin 8"))
	assert.Equal(t, "❌ User is already an administrator.", f.send(adminID, "/addadmin 8"))
	assert.Contains(t, f.send(8, "/admin"), "Admin panel")

	assert.Equal(t, "❌ You cannot remove yourself as administrator.", f.send(adminID, "/removeadmin 7"))
	assert.Equal(t, "✅ User 8 is no longer an administrator.", f.send(adminID, "/removeadmin 8"))
	assert.Equal(t, msgAdminDenied, f.send(8, "/admin"))

	f.send(adminID, "/ban 9")
	assert.Contains(t, f.send(adminID, "/addadmin 9"), "Unban them first")
}

func TestSetBalance(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.send(adminID, "/setbalance 42"), "Usage")
	assert.Contains(t, f.send(adminID, "/setbalance 42 -5"), "non-negative")
	assert.Equal(t, "✅ Balance of user 42 set to 250 points.", f.send(adminID, "/setbalance 42 250"))

	p, ok := f.users.Profile(context.Background(), 42)
	require.True(t, ok)
	assert.Equal(t, 250, p.Balance)
}

func TestBroadcastCommand(t *testing.T) {
	f := newFixture(t)
	f.send(1, "hi")
	f.send(2, "hi")
	f.send(3, "hi")
	require.True(t, f.access.BanUser(context.Background(), 2))
	f.sender.fail[3] = true

	out := f.send(adminID, "/broadcast Club night <Friday>")
	assert.Contains(t, out, "Delivered: 2")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Skipped (banned): 1")

	assert.Equal(t, []string{"📢 <b>Admin Broadcast</b>\n\nClub night &lt;Friday&gt;"}, f.sender.to(1))
	assert.Empty(t, f.sender.to(2))

	assert.Contains(t, f.send(adminID, "/broadcast"), "Usage")
	assert.Contains(t, f.send(adminID, "/broadcast "+strings.Repeat("x", 4001)), "too long")
}

func TestStatsAndUsers(t *testing.T) {
	f := newFixture(t)
	f.send(42, "magnus")
	f.send(43, "/start")

	out := f.send(adminID, "/stats")
	assert.Contains(t, out, "Total users: 3")
	assert.Contains(t, out, "Fully registered: 1")
	assert.Contains(t, out, "Admin IDs: 7")

	out = f.send(adminID, "/users")
	assert.Contains(t, out, "<b>42</b>")
	assert.Contains(t, out, "Lichess: magnus")
	assert.Contains(t, out, "<b>7</b> (@user) 👑")
}

func TestLogsCommand(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, msgLogFileNotFound, f.send(adminID, "/logs"))

	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "line <"+strings.Repeat("a", i)+">")
	}
	lines = append(lines, strings.Repeat("z", 150))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "bot.log"), []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	out := f.send(adminID, "/logs")
	assert.NotContains(t, out, "line <>")
	assert.Contains(t, out, "line &lt;"+strings.Repeat("a", 29)+"&gt;")
	assert.Contains(t, out, strings.Repeat("z", 97)+"...")
	assert.NotContains(t, out, strings.Repeat("z", 98))
	assert.LessOrEqual(t, len([]rune(out)), maxMessageSize)
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, msgUnknownCommand, f.send(42, "/dance"))
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in, name, args string
		ok             bool
	}{
		{"/start", "start", "", true},
		{"/BAN@club_bot 42", "ban", "42", true},
		{"/broadcast hello   world ", "broadcast", "hello   world", true},
		{"/broadcast\nline two", "broadcast", "line two", true},
		{"hello", "", "", false},
		{"  /start", "", "", false},
		{"/start  ", "start", "", true},
	}
	for _, tc := range cases {
		name, args, ok := parseCommand(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.name, name, tc.in)
		assert.Equal(t, tc.args, args, tc.in)
	}
}

func TestUserContentIsEscaped(t *testing.T) {
	f := newFixture(t)
	replies := f.router.Handle(context.Background(), Message{
		UserID:    42,
		ChatID:    42,
		FirstName: `<b>"Ann" & 'Co'</b>`,
		Text:      "/start",
	})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "&lt;b&gt;&#34;Ann&#34; &amp; &#39;Co&#39;&lt;/b&gt;")
	assert.NotContains(t, replies[0].Text, "<b>\"Ann\"")
}

func TestLeadingSpaceIsNotACommand(t *testing.T) {
	f := newFixture(t)
	out := f.send(42, "  /stats")
	assert.NotEqual(t, msgAdminDenied, out)
	a, ok := f.users.Activity(context.Background(), 42)
	require.True(t, ok)
	assert.Empty(t, a.CommandsUsed)
}
