package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"chessclub-bot/internal/common/validation"
	"chessclub-bot/internal/domain/access"
	domain "chessclub-bot/internal/domain/user"
	"chessclub-bot/internal/service/admin"
	"chessclub-bot/internal/service/broadcast"
	"chessclub-bot/internal/service/stats"
)

const (
	logLines       = 20
	logLineMax     = 100
	maxMessageSize = 4000
	usersPageSize  = 15
)

const (
	msgBanned          = "🚫 You are banned from using this bot."
	msgAdminDenied     = "❌ Access denied. Administrator privileges required."
	msgAdminBanned     = "❌ Access denied. You are banned from using this bot."
	msgNotRegistered   = "❌ You need to finish registration first. Send /start to begin."
	msgInvalidHandle   = "❌ Invalid Lichess username.\n\nUsernames are 3 to 20 characters long and may contain letters, digits, <code>_</code> and <code>-</code>. Please try again."
	msgReceived        = "✅ Message received. Use /help to see what I can do."
	msgUnknownCommand  = "❓ Unknown command. Use /help to see the available commands."
	msgInternalError   = "❌ Something went wrong. Please try again later."
	msgInvalidUserID   = "❌ Invalid user ID format."
	msgNoUsers         = "📝 No users in the database yet."
	msgNoLogs          = "📋 No logs found."
	msgLogFileNotFound = "📋 Log file not found."
)

const helpText = `📋 <b>Bot help</b>

<b>Commands:</b>
• /start - start the bot and register
• /help - show this help
• /info - your account details and activity
• /balance - your current balance

<b>How it works:</b>
1. Send /start and reply with your Lichess username to register
2. New accounts are credited with 100 points
3. Contact an administrator for anything else

Some commands are reserved for administrators.`

const adminMenuText = `👑 <b>Admin panel</b>

• /stats - bot statistics
• /users - recently active users
• /broadcast &lt;message&gt; - message every user
• /ban &lt;user_id&gt; - ban a user
• /unban &lt;user_id&gt; - lift a ban
• /addadmin &lt;user_id&gt; - grant admin rights
• /removeadmin &lt;user_id&gt; - revoke admin rights
• /setbalance &lt;user_id&gt; &lt;amount&gt; - set a balance
• /logs - recent log lines`

func orUnset(s string) string {
	if s == "" {
		return "not set"
	}
	return html.EscapeString(s)
}

func formatDate(ts domain.Timestamp) string {
	if ts.IsZero() {
		return "unknown"
	}
	return ts.Format("2006-01-02")
}

func welcomeUnregistered(firstName string) string {
	return fmt.Sprintf(`🤖 <b>Welcome to the chess club bot!</b>

Hi %s! To finish registration, please send your <b>Lichess username</b> (without @).

You will be credited with %d points once registered.

No Lichess account yet? Create one at https://lichess.org/signup`, html.EscapeString(firstName), domain.DefaultBalance)
}

func welcomeRegistered(firstName string) string {
	return fmt.Sprintf(`🤖 <b>Welcome back!</b>

Hi %s! Here is what you can do:

• /help - show help
• /info - your account details
• /balance - your current balance

For administrative actions please contact an administrator.`, html.EscapeString(firstName))
}

func registrationAccepted(handle string) string {
	return fmt.Sprintf(`✅ <b>Registration complete!</b>

Lichess account: <b>%s</b>
Starting balance: <b>%d</b> points 💰

Use /info to see your account or /balance for your balance.`, html.EscapeString(handle), domain.DefaultBalance)
}

func infoText(msg Message, p domain.Profile, a domain.Activity, hasActivity bool) string {
	username := "not set"
	if msg.Username != "" {
		username = "@" + html.EscapeString(msg.Username)
	}
	firstSeen, lastSeen := "now", "now"
	messages, commands := 1, 1
	if hasActivity {
		firstSeen, lastSeen = formatDate(a.FirstSeen), formatDate(a.LastSeen)
		messages, commands = a.MessageCount, len(a.CommandsUsed)
	}

	var b strings.Builder
	b.WriteString("👤 <b>Your account</b>\n\n")
	fmt.Fprintf(&b, "• <b>Telegram ID:</b> <code>%d</code>\n", msg.UserID)
	fmt.Fprintf(&b, "• <b>Telegram username:</b> %s\n", username)
	fmt.Fprintf(&b, "• <b>First name:</b> %s\n", orUnset(msg.FirstName))
	fmt.Fprintf(&b, "• <b>Last name:</b> %s\n", orUnset(msg.LastName))
	fmt.Fprintf(&b, "• <b>Lichess account:</b> %s\n\n", orUnset(p.Handle()))
	fmt.Fprintf(&b, "• <b>Balance:</b> %d points 💰\n\n", p.Balance)
	fmt.Fprintf(&b, "• <b>Registered:</b> %s\n", formatDate(p.CreatedAt))
	fmt.Fprintf(&b, "• <b>First seen:</b> %s\n", firstSeen)
	fmt.Fprintf(&b, "• <b>Last active:</b> %s\n", lastSeen)
	fmt.Fprintf(&b, "• <b>Messages sent:</b> %d\n", messages)
	fmt.Fprintf(&b, "• <b>Commands used:</b> %d\n\n", commands)
	b.WriteString("Use /help for the command list or /balance for your balance.")
	return b.String()
}

func balanceText(p domain.Profile) string {
	return fmt.Sprintf(`💰 <b>Your balance</b>

• <b>Balance:</b> %d points
• <b>Lichess account:</b> %s
• <b>Status:</b> active ✅`, p.Balance, orUnset(p.Handle()))
}

func statsText(s stats.Summary) string {
	ids := make([]string, len(s.AdminIDs))
	for i, id := range s.AdminIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	var b strings.Builder
	b.WriteString("📊 <b>Bot statistics</b>\n\n<b>Users:</b>\n")
	fmt.Fprintf(&b, "• Total users: %d\n", s.TotalUsers)
	fmt.Fprintf(&b, "• Active (7 days): %d\n", s.ActiveUsers)
	fmt.Fprintf(&b, "• Fully registered: %d\n", s.RegisteredUsers)
	fmt.Fprintf(&b, "• With Lichess account: %d\n", s.UsersWithHandle)
	fmt.Fprintf(&b, "• Banned: %d\n\n", s.BannedUsers)
	b.WriteString("<b>Activity:</b>\n")
	fmt.Fprintf(&b, "• Total messages: %d\n", s.TotalMessages)
	fmt.Fprintf(&b, "• Messages per user: %.1f\n\n", s.AvgMessagesPerUser)
	b.WriteString("<b>Balances:</b>\n")
	fmt.Fprintf(&b, "• Total: %d points\n", s.TotalBalance)
	fmt.Fprintf(&b, "• Average: %.1f points\n\n", s.AvgBalance)
	b.WriteString("<b>Administration:</b>\n")
	fmt.Fprintf(&b, "• Admins: %d\n", len(s.AdminIDs))
	fmt.Fprintf(&b, "• Admin IDs: %s\n\n", strings.Join(ids, ", "))
	fmt.Fprintf(&b, "Updated: %s", s.GeneratedAt.Format(time.DateTime))
	return b.String()
}

func usersText(list stats.UserList) string {
	if list.Total == 0 {
		return msgNoUsers
	}

	var b strings.Builder
	b.WriteString("👥 <b>Users</b>\n\n")
	for _, u := range list.Users {
		name := "no username"
		if u.Username != "" {
			name = "@" + html.EscapeString(u.Username)
		}
		marker := ""
		switch u.Status {
		case access.StatusAdmin:
			marker = " 👑"
		case access.StatusBanned:
			marker = " 🚫"
		}
		registered := "❌"
		if u.Registered {
			registered = "✅"
		}
		lastSeen := "unknown"
		if !u.LastSeen.IsZero() {
			lastSeen = u.LastSeen.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "• <b>%d</b> (%s)%s\n", u.ID, name, marker)
		fmt.Fprintf(&b, "  ├ Lichess: %s\n", orUnset(u.Handle))
		fmt.Fprintf(&b, "  ├ Balance: %d points\n", u.Balance)
		fmt.Fprintf(&b, "  ├ Registered: %s | Messages: %d\n", registered, u.MessageCount)
		fmt.Fprintf(&b, "  └ Last active: %s\n\n", lastSeen)
	}
	if list.Remaining > 0 {
		fmt.Fprintf(&b, "... and %d more\n", list.Remaining)
	}
	b.WriteString("\n<b>Totals:</b>\n")
	fmt.Fprintf(&b, "• Users: %d\n", list.Total)
	fmt.Fprintf(&b, "• Registered: %d\n", list.RegisteredUsers)
	fmt.Fprintf(&b, "• Balances: %d points", list.TotalBalance)
	return b.String()
}

func usageText(command, args string) string {
	return fmt.Sprintf("❌ Missing argument.\nUsage: <code>/%s %s</code>", command, args)
}

func broadcastBody(text string) string {
	return "📢 <b>Admin Broadcast</b>\n\n" + html.EscapeString(text)
}

func broadcastReport(r broadcast.Report) string {
	return fmt.Sprintf(`📢 <b>Broadcast finished</b>

• Delivered: %d
• Failed: %d
• Skipped (banned): %d
• Total users: %d`, r.Sent, r.Failed, r.Skipped, r.Total)
}

func broadcastTooLong() string {
	return fmt.Sprintf("❌ Broadcast message is too long (max %d characters).", validation.MaxBroadcastLength)
}

func adminOutcomeText(action string, target int64, o admin.Outcome) string {
	switch o {
	case admin.Done:
		switch action {
		case "ban":
			return fmt.Sprintf("✅ User %d has been banned.", target)
		case "unban":
			return fmt.Sprintf("✅ User %d has been unbanned.", target)
		case "addadmin":
			return fmt.Sprintf("✅ User %d is now an administrator.", target)
		case "removeadmin":
			return fmt.Sprintf("✅ User %d is no longer an administrator.", target)
		}
	case admin.TargetIsAdmin:
		return "❌ Cannot ban an administrator."
	case admin.AlreadyBanned:
		return "❌ User is already banned."
	case admin.NotBanned:
		return "❌ User is not banned."
	case admin.TargetBanned:
		return "❌ Banned users cannot be made administrators. Unban them first."
	case admin.AlreadyAdmin:
		return "❌ User is already an administrator."
	case admin.SelfRemoval:
		return "❌ You cannot remove yourself as administrator."
	case admin.NotAdmin:
		return "❌ User is not an administrator."
	}
	return msgInternalError
}

func balanceSetText(target int64, balance int) string {
	return fmt.Sprintf("✅ Balance of user %d set to %d points.", target, balance)
}

func notificationText(e admin.Event) string {
	switch e {
	case admin.EventBanned:
		return "🚫 You have been banned from using this bot."
	case admin.EventUnbanned:
		return "✅ You have been unbanned and can now use the bot again."
	case admin.EventPromoted:
		return "👑 Congratulations! You have been promoted to administrator."
	case admin.EventDemoted:
		return "ℹ️ Your administrator privileges have been removed."
	}
	return ""
}

// logsText renders the tail of the log file, shortening long lines and
// dropping whatever does not fit in one message.
func logsText(lines []string) string {
	if len(lines) == 0 {
		return msgNoLogs
	}
	const head, tail = "📋 <b>Recent logs:</b>\n\n<pre>", "</pre>"
	var b strings.Builder
	b.WriteString(head)
	size := utf8.RuneCountInString(head) + len(tail)
	for _, line := range lines {
		if r := []rune(line); len(r) > logLineMax {
			line = string(r[:logLineMax-3]) + "..."
		}
		line = html.EscapeString(line) + "\n"
		n := utf8.RuneCountInString(line)
		if size+n > maxMessageSize {
			break
		}
		size += n
		b.WriteString(line)
	}
	b.WriteString(tail)
	return b.String()
}
