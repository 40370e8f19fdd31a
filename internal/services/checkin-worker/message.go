package checkin_worker

import (
	"fmt"
	"html"
	"strings"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/domain/checkin"
)

const timeLayout = "2006-01-02 15:04:05"

// Compose builds the notification text. Dynamic parts are HTML-escaped since
// the message is sent with parse_mode HTML.
func Compose(now time.Time, loc *time.Location, s config.Settings, title, body string) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🕒 time: %s\n", now.In(loc).Format(timeLayout))
	fmt.Fprintf(&b, "🌐 domain: %s\n", html.EscapeString(Mask(s.Domain)))
	fmt.Fprintf(&b, "📥 accounts: %d\n\n", len(s.Accounts))
	b.WriteString(html.EscapeString(title))
	b.WriteString("\n")
	b.WriteString(html.EscapeString(body))
	return b.String()
}

// LoadLocation falls back to UTC for an empty or unknown zone name.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func successTitle(trig checkin.Trigger, single bool) string {
	if single {
		return "✅ " + string(trig) + " checkin succeeded"
	}
	return "📋 " + string(trig) + " checkin report"
}

func failureTitle(trig checkin.Trigger, single bool) string {
	if single {
		return "❌ " + string(trig) + " checkin failed"
	}
	return "❌ " + string(trig) + " checkin aborted"
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
