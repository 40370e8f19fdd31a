package checkin

import (
	"context"
	"time"
)

type Client interface {
	Checkin(ctx context.Context, domain string, acc Account) (string, error)
}

// Destination addresses one chat. Empty fields disable delivery.
type Destination struct {
	Token  string
	ChatID string
}

type Notifier interface {
	Notify(ctx context.Context, dst Destination, text string)
}

type ReportPublisher interface {
	PublishReport(ctx context.Context, r *Report) error
}

type Clock interface {
	Now() time.Time
}
