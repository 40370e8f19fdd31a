package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/domain/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegram_notifier_messages_sent_total",
		Help: "Messages accepted by the Bot API",
	})
	mSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegram_notifier_messages_skipped_total",
		Help: "Messages not sent because bot token or chat id is missing",
	})
	mErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegram_notifier_errors_total",
		Help: "Notifications that failed to deliver",
	})
)

type sendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type Telegram struct {
	c       *http.Client
	apiBase string
	timeout time.Duration

	log *zap.Logger
}

var _ checkin.Notifier = (*Telegram)(nil)

func New(cfg config.NotifyCfg, c *http.Client) *Telegram {
	// not wrapped with otelhttp: the bot token is part of the URL
	if c == nil {
		c = &http.Client{}
	}
	return &Telegram{
		c:       c,
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		timeout: cfg.Timeout,
		log:     zap.L().With(zap.String("component", "telegram-notifier")),
	}
}

func (t *Telegram) WithLogger(l *zap.Logger) *Telegram {
	if l == nil {
		return t
	}
	cp := *t
	cp.log = obs.Component(l, "telegram-notifier")
	return &cp
}

// Notify delivers text to one chat. Delivery problems are logged and counted;
// they never fail the checkin that produced the message.
func (t *Telegram) Notify(ctx context.Context, dst checkin.Destination, text string) {
	log := obs.WithTrace(ctx, t.log)
	if dst.Token == "" || dst.ChatID == "" {
		mSkipped.Inc()
		log.Debug("telegram not configured, skipping notification")
		return
	}
	if err := t.send(ctx, dst, text); err != nil {
		mErrors.Inc()
		// the bot token is part of the URL, keep it out of the log
		log.Warn("telegram notification failed", zap.String("error", redact(err.Error(), dst.Token)))
		return
	}
	mSent.Inc()
	log.Info("telegram notification sent")
}

func (t *Telegram) send(ctx context.Context, dst checkin.Destination, text string) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	body, err := json.Marshal(sendMessage{
		ChatID:                dst.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, dst.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "<token>")
}
