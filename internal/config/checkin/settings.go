package checkin_config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/NordCoder/autocheckin/internal/domain/checkin"
)

// Override keys, as read from the config file or the environment (upper-cased).
const (
	KeyDomain      = "domain"
	KeyAccounts    = "accounts"
	KeyEmail       = "email"
	KeyPassword    = "password"
	KeyTriggerPath = "trigger_path"
	KeyTGBotToken  = "tg_bot_token"
	KeyTGChatID    = "tg_chat_id"
	KeyMaxRetry    = "max_retry"
)

var OverrideKeys = []string{
	KeyDomain, KeyAccounts, KeyEmail, KeyPassword,
	KeyTriggerPath, KeyTGBotToken, KeyTGChatID, KeyMaxRetry,
}

const AccountDelimiter = "&"

type Account = checkin.Account

// Settings is the effective per-invocation configuration. It is a value:
// every run builds its own and passes it down explicitly.
type Settings struct {
	Domain      string `validate:"required,http_url"`
	Accounts    []Account
	Single      bool
	TriggerPath string `validate:"required,startswith=/,ne=/"`
	TGBotToken  string
	TGChatID    string
	MaxRetry    int `validate:"gte=1"`

	// raw override values that could not be parsed, reported by Validate
	invalid []string
}

func DefaultSettings() Settings {
	return Settings{
		Domain:      "https://ikuuu.one",
		TriggerPath: "/auto-checkin",
		MaxRetry:    3,
	}
}

// NotifyEnabled reports whether both Telegram credentials are present.
func (s Settings) NotifyEnabled() bool {
	return s.TGBotToken != "" && s.TGChatID != ""
}

// Source yields freshly resolved settings for one invocation.
type Source interface {
	Settings() (Settings, error)
}

// Static is a Source that always returns the same settings.
type Static Settings

func (s Static) Settings() (Settings, error) { return Settings(s), nil }

// Resolve merges non-empty overrides onto def. It never fails: a malformed
// value leaves the field invalid for Validate to report. Credentials are not
// checked here.
func Resolve(def Settings, overrides map[string]string) Settings {
	out := def
	out.Accounts = append([]Account(nil), def.Accounts...)
	out.invalid = append([]string(nil), def.invalid...)

	pick := func(key, fallback string) string {
		if v := overrides[key]; v != "" {
			return v
		}
		return fallback
	}

	out.Domain = pick(KeyDomain, def.Domain)
	out.TriggerPath = pick(KeyTriggerPath, def.TriggerPath)
	out.TGBotToken = pick(KeyTGBotToken, def.TGBotToken)
	out.TGChatID = pick(KeyTGChatID, def.TGChatID)

	if raw := strings.TrimSpace(overrides[KeyMaxRetry]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = 0
			out.invalid = append(out.invalid, fmt.Sprintf("%s %q is not an integer", KeyMaxRetry, raw))
		}
		out.MaxRetry = n
	}

	switch {
	case overrides[KeyAccounts] != "":
		out.Accounts = ParseAccounts(overrides[KeyAccounts])
		out.Single = false
	case overrides[KeyEmail] != "":
		out.Accounts = []Account{{Email: overrides[KeyEmail], Password: overrides[KeyPassword]}}
		out.Single = true
	}
	return out
}

// ParseAccounts pairs "email1&pass1&email2&pass2" into accounts. A dangling
// email keeps an empty password.
func ParseAccounts(raw string) []Account {
	if raw == "" {
		return nil
	}
	tokens := strings.Split(raw, AccountDelimiter)
	out := make([]Account, 0, (len(tokens)+1)/2)
	for i := 0; i < len(tokens); i += 2 {
		acc := Account{Email: tokens[i]}
		if i+1 < len(tokens) {
			acc.Password = tokens[i+1]
		}
		out = append(out, acc)
	}
	return out
}

var (
	validate = validator.New()

	errNotHTTPURL     = errors.New("must be an absolute http(s) URL")
	errNoLeadingSlash = errors.New("must start with /")
	errMustBePositive = errors.New("must be at least 1")
	errRequired       = errors.New("is required")
	errIsIndex        = errors.New("must not be / (reserved for the index page)")
)

var settingsErrors = map[string]error{
	"Settings.Domain.required":        errRequired,
	"Settings.Domain.http_url":        errNotHTTPURL,
	"Settings.TriggerPath.required":   errRequired,
	"Settings.TriggerPath.startswith": errNoLeadingSlash,
	"Settings.TriggerPath.ne":         errIsIndex,
	"Settings.MaxRetry.gte":           errMustBePositive,
}

// Validate is the fail-fast boundary check run before any outbound call.
func (s Settings) Validate() error {
	msgs := append([]string(nil), s.invalid...)
	err := validate.Struct(s)
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
	default:
		return &ConfigError{Msg: "invalid settings", Err: err}
	}
	for _, e := range verrs {
		key := e.StructNamespace() + "." + e.Tag()
		msg := fmt.Sprintf("%s is invalid", e.Field())
		if v, ok := settingsErrors[key]; ok {
			msg = e.Field() + " " + v.Error()
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}
	return &ConfigError{Msg: "invalid settings: " + strings.Join(msgs, "; ")}
}
