package checkin_worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/domain/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"

	"go.uber.org/zap"
)

const maxBody = 1 << 20

type loginRequest struct {
	Email  string `json:"email"`
	Passwd string `json:"passwd"`
}

// panelResponse is the JSON envelope both panel endpoints answer with.
type panelResponse struct {
	Ret *int    `json:"ret"`
	Msg *string `json:"msg"`
}

// Session performs login then checkin for one account. It never retries.
type Session struct {
	c   *http.Client
	cfg config.HTTPCfg
	log *zap.Logger
}

var _ checkin.Client = (*Session)(nil)

func NewSession(c *http.Client, cfg config.HTTPCfg) *Session {
	if c == nil {
		c = NewHTTPClient(cfg)
	}
	return &Session{
		c:   c,
		cfg: cfg,
		log: zap.L().With(zap.String("component", "checkin.session")),
	}
}

func (s *Session) WithLogger(l *zap.Logger) *Session {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = obs.Component(l, "checkin.session")
	return &cp
}

func (s *Session) Checkin(ctx context.Context, domain string, acc checkin.Account) (string, error) {
	log := obs.WithTrace(ctx, s.log).With(zap.String("account", Mask(acc.Email)))
	if acc.Email == "" || acc.Password == "" {
		return "", &checkin.Error{
			Kind: checkin.KindMissingCredentials,
			Op:   "login",
			Err:  errors.New("email or password is empty"),
		}
	}
	domain = strings.TrimRight(domain, "/")

	log.Info("logging in")
	body, err := json.Marshal(loginRequest{Email: acc.Email, Passwd: acc.Password})
	if err != nil {
		return "", &checkin.Error{Kind: checkin.KindTransport, Op: "login", Err: err}
	}
	login, setCookie, err := s.post(ctx, "login", domain+loginPath, loginHeaders(domain, s.cfg.UserAgent), body)
	if err != nil {
		return "", err
	}
	log.Info("login answered", zap.String("msg", *login.Msg))
	if login.Ret != nil && *login.Ret == 0 {
		return "", &checkin.Error{
			Kind: checkin.KindLoginRejected,
			Op:   "login",
			Err:  fmt.Errorf("panel: %s", *login.Msg),
		}
	}

	cookie := SessionCookie(setCookie)
	if cookie == "" {
		return "", &checkin.Error{
			Kind: checkin.KindUnexpectedResponse,
			Op:   "login",
			Err:  errors.New("no session cookie in response"),
		}
	}

	if err := wait(ctx, s.cfg.LoginDelay); err != nil {
		return "", err
	}

	res, _, err := s.post(ctx, "checkin", domain+checkinPath, checkinHeaders(domain, s.cfg.UserAgent, cookie), nil)
	if err != nil {
		return "", err
	}
	log.Info("checkin answered", zap.String("msg", *res.Msg))
	return *res.Msg, nil
}

// post sends one request under its own deadline and decodes the panel envelope.
func (s *Session) post(ctx context.Context, op, url string, h http.Header, body []byte) (*panelResponse, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, rd)
	if err != nil {
		return nil, nil, &checkin.Error{Kind: checkin.KindTransport, Op: op, Err: err}
	}
	req.Header = h

	start := time.Now()
	resp, err := s.c.Do(req)
	if err != nil {
		return nil, nil, classify(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, nil, classify(op, err)
	}
	s.log.Debug("panel call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var pr panelResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, nil, &checkin.Error{
			Kind: checkin.KindUnexpectedResponse,
			Op:   op,
			Err:  fmt.Errorf("status %d: decode body: %w", resp.StatusCode, err),
		}
	}
	if pr.Msg == nil {
		return nil, nil, &checkin.Error{
			Kind: checkin.KindUnexpectedResponse,
			Op:   op,
			Err:  fmt.Errorf("status %d: no msg field", resp.StatusCode),
		}
	}
	return &pr, resp.Header.Values("Set-Cookie"), nil
}

func classify(op string, err error) error {
	kind := checkin.KindTransport
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = checkin.KindTimeout
	}
	return &checkin.Error{Kind: kind, Op: op, Err: err}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
