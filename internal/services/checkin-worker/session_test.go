package checkin_worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/domain/checkin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testUA = "autocheckin-test"

func testHTTPCfg() config.HTTPCfg {
	return config.HTTPCfg{Timeout: 2 * time.Second, UserAgent: testUA, VerifyTLS: true}
}

type panel struct {
	loginBody   map[string]string
	loginHeader http.Header
	checkHeader http.Header
	checkins    atomic.Int32
	logins      atomic.Int32

	loginRet    int
	checkinMsg  string
	loginRaw    string
	noCookie    bool
	slowCheckin time.Duration
}

func (p *panel) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		p.logins.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		p.loginHeader = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &p.loginBody)
		if p.loginRaw != "" {
			_, _ = io.WriteString(w, p.loginRaw)
			return
		}
		if !p.noCookie {
			http.SetCookie(w, &http.Cookie{Name: "uid", Value: "42", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "key", Value: "abc", Expires: time.Now().Add(time.Hour)})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ret": p.loginRet, "msg": "login msg"})
	})
	mux.HandleFunc(checkinPath, func(w http.ResponseWriter, r *http.Request) {
		p.checkins.Add(1)
		p.checkHeader = r.Header.Clone()
		if p.slowCheckin > 0 {
			select {
			case <-time.After(p.slowCheckin):
			case <-r.Context().Done():
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ret": 1, "msg": p.checkinMsg})
	})
	return mux
}

func newTestSession(t *testing.T, cfg config.HTTPCfg) *Session {
	return NewSession(nil, cfg).WithLogger(zaptest.NewLogger(t))
}

func TestSession_LoginThenCheckin(t *testing.T) {
	p := &panel{loginRet: 1, checkinMsg: "you got 500MB"}
	srv := httptest.NewServer(p.handler(t))
	defer srv.Close()

	msg, err := newTestSession(t, testHTTPCfg()).Checkin(context.Background(), srv.URL+"/", checkin.Account{Email: "a@x.io", Password: "pa"})
	require.NoError(t, err)
	assert.Equal(t, "you got 500MB", msg)

	assert.Equal(t, map[string]string{"email": "a@x.io", "passwd": "pa"}, p.loginBody)
	assert.Equal(t, testUA, p.loginHeader.Get("User-Agent"))
	assert.Equal(t, "application/json", p.loginHeader.Get("Content-Type"))
	assert.Equal(t, srv.URL, p.loginHeader.Get("Origin"))
	assert.Equal(t, srv.URL+loginPath, p.loginHeader.Get("Referer"))

	assert.Equal(t, "uid=42; key=abc", p.checkHeader.Get("Cookie"))
	assert.Equal(t, "XMLHttpRequest", p.checkHeader.Get("X-Requested-With"))
	assert.Equal(t, srv.URL+panelPath, p.checkHeader.Get("Referer"))
}

func TestSession_LoginRejectedSkipsCheckin(t *testing.T) {
	p := &panel{loginRet: 0}
	srv := httptest.NewServer(p.handler(t))
	defer srv.Close()

	_, err := newTestSession(t, testHTTPCfg()).Checkin(context.Background(), srv.URL, checkin.Account{Email: "a@x.io", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, checkin.KindLoginRejected, checkin.KindOf(err))
	assert.False(t, checkin.Retryable(err))
	assert.Zero(t, p.checkins.Load())
}

func TestSession_UnexpectedResponses(t *testing.T) {
	cases := map[string]*panel{
		"not json":   {loginRaw: "<html>maintenance</html>"},
		"no msg":     {loginRaw: `{"ret":1}`},
		"no cookie":  {loginRet: 1, noCookie: true},
		"empty body": {loginRaw: " "},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(p.handler(t))
			defer srv.Close()

			_, err := newTestSession(t, testHTTPCfg()).Checkin(context.Background(), srv.URL, checkin.Account{Email: "a@x.io", Password: "pa"})
			require.Error(t, err)
			assert.Equal(t, checkin.KindUnexpectedResponse, checkin.KindOf(err))
			assert.True(t, checkin.Retryable(err))
			assert.Equal(t, checkin.FailureMessage, checkin.PublicMessage(err))
			assert.Zero(t, p.checkins.Load())
		})
	}
}

func TestSession_PerCallTimeout(t *testing.T) {
	p := &panel{loginRet: 1, checkinMsg: "late", slowCheckin: time.Second}
	srv := httptest.NewServer(p.handler(t))
	defer srv.Close()

	cfg := testHTTPCfg()
	cfg.Timeout = 100 * time.Millisecond
	_, err := newTestSession(t, cfg).Checkin(context.Background(), srv.URL, checkin.Account{Email: "a@x.io", Password: "pa"})
	require.Error(t, err)
	assert.Equal(t, checkin.KindTimeout, checkin.KindOf(err))
}

func TestSession_MissingCredentialsMakesNoCall(t *testing.T) {
	p := &panel{loginRet: 1}
	srv := httptest.NewServer(p.handler(t))
	defer srv.Close()

	for _, acc := range []checkin.Account{{Email: "a@x.io"}, {Password: "pa"}, {}} {
		_, err := newTestSession(t, testHTTPCfg()).Checkin(context.Background(), srv.URL, acc)
		assert.Equal(t, checkin.KindMissingCredentials, checkin.KindOf(err))
	}
	assert.Zero(t, p.logins.Load())
}

func TestSession_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestSession(t, testHTTPCfg()).Checkin(context.Background(), url, checkin.Account{Email: "a@x.io", Password: "pa"})
	require.Error(t, err)
	var cerr *checkin.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "login", cerr.Op)
	assert.Equal(t, checkin.KindTransport, cerr.Kind)
}

func TestSession_LoginDelayHonorsContext(t *testing.T) {
	p := &panel{loginRet: 1, checkinMsg: "ok"}
	srv := httptest.NewServer(p.handler(t))
	defer srv.Close()

	cfg := testHTTPCfg()
	cfg.LoginDelay = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := newTestSession(t, cfg).Checkin(ctx, srv.URL, checkin.Account{Email: "a@x.io", Password: "pa"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, p.checkins.Load())
}
