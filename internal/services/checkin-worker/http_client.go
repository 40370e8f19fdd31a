package checkin_worker

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"
)

// NewHTTPClient builds the outbound client. Redirects are not followed: the
// panel answers login and checkin directly and a redirect means a lost session.
// Per-call deadlines come from the request context, not from the client.
func NewHTTPClient(cfg config.HTTPCfg) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			MinVersion:         tls.VersionTLS12,
		},
	}

	return &http.Client{
		Transport: obs.HTTPTransport(transport),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
