package checkin_worker

import "net/http"

const (
	loginPath   = "/auth/login"
	checkinPath = "/user/checkin"
	panelPath   = "/user/panel"
)

func commonHeaders(domain, userAgent string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Origin", domain)
	return h
}

func loginHeaders(domain, userAgent string) http.Header {
	h := commonHeaders(domain, userAgent)
	h.Set("Content-Type", "application/json")
	h.Set("Referer", domain+loginPath)
	return h
}

func checkinHeaders(domain, userAgent, cookie string) http.Header {
	h := commonHeaders(domain, userAgent)
	h.Set("Referer", domain+panelPath)
	h.Set("X-Requested-With", "XMLHttpRequest")
	h.Set("Cookie", cookie)
	return h
}
