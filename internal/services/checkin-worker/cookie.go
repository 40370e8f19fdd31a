package checkin_worker

import "strings"

// SessionCookie turns Set-Cookie header values into one Cookie header value.
// Attributes (path, expires, ...) are dropped. Each value is also split on
// commas for servers that fold several cookies into one header; the date
// fragments that split produces carry no '=' and are skipped.
func SessionCookie(setCookie []string) string {
	parts := make([]string, 0, len(setCookie))
	for _, v := range setCookie {
		for _, c := range strings.Split(v, ",") {
			pair := strings.TrimSpace(strings.SplitN(c, ";", 2)[0])
			if pair == "" || !strings.Contains(pair, "=") {
				continue
			}
			parts = append(parts, pair)
		}
	}
	return strings.Join(parts, "; ")
}
