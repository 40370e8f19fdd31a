package checkin_worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionCookie(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{name: "none", in: nil, want: ""},
		{name: "single", in: []string{"uid=1; Path=/"}, want: "uid=1"},
		{
			name: "expires date with comma",
			in:   []string{"uid=1; Expires=Wed, 21 Oct 2026 07:28:00 GMT; Path=/", "key=abc; HttpOnly"},
			want: "uid=1; key=abc",
		},
		{
			name: "folded header",
			in:   []string{"uid=1; Path=/, email=a%40x.io; Path=/"},
			want: "uid=1; email=a%40x.io",
		},
		{name: "garbage only", in: []string{"HttpOnly", " "}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionCookie(tt.in))
		})
	}
}
