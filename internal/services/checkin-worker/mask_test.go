package checkin_worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "ab", Mask("ab"))
	assert.Equal(t, "abcd", Mask("abcd"))
	assert.Equal(t, "ab****de", Mask("abcde"))
	assert.Equal(t, "us****om", Mask("user@example.com"))
	assert.Equal(t, "用户****箱号", Mask("用户的邮箱号"))
}
