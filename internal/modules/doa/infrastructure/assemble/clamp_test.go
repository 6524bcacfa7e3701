package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampIdentityUnderBudget(t *testing.T) {
	s := strings.Repeat("a", 100)
	assert.Equal(t, s, Clamp(s, 100))
	assert.Equal(t, s, Clamp(s, 101))
	assert.Equal(t, "", Clamp("", 50))
}

func TestClampKeepsHeadAndTail(t *testing.T) {
	// 1000字符，预算100：开头60 + 标记 + 结尾30
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString("0123456789")
	}
	s := sb.String()

	out := Clamp(s, 100)
	assert.Equal(t, s[:60]+clampMarker+s[len(s)-30:], out)
	assert.True(t, strings.Contains(out, clampMarker))
}

func TestClampCountsRunes(t *testing.T) {
	s := strings.Repeat("ก", 200)
	out := Clamp(s, 100)

	runes := []rune(out)
	marker := []rune(clampMarker)
	// 60 + marker + 30
	assert.Len(t, runes, 60+len(marker)+30)
	assert.Equal(t, strings.Repeat("ก", 60), string(runes[:60]))
	assert.Equal(t, strings.Repeat("ก", 30), string(runes[len(runes)-30:]))
}

func TestClampZeroBudgetIdentity(t *testing.T) {
	s := strings.Repeat("x", 500)
	assert.Equal(t, s, Clamp(s, 0))
	assert.Equal(t, s, Clamp(s, -1))
}

func TestSanitizeStripsOnlyBraces(t *testing.T) {
	assert.Equal(t, "  template  ", Sanitize(" {{ template }} "))
	assert.Equal(t, `"key": "value"`, Sanitize(`{"key": "value"}`))
	// 其他字符包括泰文、换行都不动
	assert.Equal(t, "หมวด: การเงิน\n• ผจก.", Sanitize("หมวด: การเงิน\n• ผจก."))
	assert.Equal(t, "", Sanitize("{}{}{}"))
}
