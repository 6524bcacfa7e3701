package session

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time {
		return time.UnixMilli(ms)
	}
}

func widgetToken(tsMillis int64) string {
	return TokenPrefix + "_" + strconv.FormatInt(tsMillis, 36) + "_abc123def456"
}

func TestResolveAuthenticatedUsesStableIdentity(t *testing.T) {
	r := NewResolver(DefaultTTL)

	res := r.Resolve("user-42", "")
	assert.Equal(t, "user-42", res.SessionID)
	assert.False(t, res.IsNew)
	assert.True(t, res.Updated)

	// 客户端已存了同样的ID，不需要替换
	res = r.Resolve("user-42", "user-42")
	assert.Equal(t, "user-42", res.SessionID)
	assert.False(t, res.Updated)

	// 登录身份优先于任何widget token
	res = r.Resolve("user-42", widgetToken(time.Now().UnixMilli()))
	assert.Equal(t, "user-42", res.SessionID)
}

func TestResolveReusesFreshWidgetToken(t *testing.T) {
	const epoch = int64(1700000000000)
	token := widgetToken(epoch)

	// 23h59m59s：还差1秒到期
	r := NewResolverWithClock(DefaultTTL, fixedClock(epoch+86_399_000))
	res := r.Resolve("", token)
	assert.Equal(t, token, res.SessionID)
	assert.False(t, res.IsNew)
	assert.False(t, res.Updated)
}

func TestResolveMintsWhenExpired(t *testing.T) {
	const epoch = int64(1700000000000)
	token := widgetToken(epoch)

	// 24h以上：静默换新
	r := NewResolverWithClock(DefaultTTL, fixedClock(epoch+86_401_000))
	res := r.Resolve("", token)
	assert.NotEqual(t, token, res.SessionID)
	assert.True(t, res.IsNew)
	assert.True(t, res.Updated)

	// 恰好24h也算过期
	r = NewResolverWithClock(DefaultTTL, fixedClock(epoch+86_400_000))
	res = r.Resolve("", token)
	assert.NotEqual(t, token, res.SessionID)
}

func TestResolveAcceptsFutureTimestamp(t *testing.T) {
	const now = int64(1700000000000)
	token := widgetToken(now + 3_600_000)

	r := NewResolverWithClock(DefaultTTL, fixedClock(now))
	res := r.Resolve("", token)
	assert.Equal(t, token, res.SessionID)
}

func TestResolveMintsOnMalformedToken(t *testing.T) {
	r := NewResolver(DefaultTTL)

	for _, token := range []string{
		"",
		"garbage",
		"widget_",
		"widget_notbase36!!_rand",
		"session_abc_def",
		"widget_0_rand",
	} {
		res := r.Resolve("", token)
		assert.NotEqual(t, token, res.SessionID, "token %q should be replaced", token)
		assert.True(t, res.IsNew)
		assert.True(t, res.Updated)
	}
}

func TestMintedTokenShape(t *testing.T) {
	const now = int64(1700000000000)
	r := NewResolverWithClock(DefaultTTL, fixedClock(now))

	res := r.Resolve("", "")
	parts := strings.Split(res.SessionID, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, TokenPrefix, parts[0])

	ts, err := strconv.ParseInt(parts[1], 36, 64)
	require.NoError(t, err)
	assert.Equal(t, now, ts)
	assert.NotEmpty(t, parts[2])

	// 新铸的token自身立即可复用
	res2 := r.Resolve("", res.SessionID)
	assert.Equal(t, res.SessionID, res2.SessionID)
	assert.False(t, res2.IsNew)
}
