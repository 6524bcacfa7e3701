package session

import (
	"strconv"
	"strings"
	"time"

	"DoaLink/pkg/util"
)

const (
	// TokenPrefix 匿名会话 token 前缀
	TokenPrefix = "widget"

	// DefaultTTL 匿名会话有效期
	DefaultTTL = 24 * time.Hour
)

// Resolution 会话解析结果
type Resolution struct {
	SessionID string `json:"sessionId"`
	IsNew     bool   `json:"isNewSession"`
	Updated   bool   `json:"sessionUpdated"`
}

// Resolver 会话解析器。登录用户直接用稳定身份，匿名用户用带时间戳的
// widget token，过期/非法 token 静默换新，不报错。
type Resolver struct {
	ttl time.Duration
	now func() time.Time
}

func NewResolver(ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{ttl: ttl, now: time.Now}
}

// NewResolverWithClock 注入时钟，测试用
func NewResolverWithClock(ttl time.Duration, now func() time.Time) *Resolver {
	r := NewResolver(ttl)
	if now != nil {
		r.now = now
	}
	return r
}

// Resolve 解析会话ID。
// 登录用户：sessionId 即用户ID，永不过期；updated 表示客户端存的 token 需要被替换。
// 匿名用户：token 格式合法且未过期则原样复用，否则铸造新 token。
func (r *Resolver) Resolve(authenticatedUserID, clientSuppliedID string) Resolution {
	authenticatedUserID = strings.TrimSpace(authenticatedUserID)
	clientSuppliedID = strings.TrimSpace(clientSuppliedID)

	if authenticatedUserID != "" {
		return Resolution{
			SessionID: authenticatedUserID,
			IsNew:     false,
			Updated:   clientSuppliedID != authenticatedUserID,
		}
	}

	if r.isFreshWidgetToken(clientSuppliedID) {
		return Resolution{SessionID: clientSuppliedID, IsNew: false, Updated: false}
	}

	return Resolution{SessionID: r.mint(), IsNew: true, Updated: true}
}

// isFreshWidgetToken 校验 widget_<base36毫秒时间戳>_<随机段> 且在有效期内
func (r *Resolver) isFreshWidgetToken(token string) bool {
	if token == "" {
		return false
	}
	parts := strings.Split(token, "_")
	if len(parts) < 3 || parts[0] != TokenPrefix {
		return false
	}
	ts, err := strconv.ParseInt(parts[1], 36, 64)
	if err != nil || ts <= 0 {
		return false
	}
	return r.now().UnixMilli()-ts < r.ttl.Milliseconds()
}

func (r *Resolver) mint() string {
	ts := strconv.FormatInt(r.now().UnixMilli(), 36)
	return TokenPrefix + "_" + ts + "_" + util.GenerateShortUUID()[:12]
}
