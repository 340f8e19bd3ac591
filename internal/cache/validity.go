package cache

import "time"

// DefaultTTL 为缓存条目的有效期。
const DefaultTTL = 4 * time.Hour

// Validity 根据 TTL 判断时间戳是否仍在有效期内，时钟可注入便于测试。
type Validity struct {
	ttl time.Duration
	now func() time.Time
}

// NewValidity 构造有效期判定器；ttl <= 0 时使用 DefaultTTL，now 为空时使用 time.Now。
func NewValidity(ttl time.Duration, now func() time.Time) Validity {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return Validity{ttl: ttl, now: now}
}

// Fresh 返回 written+ttl 是否仍晚于当前时间。
func (v Validity) Fresh(written time.Time) bool {
	if written.IsZero() {
		return false
	}
	return v.now().Before(written.Add(v.ttl))
}

// Now 返回判定器使用的当前时间。
func (v Validity) Now() time.Time {
	return v.now()
}

// TTL 返回有效期。
func (v Validity) TTL() time.Duration {
	return v.ttl
}
