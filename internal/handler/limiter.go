package handler

import (
	stdnet "net"
	"time"
)

// LoginLimiter 限制每個來源 IP 每分鐘的登入嘗試次數。
// Accessed only from the game loop goroutine — no locking.
type LoginLimiter struct {
	perMinute int // 0 = unlimited
	counts    map[string]int
	minute    int64
	now       func() time.Time
}

func NewLoginLimiter(perMinute int) *LoginLimiter {
	return &LoginLimiter{
		perMinute: perMinute,
		counts:    make(map[string]int),
		now:       time.Now,
	}
}

// Allow records one login attempt from addr and reports whether it is
// still within this minute's budget. Attempts are counted per host; a
// client reconnecting from a new port shares the same bucket.
func (l *LoginLimiter) Allow(addr string) bool {
	if l.perMinute <= 0 {
		return true
	}

	host, _, err := stdnet.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	minute := l.now().Unix() / 60
	if minute != l.minute {
		l.counts = make(map[string]int)
		l.minute = minute
	}

	l.counts[host]++
	return l.counts[host] <= l.perMinute
}
