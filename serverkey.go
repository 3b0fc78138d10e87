package reqsched

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ServerKey identifies a distinct connection-limited destination. Using
// a structured host+port pair instead of a raw string avoids accidental
// collisions between differently written URLs of the same authority.
type ServerKey struct {
	Host string
	Port int
}

func (k ServerKey) String() string {
	return net.JoinHostPort(k.Host, strconv.Itoa(k.Port))
}

// ParseServerKey parses a "host:port" string, as used in config files.
func ParseServerKey(s string) (ServerKey, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return ServerKey{}, fmt.Errorf("reqsched: bad server key %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return ServerKey{}, fmt.Errorf("reqsched: bad port in server key %q", s)
	}
	return ServerKey{Host: strings.ToLower(host), Port: port}, nil
}

// DeriveServerKey derives the destination key for rawURL. Relative
// references are resolved against base when one is configured. When the
// URL carries no explicit port, secure schemes (https, wss) default to
// 443 and everything else to 80.
func DeriveServerKey(rawURL string, base *url.URL) (ServerKey, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ServerKey{}, fmt.Errorf("reqsched: bad request url %q: %w", rawURL, err)
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Hostname() == "" {
		return ServerKey{}, fmt.Errorf("reqsched: cannot derive server key from %q", rawURL)
	}
	port := 80
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		port = 443
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return ServerKey{}, fmt.Errorf("reqsched: bad port in url %q", rawURL)
		}
	}
	return ServerKey{Host: strings.ToLower(u.Hostname()), Port: port}, nil
}

// serverTracker maintains per-destination active counts and limits.
// Counts are lazily zero-initialized on first observation of a key.
type serverTracker struct {
	defaultLimit int
	limits       map[ServerKey]int
	active       map[ServerKey]int
}

func newServerTracker(defaultLimit int, overrides map[ServerKey]int) *serverTracker {
	t := &serverTracker{
		defaultLimit: defaultLimit,
		limits:       make(map[ServerKey]int),
		active:       make(map[ServerKey]int),
	}
	for k, n := range overrides {
		t.limits[k] = n
	}
	return t
}

// limit returns the per-key override if configured, else the default.
func (t *serverTracker) limit(k ServerKey) int {
	if n, ok := t.limits[k]; ok {
		return n
	}
	return t.defaultLimit
}

func (t *serverTracker) setLimit(k ServerKey, n int) {
	t.limits[k] = n
}

func (t *serverTracker) setDefaultLimit(n int) {
	t.defaultLimit = n
}

// hasOpenSlots reports whether desired more requests fit under k's limit.
func (t *serverTracker) hasOpenSlots(k ServerKey, desired int) bool {
	return t.active[k]+desired <= t.limit(k)
}

func (t *serverTracker) acquire(k ServerKey) {
	t.active[k]++
}

func (t *serverTracker) release(k ServerKey) {
	t.active[k]--
}

func (t *serverTracker) activeCount(k ServerKey) int {
	return t.active[k]
}

func (t *serverTracker) reset() {
	clear(t.active)
}
