package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/expo/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig allows Requests per Window with bursts up to Burst.
type RateLimitConfig struct {
	Requests int           `env:"REQUESTS"`
	Window   time.Duration `env:"WINDOW"`
	Burst    int           `env:"BURST"`
}

// Default profiles. The app config can override each of them.
var (
	// StrictLimit guards credential and code checking endpoints.
	StrictLimit = RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards authenticated admin operations.
	ModerateLimit = RateLimitConfig{Requests: 30, Window: time.Minute, Burst: 30}
)

// KeyExtractor picks the bucket a request is counted against. An empty key
// lets the request through unlimited.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the address of the direct peer. Forwarding
// headers are ignored; use ClientIP when the service sits behind a proxy.
func IPKeyExtractor(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ClientIP resolves the caller's address, honouring X-Forwarded-For and
// X-Real-IP only when the direct peer is a trusted proxy.
type ClientIP struct {
	trusted []netip.Prefix
}

// NewClientIP parses proxies as CIDR prefixes or bare addresses.
func NewClientIP(proxies []string) (*ClientIP, error) {
	c := &ClientIP{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			addr, err := netip.ParseAddr(p)
			if err != nil {
				return nil, fmt.Errorf("httpx: trusted proxy %q: %w", p, err)
			}
			c.trusted = append(c.trusted, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(p)
		if err != nil {
			return nil, fmt.Errorf("httpx: trusted proxy %q: %w", p, err)
		}
		c.trusted = append(c.trusted, prefix.Masked())
	}
	return c, nil
}

func (c *ClientIP) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Key is a KeyExtractor. X-Forwarded-For is read right to left and the
// first hop that is not a trusted proxy wins.
func (c *ClientIP) Key(r *http.Request) string {
	peer := IPKeyExtractor(r)
	if c == nil || !c.isTrusted(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !c.isTrusted(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

// MemberKeyExtractor returns the authenticated member id, if any.
func MemberKeyExtractor(r *http.Request) string {
	if c, ok := ClaimsFromContext(r.Context()); ok {
		return c.Subject
	}
	return ""
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, ex := range extractors {
			if k := ex(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

// JSONFieldKeyExtractor reads a top level string field from a JSON body
// (lower-cased) and restores the body for the next handler.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		var fields map[string]any
		if json.Unmarshal(body, &fields) != nil {
			return ""
		}
		s, _ := fields[field].(string)
		return strings.ToLower(strings.TrimSpace(s))
	}
}

type limiterSet struct {
	limit rate.Limit
	burst int

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
}

func (ls *limiterSet) get(key string) *rate.Limiter {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	// Buckets that have refilled completely carry no state worth keeping.
	if time.Since(ls.lastCleanup) > 5*time.Minute {
		for k, l := range ls.limiters {
			if l.Tokens() >= float64(ls.burst) {
				delete(ls.limiters, k)
			}
		}
		ls.lastCleanup = time.Now()
	}

	l, ok := ls.limiters[key]
	if !ok {
		l = rate.NewLimiter(ls.limit, ls.burst)
		ls.limiters[key] = l
	}
	return l
}

// RateLimit counts requests per key and answers 429 once a bucket is empty.
func RateLimit(cfg RateLimitConfig, key KeyExtractor) Middleware {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	burst := max(cfg.Burst, 1)

	ls := &limiterSet{
		limit:       rate.Limit(float64(max(cfg.Requests, 1)) / window.Seconds()),
		burst:       burst,
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			l := ls.get(k)
			if l.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("key", k),
				slog.Int("retry_after", retryAfter),
			)
			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP limits by caller address as resolved by ip.
func RateLimitByIP(cfg RateLimitConfig, ip KeyExtractor) Middleware {
	return RateLimit(cfg, ip)
}

// RateLimitByMember limits authenticated callers by member id, falling
// back to IP.
func RateLimitByMember(cfg RateLimitConfig, ip KeyExtractor) Middleware {
	return RateLimit(cfg, CompositeKeyExtractor(":", MemberKeyExtractor, ip))
}

// RateLimitByIPAndJSONField limits by IP plus one field of the JSON body,
// e.g. the email an OTP is being guessed for.
func RateLimitByIPAndJSONField(cfg RateLimitConfig, ip KeyExtractor, field string) Middleware {
	return RateLimit(cfg, CompositeKeyExtractor(":", ip, JSONFieldKeyExtractor(field)))
}
