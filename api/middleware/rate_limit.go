package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hawthornlabs/salesdesk-backend/api/responses"
	pkgerrors "github.com/hawthornlabs/salesdesk-backend/pkg/errors"
	"github.com/hawthornlabs/salesdesk-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// TenantRateLimitPolicy throttles the task endpoints per tenant; the caller
// IP is the fallback scope when a request carries no tenant id.
type TenantRateLimitPolicy struct {
	window time.Duration
	limit  int
}

// NewTenantRateLimitPolicy builds a policy with the supplied window and limit.
func NewTenantRateLimitPolicy(window time.Duration, limit int) TenantRateLimitPolicy {
	return TenantRateLimitPolicy{window: window, limit: limit}
}

func (p TenantRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

// TenantRateLimit enforces a fixed-window request budget per tenant. The
// limiter store failing open is deliberate: derivation reads are cheap
// relative to refusing the whole surface when redis is down.
func TenantRateLimit(policy TenantRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			scope := "tenant:" + strings.TrimSpace(r.URL.Query().Get("tenant_id"))
			if scope == "tenant:" {
				scope = "ip:" + clientIP(r)
			}

			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.limit), policy.window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "scope", scope), "rate_limit.store_error")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
