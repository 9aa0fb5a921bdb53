package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/logger"
)

// CartIDHeader lets non-browser clients carry the cart session explicitly.
const CartIDHeader = "X-Cart-Id"

const maxCartIDLen = 128

// CartSessionOptions configures the cart session cookie.
type CartSessionOptions struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// CartSession resolves the cart session from the header or cookie, minting
// a new identifier when neither is usable, and echoes it back on both.
func CartSession(opts CartSessionOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "sf_cart_id"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cartID := validCartID(r.Header.Get(CartIDHeader))
			if cartID == "" {
				if cookie, err := r.Cookie(opts.CookieName); err == nil {
					cartID = validCartID(cookie.Value)
				}
			}
			if cartID == "" {
				cartID = uuid.NewString()
			}

			cookie := &http.Cookie{
				Name:     opts.CookieName,
				Value:    cartID,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if opts.TTL > 0 {
				cookie.MaxAge = int(opts.TTL.Seconds())
			}
			http.SetCookie(w, cookie)
			w.Header().Set(CartIDHeader, cartID)

			ctx := WithCartID(r.Context(), cartID)
			if logg != nil {
				ctx = logg.WithCartID(ctx, cartID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validCartID(raw string) string {
	return validToken(raw, maxCartIDLen)
}

// validToken accepts 1..limit characters of [A-Za-z0-9_-] after trimming.
func validToken(raw string, limit int) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > limit {
		return ""
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ""
		}
	}
	return id
}
