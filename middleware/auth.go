// Package middleware, HTTP request pipeline'ına eklenen ara katmanlar.
//
// Go'da middleware func(next http.Handler) http.Handler biçimindedir:
// kendi işini yapar, sonra next'i çağırır. Hata varsa next çağrılmaz.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/sohbet/handlers"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/services"
)

// AuthMiddleware, access token doğrulaması.
type AuthMiddleware struct {
	authService services.AuthService
	cookieName  string
}

func NewAuthMiddleware(authService services.AuthService, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		cookieName:  cookieName,
	}
}

// Require, geçerli bir token zorunlu kılar; yoksa 401.
//
// Token sırasıyla "Authorization: Bearer <token>" header'ından ve auth
// cookie'sinden okunur.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Token'ı bul
		tokenString, ok := m.tokenFrom(r)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "unauthorized - no token provided")
			return
		}

		// 2. İmza, süre ve session kontrolü
		claims, err := m.authService.ValidateAccessToken(r.Context(), tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// 3. Token geçerli ama kullanıcı silinmiş olabilir
		user, err := m.authService.GetUser(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}
		user.PasswordHash = ""

		// 4. Context'e ekle
		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		ctx = context.WithValue(ctx, handlers.ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) tokenFrom(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if found && token != "" {
			return token, true
		}
		return "", false
	}

	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
