// Package handlers, HTTP request/response katmanı.
//
// Handler ince tutulur: isteği parse et, service'i çağır, sonucu pkg.JSON /
// pkg.Error ile yaz. İş mantığı ve DB erişimi burada yapılmaz.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/ratelimit"
)

// contextKey, context.Value çakışmalarını önlemek için özel tip.
type contextKey string

const (
	// UserContextKey, auth middleware'ın yüklediği *models.User.
	UserContextKey contextKey = "user"
	// ClaimsContextKey, doğrulanmış *models.TokenClaims (logout için session ID).
	ClaimsContextKey contextKey = "claims"
)

// currentUser, context'teki kullanıcıyı döner; yoksa 401 yazar.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}

// decodeJSON, body'yi dst'ye okur; hata varsa 400 yazar.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func pageFromQuery(r *http.Request, defaultLimit int) models.PageRequest {
	q := r.URL.Query()
	return models.ParsePageRequest(q.Get("page"), q.Get("limit"), defaultLimit)
}

// tooManyRequests, 429 + Retry-After yazar.
func tooManyRequests(w http.ResponseWriter, limiter *ratelimit.Limiter, key, message string) {
	retryAfter := limiter.RetryAfterSeconds(key)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	pkg.ErrorWithMessage(w, http.StatusTooManyRequests, message)
}
