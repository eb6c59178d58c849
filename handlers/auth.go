package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/ratelimit"
	"github.com/akinalp/sohbet/services"
)

// AuthCookieName, access token'ı taşıyan HttpOnly cookie.
const AuthCookieName = "jwt"

// AuthHandler, kayıt/giriş, profil ve şifre endpoint'leri.
type AuthHandler struct {
	authService   services.AuthService
	resetService  services.PasswordResetService
	presence      services.PresenceService
	uploads       services.UploadService
	loginLimiter  *ratelimit.Limiter
	cookieSecure  bool
	maxUploadSize int64
}

func NewAuthHandler(
	authService services.AuthService,
	resetService services.PasswordResetService,
	presence services.PresenceService,
	uploads services.UploadService,
	loginLimiter *ratelimit.Limiter,
	cookieSecure bool,
	maxUploadSize int64,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		resetService:  resetService,
		presence:      presence,
		uploads:       uploads,
		loginLimiter:  loginLimiter,
		cookieSecure:  cookieSecure,
		maxUploadSize: maxUploadSize,
	}
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Register godoc
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	h.setAuthCookie(w, result.Token, result.ExpiresAt)
	pkg.JSON(w, http.StatusCreated, result)
}

// Login godoc
// POST /api/login
//
// IP başına deneme sınırı var; başarılı giriş sayacı sıfırlar.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		tooManyRequests(w, h.loginLimiter, ip, "too many login attempts, please try again later")
		return
	}

	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}
	h.setAuthCookie(w, result.Token, result.ExpiresAt)
	pkg.JSON(w, http.StatusOK, result)
}

// Logout godoc
// DELETE /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	claims, ok := r.Context().Value(ClaimsContextKey).(*models.TokenClaims)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "session not found in context")
		return
	}

	if err := h.authService.Logout(r.Context(), claims.ID); err != nil {
		pkg.Error(w, err)
		return
	}
	if err := h.presence.SetOffline(r.Context(), user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	h.clearAuthCookie(w)
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// GetUser godoc
// GET /api/get-user
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	pkg.JSON(w, http.StatusOK, user)
}

// ListUsers godoc
// GET /api/users
// Kenar çubuğu: kendisi hariç tüm kullanıcılar.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.authService.ListUsers(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, users)
}

// UpdateProfile godoc
// PATCH /api/update-profile
// Multipart: fullname, username, gender, email alanları ve profile_pic dosyası.
// Gönderilmeyen alan değişmez.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	var req models.UpdateProfileRequest
	req.Fullname = formValue(r, "fullname")
	req.Username = formValue(r, "username")
	req.Email = formValue(r, "email")
	if g := formValue(r, "gender"); g != nil {
		gender := models.Gender(*g)
		req.Gender = &gender
	}

	var uploaded string
	file, header, err := r.FormFile("profile_pic")
	switch {
	case err == nil:
		defer file.Close()
		att, err := h.uploads.Save(file, header, services.UploadAvatar)
		if err != nil {
			pkg.Error(w, err)
			return
		}
		uploaded = att.URL
		req.ProfilePic = &uploaded
	case !errors.Is(err, http.ErrMissingFile):
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid profile_pic")
		return
	}

	updated, err := h.authService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		if uploaded != "" {
			h.uploads.Remove(uploaded)
		}
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, updated)
}

// formValue, alan formda hiç yoksa nil döner (boş string ile ayrışır).
func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// UpdatePassword godoc
// PATCH /api/update-password
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.UpdatePassword(r.Context(), user.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// ForgotPassword godoc
// POST /api/forgot-password
// Adres kayıtlı olmasa da aynı yanıt döner.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cooldown, err := h.resetService.Forgot(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if cooldown > 0 {
		pkg.JSON(w, http.StatusOK, map[string]any{
			"message":  fmt.Sprintf("please wait %d seconds before requesting another link", cooldown),
			"cooldown": cooldown,
		})
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{
		"message": "if the email exists, a reset link has been sent",
	})
}

// ResetPassword godoc
// POST /api/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.resetService.Reset(r.Context(), &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "password has been reset"})
}
