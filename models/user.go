package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Gender, kayıtta zorunlu alan; varsayılan avatar seçimi buna göre yapılır.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid, desteklenen değerlerden biri mi?
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User, "users" tablosunun Go karşılığı.
type User struct {
	ID           string     `json:"id"`
	Fullname     string     `json:"fullname"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Gender       Gender     `json:"gender"`
	ProfilePic   string     `json:"profile_pic"`
	Email        *string    `json:"email,omitempty"`
	IsOnline     bool       `json:"is_online"`
	LastSeen     *time.Time `json:"last_seen"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserSummary, başka kayıtların içine gömülen hafif kullanıcı görünümü
// (mesaj göndereni, grup üyesi, arkadaş listesi vb.).
type UserSummary struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Fullname   string     `json:"fullname"`
	ProfilePic string     `json:"profile_pic"`
	IsOnline   bool       `json:"is_online"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
}

// Summary, User'dan UserSummary üretir.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		Fullname:   u.Fullname,
		ProfilePic: u.ProfilePic,
		IsOnline:   u.IsOnline,
		LastSeen:   u.LastSeen,
	}
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterRequest, POST /api/register body'si.
type RegisterRequest struct {
	Fullname        string `json:"fullname"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Gender          Gender `json:"gender"`
	Email           string `json:"email"`
}

func (r *RegisterRequest) Validate() error {
	r.Fullname = strings.TrimSpace(r.Fullname)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if r.Fullname == "" || r.Username == "" || r.Password == "" || r.ConfirmPassword == "" || r.Gender == "" {
		return fmt.Errorf("fullname, username, password, confirm_password and gender are required")
	}
	if err := validateUsername(r.Username); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Fullname) > 64 {
		return fmt.Errorf("fullname must be at most 64 characters")
	}
	if utf8.RuneCountInString(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("password and confirm_password do not match")
	}
	if !r.Gender.Valid() {
		return fmt.Errorf("gender must be male or female")
	}
	if r.Email != "" && !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// LoginRequest, POST /api/login body'si.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	return nil
}

// UpdateProfileRequest, PATCH /api/update-profile alanları.
//
// nil = alan gönderilmedi, dokunma. Email için boş string = e-postayı kaldır.
// Diğer alanlar boş olamaz.
type UpdateProfileRequest struct {
	Fullname   *string
	Username   *string
	Gender     *Gender
	Email      *string
	ProfilePic *string // Upload sonrası service tarafından doldurulur
}

// IsEmpty, hiçbir alan gönderilmemişse true.
func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.Fullname == nil && r.Username == nil && r.Gender == nil && r.Email == nil && r.ProfilePic == nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Fullname != nil {
		v := strings.TrimSpace(*r.Fullname)
		if v == "" || utf8.RuneCountInString(v) > 64 {
			return fmt.Errorf("fullname must be between 1 and 64 characters")
		}
		r.Fullname = &v
	}
	if r.Username != nil {
		v := strings.TrimSpace(*r.Username)
		if err := validateUsername(v); err != nil {
			return err
		}
		r.Username = &v
	}
	if r.Gender != nil && !r.Gender.Valid() {
		return fmt.Errorf("gender must be male or female")
	}
	if r.Email != nil {
		v := strings.TrimSpace(*r.Email)
		if v != "" && !emailRegex.MatchString(v) {
			return fmt.Errorf("invalid email format")
		}
		r.Email = &v
	}
	return nil
}

// UpdatePasswordRequest, PATCH /api/update-password body'si.
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (r *UpdatePasswordRequest) Validate() error {
	if r.OldPassword == "" || r.NewPassword == "" {
		return fmt.Errorf("old_password and new_password are required")
	}
	if utf8.RuneCountInString(r.NewPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if r.OldPassword == r.NewPassword {
		return fmt.Errorf("new password must be different from current password")
	}
	return nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 32 {
		return fmt.Errorf("username must be between 3 and 32 characters")
	}
	for _, ch := range username {
		if !isValidUsernameChar(ch) {
			return fmt.Errorf("username can only contain letters, numbers, and underscores")
		}
	}
	return nil
}

func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}

// DefaultProfilePic, kullanıcı resim yüklemediyse cinsiyete göre avatar URL'i.
func DefaultProfilePic(username string, gender Gender) string {
	kind := "girl"
	if gender == GenderMale {
		kind = "boy"
	}
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%s?username=%s", kind, username)
}
