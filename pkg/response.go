package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse, tüm endpoint'lerin döndüğü zarf.
// Details sadece DetailedError ile dolar.
type APIResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// JSON, başarılı yanıtı zarfın içinde yazar.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, APIResponse{Success: true, Data: data})
}

// Error, domain error'ı uygun status code ile yazar.
// DetailedError ise Details alanı da yanıta eklenir.
func Error(w http.ResponseWriter, err error) {
	resp := APIResponse{Success: false, Error: err.Error()}

	var detailed *DetailedError
	if errors.As(err, &detailed) {
		resp.Details = detailed.Details
	}

	write(w, StatusFor(err), resp)
}

// ErrorWithMessage, sabit bir mesajla hata yanıtı yazar.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	write(w, status, APIResponse{Success: false, Error: message})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// StatusFor, domain error'ı HTTP status code'a eşler.
//
// ErrAlreadyExists (tekrarlanan arkadaşlık isteği, blok, reaction) 400 döner;
// client tarafı bunu validation hatası gibi ele alır.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
