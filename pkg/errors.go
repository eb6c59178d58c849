// Package pkg, servis ve handler katmanlarının paylaştığı error ve response yardımcılarını içerir.
//
// Service katmanı her hatayı aşağıdaki sentinel'lerden birine wrap eder:
//
//	return fmt.Errorf("%w: message not found", pkg.ErrNotFound)
//
// Handler bu hatayı pkg.Error ile yazar, status code errors.Is zinciriyle bulunur.
package pkg

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)

// DetailedError, hata mesajının yanında client'a dönecek ek veri taşır
// (ör. grup oluştururken arkadaş olmayan üye ID'leri).
// Unwrap sayesinde errors.Is(err, pkg.ErrBadRequest) çalışmaya devam eder.
type DetailedError struct {
	Kind    error
	Message string
	Details map[string]any
}

func (e *DetailedError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *DetailedError) Unwrap() error {
	return e.Kind
}

// NewDetailedError, kısayol constructor.
func NewDetailedError(kind error, message string, details map[string]any) *DetailedError {
	return &DetailedError{Kind: kind, Message: message, Details: details}
}
