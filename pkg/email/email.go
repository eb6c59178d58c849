// Package email, şifre sıfırlama e-postalarını gönderir.
//
// Service'ler EmailSender interface'ine bağımlıdır. Üretimde Resend
// implementasyonu, API key yoksa hiçbir şey göndermeyen NoopSender kullanılır.
package email

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"
)

// EmailSender, e-posta gönderimi için interface.
type EmailSender interface {
	// SendPasswordReset, token'ı içeren sıfırlama linkini gönderir.
	// token plaintext'tir; DB'de sadece hash'i durur.
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender, fromEmail Resend'de doğrulanmış bir domain altında olmalıdır.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;background:#f4f4f5;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:480px;margin:0 auto;background:#ffffff;border-radius:8px;padding:32px;">
    <h2 style="margin:0 0 16px 0;color:#18181b;">Şifre sıfırlama</h2>
    <p style="color:#3f3f46;line-height:1.6;">
      Hesabın için bir şifre sıfırlama isteği aldık. Yeni şifreni belirlemek için aşağıdaki bağlantıya tıkla.
    </p>
    <p style="margin:24px 0;">
      <a href="{{.Link}}" style="background:#2563eb;color:#ffffff;padding:12px 24px;border-radius:6px;text-decoration:none;">Şifremi sıfırla</a>
    </p>
    <p style="color:#71717a;font-size:13px;">
      Bağlantı {{.Minutes}} dakika geçerlidir. İsteği sen yapmadıysan bu e-postayı yok sayabilirsin.
    </p>
  </div>
</body>
</html>`))

// ResetLinkTTLMinutes, e-postada yazan geçerlilik süresi. services paketi aynı süreyi kullanır.
const ResetLinkTTLMinutes = 20

func (s *resendSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, url.QueryEscape(token))

	var body strings.Builder
	if err := resetTemplate.Execute(&body, struct {
		Link    string
		Minutes int
	}{link, ResetLinkTTLMinutes}); err != nil {
		return fmt.Errorf("failed to render password reset email: %w", err)
	}

	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    fmt.Sprintf("sohbet <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: "Şifre sıfırlama - sohbet",
		Html:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// NoopSender, e-posta yapılandırılmamışken kullanılır.
type NoopSender struct{}

func (NoopSender) SendPasswordReset(context.Context, string, string) error { return nil }
