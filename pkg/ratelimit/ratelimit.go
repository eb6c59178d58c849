// Package ratelimit, in-memory anahtar bazlı hız sınırlayıcılar.
//
// Tek instance deploy varsayılır; sayaçlar süreç belleğinde durur ve
// arka planda periyodik olarak temizlenir. Proje içi hiçbir pakete bağımlı
// değildir (handlers ve middleware ikisi de kullanır).
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // sıfır = ceza yok
}

// Limiter, sabit pencereli sayaç. window içinde max'tan fazla istek reddedilir.
//
// cooldown > 0 ise limit aşıldığında anahtar cooldown süresince tamamen
// kilitlenir (mesaj spam'i). cooldown = 0 ise kilit pencere bitene kadar sürer
// (login denemeleri).
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	max      int
	window   time.Duration
	cooldown time.Duration
	now      func() time.Time
	stop     chan struct{}
}

// NewLoginLimiter, IP başına login denemesi sınırlayıcısı.
func NewLoginLimiter(maxAttempts int, window time.Duration) *Limiter {
	return newLimiter(maxAttempts, window, 0, time.Minute)
}

// NewMessageLimiter, kullanıcı başına mesaj gönderim sınırlayıcısı.
func NewMessageLimiter(maxMessages int, window, cooldown time.Duration) *Limiter {
	return newLimiter(maxMessages, window, cooldown, 30*time.Second)
}

func newLimiter(max int, window, cooldown, cleanupEvery time.Duration) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		max:      max,
		window:   window,
		cooldown: cooldown,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(cleanupEvery)
	return l
}

// Allow, isteği sayar ve izin verilip verilmediğini döner.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		*b = bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > l.window {
		b.count, b.windowStart = 1, now
		return true
	}

	b.count++
	if b.count <= l.max {
		return true
	}
	if l.cooldown > 0 {
		b.cooldownUntil = now.Add(l.cooldown)
	}
	return false
}

// Reset, anahtarın sayacını siler (ör. başarılı login sonrası).
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// RetryAfterSeconds, Retry-After header'ı için kalan bekleme süresi.
func (l *Limiter) RetryAfterSeconds(key string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return 0
	}

	until := b.windowStart.Add(l.window)
	if !b.cooldownUntil.IsZero() {
		until = b.cooldownUntil
	}
	remaining := until.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close, temizleme goroutine'ini durdurur.
func (l *Limiter) Close() {
	close(l.stop)
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if now.Sub(b.windowStart) > l.window && (b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)) {
			delete(l.buckets, key)
		}
	}
}

// ClientIP, isteğin gerçek istemci adresi. Reverse proxy arkasında
// X-Forwarded-For'un ilk değeri, yoksa X-Real-IP, yoksa RemoteAddr kullanılır.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
