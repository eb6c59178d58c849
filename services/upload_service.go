package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

// UploadURLPrefix, yüklenen dosyaların public URL öneki.
const UploadURLPrefix = "/api/uploads/"

// UploadKind, hangi MIME listesinin uygulanacağını seçer.
type UploadKind int

const (
	UploadAttachment UploadKind = iota
	UploadAvatar
)

// UploadService, dosyaları yerel diske yazar ve siler.
//
// Dosya DB kaydından önce yazılır. Sonraki adım başarısız olursa çağıran
// Remove ile dosyayı temizlemek zorundadır; aksi halde yetim dosya kalır.
type UploadService interface {
	Save(file io.Reader, header *multipart.FileHeader, kind UploadKind) (*models.Attachment, error)
	Remove(url string)
}

type uploadService struct {
	uploadDir string
	maxSize   int64
	logger    *zap.Logger
}

func NewUploadService(uploadDir string, maxSize int64, logger *zap.Logger) UploadService {
	return &uploadService{
		uploadDir: uploadDir,
		maxSize:   maxSize,
		logger:    logger.Named("upload"),
	}
}

var attachmentMimeTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

var avatarMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func (s *uploadService) Save(file io.Reader, header *multipart.FileHeader, kind UploadKind) (*models.Attachment, error) {
	if header.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	contentType := header.Header.Get("Content-Type")
	mimeBase := strings.TrimSpace(strings.Split(contentType, ";")[0])

	allowed := attachmentMimeTypes
	if kind == UploadAvatar {
		allowed = avatarMimeTypes
	}
	if !allowed[mimeBase] {
		return nil, fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, mimeBase)
	}

	// {random_hex}_{original_filename}
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random filename: %w", err)
	}
	diskFilename := hex.EncodeToString(randomBytes) + "_" + sanitizeFilename(header.Filename)

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	destPath := filepath.Join(s.uploadDir, diskFilename)
	dest, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dest.Close()

	// Header'daki boyut istemciden gelir; kopyalarken de sınır uygulanır.
	written, err := io.Copy(dest, io.LimitReader(file, s.maxSize+1))
	if err != nil || written > s.maxSize {
		os.Remove(destPath)
		if err == nil {
			return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
		}
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &models.Attachment{
		URL:      UploadURLPrefix + diskFilename,
		Name:     header.Filename,
		MimeType: mimeBase,
	}, nil
}

// Remove, Save'in döndüğü URL'e ait dosyayı siler. Yerel upload değilse
// (ör. varsayılan avatar URL'i) hiçbir şey yapmaz. Hatalar sadece loglanır.
func (s *uploadService) Remove(url string) {
	if !strings.HasPrefix(url, UploadURLPrefix) {
		return
	}

	name := filepath.Base(strings.TrimPrefix(url, UploadURLPrefix))
	if err := os.Remove(filepath.Join(s.uploadDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove uploaded file", zap.String("file", name), zap.Error(err))
	}
}

// sanitizeFilename, dizin bileşenlerini ve tehlikeli karakterleri atar
// (../../etc/passwd gibi).
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	return name
}
