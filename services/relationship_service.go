package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/cache"
	"github.com/akinalp/sohbet/repository"
)

// RelationshipService, engel kayıtları ve ilişki kapısı.
//
// CanInteract mesaj, arama, arkadaşlık isteği ve gruba ekleme öncesi
// sorulur. Sonuç çift başına kısa süre cache'lenir; Block/Unblock cache'i
// hemen temizler ve o sırada süren okumaların sonucu cache'e yazılmaz.
type RelationshipService interface {
	CanInteract(ctx context.Context, userA, userB string) (bool, error)
	// EnsureCanInteract, engel varsa ErrForbidden döner.
	EnsureCanInteract(ctx context.Context, userA, userB string) error

	Block(ctx context.Context, blockerID string, req *models.BlockRequest) (*models.Block, error)
	Unblock(ctx context.Context, blockerID string, req *models.UnblockRequest) error
	ListBlocked(ctx context.Context, userID string) ([]models.BlockWithUser, error)
}

type relationshipService struct {
	db        *sql.DB
	blockRepo repository.BlockRepository
	userRepo  repository.UserRepository
	uploads   UploadService
	gate      *cache.TTLCache[string, bool]

	// gen, her Block/Unblock'ta artar. CanInteract okuma başında gördüğü
	// değer değiştiyse sonucu cache'e yazmaz.
	mu  sync.Mutex
	gen uint64
}

func NewRelationshipService(
	db *sql.DB,
	blockRepo repository.BlockRepository,
	userRepo repository.UserRepository,
	uploads UploadService,
	gate *cache.TTLCache[string, bool],
) RelationshipService {
	return &relationshipService{
		db:        db,
		blockRepo: blockRepo,
		userRepo:  userRepo,
		uploads:   uploads,
		gate:      gate,
	}
}

func pairKey(userA, userB string) string {
	low, high := models.SortedPair(userA, userB)
	return low + "|" + high
}

func (s *relationshipService) CanInteract(ctx context.Context, userA, userB string) (bool, error) {
	key := pairKey(userA, userB)
	if allowed, ok := s.gate.Get(key); ok {
		return allowed, nil
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	blocked, err := s.blockRepo.ExistsBetween(ctx, userA, userB)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.gate.Set(key, !blocked)
	}
	s.mu.Unlock()
	return !blocked, nil
}

// invalidate, commit edilmiş bir engel değişikliğinden sonra çağrılır.
func (s *relationshipService) invalidate(userA, userB string) {
	s.mu.Lock()
	s.gen++
	s.gate.Delete(pairKey(userA, userB))
	s.mu.Unlock()
}

func (s *relationshipService) EnsureCanInteract(ctx context.Context, userA, userB string) error {
	ok, err := s.CanInteract(ctx, userA, userB)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: you cannot interact with this user", pkg.ErrForbidden)
	}
	return nil
}

// Block, tek transaction'da: çiftin arkadaşlık isteği blocked olur, DM konuşması
// (mesajlarıyla birlikte) silinir, engel kaydı yazılır.
func (s *relationshipService) Block(ctx context.Context, blockerID string, req *models.BlockRequest) (*models.Block, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if req.UserID == blockerID {
		return nil, fmt.Errorf("%w: you cannot block yourself", pkg.ErrBadRequest)
	}
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	block := &models.Block{
		ID:        uuid.NewString(),
		BlockerID: blockerID,
		BlockedID: req.UserID,
		Reason:    req.Reason,
		CreatedAt: now,
	}

	// Mesaj satırları konuşmayla cascade silinir; ek dosyaları commit sonrası.
	var attachments []string
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewSQLiteFriendshipRepo(tx).MarkPairBlocked(ctx, blockerID, req.UserID, now); err != nil {
			return err
		}
		urls, err := repository.NewSQLiteMessageRepo(tx).AttachmentURLsByPair(ctx, blockerID, req.UserID)
		if err != nil {
			return err
		}
		attachments = urls
		if err := repository.NewSQLiteConversationRepo(tx).DeleteByPair(ctx, blockerID, req.UserID); err != nil {
			return err
		}
		return repository.NewSQLiteBlockRepo(tx).Create(ctx, block)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(blockerID, req.UserID)
	for _, url := range attachments {
		s.uploads.Remove(url)
	}
	return block, nil
}

// Unblock, engeli kaldırır ve blocked isteği rejected yapar. Arkadaşlık geri gelmez.
func (s *relationshipService) Unblock(ctx context.Context, blockerID string, req *models.UnblockRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewSQLiteBlockRepo(tx).Delete(ctx, blockerID, req.UserID); err != nil {
			return err
		}
		return repository.NewSQLiteFriendshipRepo(tx).MarkPairUnblocked(ctx, blockerID, req.UserID, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	s.invalidate(blockerID, req.UserID)
	return nil
}

func (s *relationshipService) ListBlocked(ctx context.Context, userID string) ([]models.BlockWithUser, error) {
	return s.blockRepo.ListByBlocker(ctx, userID)
}
