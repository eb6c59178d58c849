package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"

	"github.com/akinalp/sohbet/config"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/ws"
)

const callTokenTTL = 2 * time.Hour

// CallService, 1:1 arama kayıtları ve LiveKit oda token'ları.
// Engelli çiftler ne kayıt oluşturabilir ne de token alabilir.
type CallService interface {
	Log(ctx context.Context, callerID, receiverID string, req *models.CreateCallLogRequest) (*models.CallLog, error)
	History(ctx context.Context, userID string) ([]models.CallLog, error)
	HistoryWith(ctx context.Context, userID, otherID string) ([]models.CallLog, error)
	Token(ctx context.Context, callerID, receiverID string, req *models.CallTokenRequest) (*models.CallToken, error)
}

type callService struct {
	callRepo      repository.CallLogRepository
	userRepo      repository.UserRepository
	relationships RelationshipService
	hub           ws.EventPublisher
	livekit       config.LiveKitConfig
}

func NewCallService(
	callRepo repository.CallLogRepository,
	userRepo repository.UserRepository,
	relationships RelationshipService,
	hub ws.EventPublisher,
	livekit config.LiveKitConfig,
) CallService {
	return &callService{
		callRepo:      callRepo,
		userRepo:      userRepo,
		relationships: relationships,
		hub:           hub,
		livekit:       livekit,
	}
}

// reachable, aranan kişinin var olduğunu ve engel olmadığını doğrular.
func (s *callService) reachable(ctx context.Context, callerID, receiverID string) (*models.User, error) {
	if callerID == receiverID {
		return nil, fmt.Errorf("%w: you cannot call yourself", pkg.ErrBadRequest)
	}
	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if err := s.relationships.EnsureCanInteract(ctx, callerID, receiverID); err != nil {
		return nil, err
	}
	return receiver, nil
}

func (s *callService) Log(ctx context.Context, callerID, receiverID string, req *models.CreateCallLogRequest) (*models.CallLog, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if _, err := s.reachable(ctx, callerID, receiverID); err != nil {
		return nil, err
	}

	log := &models.CallLog{
		ID:         uuid.NewString(),
		CallerID:   callerID,
		ReceiverID: receiverID,
		CallType:   req.CallType,
		Duration:   *req.Duration,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.callRepo.Create(ctx, log); err != nil {
		return nil, err
	}

	created, err := s.callRepo.GetByID(ctx, log.ID)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUser(receiverID, ws.Event{Op: ws.OpNewCallLog, Data: created})
	return created, nil
}

func (s *callService) History(ctx context.Context, userID string) ([]models.CallLog, error) {
	return s.callRepo.ListForUser(ctx, userID)
}

func (s *callService) HistoryWith(ctx context.Context, userID, otherID string) ([]models.CallLog, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	return s.callRepo.ListBetween(ctx, userID, otherID)
}

// CallRoom, çiftin oda adı. İki taraf aynı adı üretir.
func CallRoom(userA, userB string) string {
	low, high := models.SortedPair(userA, userB)
	return "call-" + low + "-" + high
}

func (s *callService) Token(ctx context.Context, callerID, receiverID string, req *models.CallTokenRequest) (*models.CallToken, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if s.livekit.APIKey == "" || s.livekit.APISecret == "" {
		return nil, fmt.Errorf("%w: calls are not configured on this server", pkg.ErrBadRequest)
	}

	if _, err := s.reachable(ctx, callerID, receiverID); err != nil {
		return nil, err
	}
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	room := CallRoom(callerID, receiverID)
	canPublish := true
	canSubscribe := true

	at := auth.NewAccessToken(s.livekit.APIKey, s.livekit.APISecret)
	at.AddGrant(&auth.VideoGrant{
		RoomJoin:     true,
		Room:         room,
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}).
		SetIdentity(callerID).
		SetName(caller.Fullname).
		SetValidFor(callTokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to generate livekit token: %w", err)
	}

	return &models.CallToken{
		Token:    token,
		URL:      s.livekit.URL,
		Room:     room,
		CallType: req.CallType,
	}, nil
}
