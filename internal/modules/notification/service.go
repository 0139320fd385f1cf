package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studiobooking/internal/domain"
	"studiobooking/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, includeRead bool, limit, offset int) ([]domain.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
}

// Sender queues a notification for storage and delivery.
type Sender interface {
	Emit(n domain.Notification)
}

type Service struct {
	repo   Repository
	sender Sender
}

func NewService(repo Repository, sender Sender) *Service {
	return &Service{repo: repo, sender: sender}
}

type Inbox struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unread_count"`
}

func (s *Service) List(ctx context.Context, userID int64, includeRead bool, limit, offset int) (*Inbox, error) {
	list, total, err := s.repo.ListByUser(ctx, userID, includeRead, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return &Inbox{Notifications: list, Total: total, UnreadCount: unread}, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return mapRepoErr(s.repo.MarkAsRead(ctx, id, userID))
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	return mapRepoErr(s.repo.Delete(ctx, id, userID))
}

type CreateInput struct {
	UserID         int64
	BookingID      *int64
	Type           domain.NotificationType
	Title          string
	Content        string
	DeliveryMethod domain.DeliveryMethod
}

// Create lets staff send a notification directly. It goes through the
// emitter so delivery follows the same path as lifecycle notifications.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Notification, error) {
	if in.Type == "" {
		in.Type = domain.NotifGeneral
	}
	if in.DeliveryMethod == "" {
		in.DeliveryMethod = domain.DeliveryInApp
	}
	if in.UserID <= 0 || in.Title == "" || in.Content == "" {
		return nil, fmt.Errorf("%w: user_id, title and content are required", ErrValidation)
	}
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrValidation, in.Type)
	}
	if !in.DeliveryMethod.IsValid() {
		return nil, fmt.Errorf("%w: unknown delivery method %q", ErrValidation, in.DeliveryMethod)
	}

	n := domain.Notification{
		UserID:         in.UserID,
		BookingID:      in.BookingID,
		Type:           in.Type,
		Title:          in.Title,
		Content:        in.Content,
		DeliveryMethod: in.DeliveryMethod,
		SentAt:         time.Now().UTC(),
	}
	s.sender.Emit(n)
	return &n, nil
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
