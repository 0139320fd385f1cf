package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studiobooking/internal/domain"
	"studiobooking/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service registers clients and exchanges credentials for access tokens.
// Staff and admin accounts are provisioned out of band (see cmd/seed).
type Service struct {
	users UserRepository
	jwt   TokenIssuer
	cost  int
	log   *zap.Logger
}

func NewService(users UserRepository, jwt TokenIssuer, log *zap.Logger) *Service {
	return &Service{users: users, jwt: jwt, cost: bcrypt.DefaultCost, log: log}
}

type Session struct {
	User  UserPublic `json:"user"`
	Token string     `json:"token"`
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	hash, err := HashPassword(req.Password, s.cost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         domain.RoleClient,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return s.session(user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.Warn("failed login", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *Service) Me(ctx context.Context, userID int64) (*UserPublic, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	pub := toPublic(user)
	return &pub, nil
}

func (s *Service) session(user *domain.User) (*Session, error) {
	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: toPublic(user), Token: token}, nil
}

// HashPassword is shared with the seeder.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func toPublic(u *domain.User) UserPublic {
	return UserPublic{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: string(u.Role)}
}
