package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trusthire/internal/models"
	"trusthire/utils"
)

type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, id int) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	SetSession(ctx context.Context, userID int, session models.Session) error
	GetSessionByToken(ctx context.Context, token string) (models.Session, error)
	UpdateFCMToken(ctx context.Context, userID int, token string) error
}

type UserService struct {
	UserRepo     UserStore
	TokenManager *utils.Manager
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

const minPasswordLength = 6

func validRole(role string) bool {
	switch role {
	case models.RoleClient, models.RoleFreelancer, models.RoleWorker:
		return true
	}
	return false
}

func (s *UserService) SignUp(ctx context.Context, req models.SignUpRequest) (models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" {
		return models.User{}, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return models.User{}, fmt.Errorf("%w: invalid email", models.ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return models.User{}, fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidInput, minPasswordLength)
	}
	if !validRole(req.Role) {
		return models.User{}, fmt.Errorf("%w: role must be client, freelancer or worker", models.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.UserRepo.CreateUser(ctx, models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     req.Role,
	})
	if err != nil {
		return models.User{}, err
	}
	user.Password = ""
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) SignIn(ctx context.Context, req models.SignInRequest) (models.Tokens, error) {
	user, err := s.UserRepo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	return s.CreateSession(ctx, user)
}

func (s *UserService) CreateSession(ctx context.Context, user models.User) (models.Tokens, error) {
	var res models.Tokens
	var err error

	res.AccessToken, err = s.TokenManager.NewJWT(user.ID, user.Role, s.AccessTTL)
	if err != nil {
		return res, err
	}
	res.RefreshToken, err = s.TokenManager.NewRefreshToken()
	if err != nil {
		return res, err
	}

	session := models.Session{
		UserID:       user.ID,
		Role:         user.Role,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    time.Now().Add(s.RefreshTTL),
	}
	if err := s.UserRepo.SetSession(ctx, user.ID, session); err != nil {
		return res, err
	}
	return res, nil
}

// Refresh issues a new access token for a live refresh-token session.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (models.Session, string, error) {
	if refreshToken == "" {
		return models.Session{}, "", models.ErrInvalidCredentials
	}
	session, err := s.UserRepo.GetSessionByToken(ctx, refreshToken)
	if err != nil || session.RefreshToken != refreshToken || session.ExpiresAt.Before(time.Now()) {
		return models.Session{}, "", models.ErrInvalidCredentials
	}
	access, err := s.TokenManager.NewJWT(session.UserID, session.Role, s.AccessTTL)
	if err != nil {
		return models.Session{}, "", err
	}
	return session, access, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (models.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, id)
	user.Password = ""
	return user, err
}

func (s *UserService) UpdateFCMToken(ctx context.Context, userID int, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", models.ErrInvalidInput)
	}
	return s.UserRepo.UpdateFCMToken(ctx, userID, token)
}
