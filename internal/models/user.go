package models

import (
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleWorker     = "worker"
	RoleAdmin      = "admin"
)

type User struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email,omitempty"`
	Password         string     `json:"password,omitempty"`
	Role             string     `json:"role"`
	TotalEarnings    float64    `json:"total_earnings"`
	AvailableBalance float64    `json:"available_balance"`
	AverageRating    float64    `json:"average_rating"`
	RatingCount      int        `json:"rating_count"`
	FCMToken         string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// IsProvider reports whether the user sells work (freelancer or on-site worker).
func (u User) IsProvider() bool {
	return u.Role == RoleFreelancer || u.Role == RoleWorker
}

type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Session struct {
	UserID       int       `json:"user_id"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
