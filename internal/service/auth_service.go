package service

import (
	"time"

	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// AuthService issues JWTs for the two identity flows: the configured admin
// account (password-checked) and lightweight username-only quiz takers.
type AuthService struct {
	Users             *UserService
	JWTSecret         string
	TokenLifetime     time.Duration
	AdminUsername     string
	AdminPasswordHash string
}

func NewAuthService(users *UserService, jwtSecret string, tokenLifetime time.Duration, adminUsername, adminPasswordHash string) *AuthService {
	return &AuthService{
		Users:             users,
		JWTSecret:         jwtSecret,
		TokenLifetime:     tokenLifetime,
		AdminUsername:     adminUsername,
		AdminPasswordHash: adminPasswordHash,
	}
}

// LoginResult pairs the signed token with the identity it represents.
type LoginResult struct {
	Token    string         `json:"token"`
	UserID   uint           `json:"userId,omitempty"`
	Username string         `json:"username"`
	Role     model.UserRole `json:"role"`
}

// AdminLogin checks the operator credentials against the configured bcrypt
// hash. Failures are indistinguishable by design.
func (s *AuthService) AdminLogin(username, password string) (*LoginResult, error) {
	if username != s.AdminUsername || s.AdminPasswordHash == "" {
		return nil, util.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.AdminPasswordHash), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredential
	}

	token, err := util.GenerateJWT(0, username, model.RoleAdmin, s.JWTSecret, s.TokenLifetime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Username: username, Role: model.RoleAdmin}, nil
}

// UserLogin resolves (or creates) the named user and issues a taker token.
func (s *AuthService) UserLogin(username string) (*LoginResult, error) {
	user, err := s.Users.GetOrCreate(username)
	if err != nil {
		return nil, err
	}
	if err := s.Users.Touch(user.ID); err != nil {
		return nil, err
	}

	token, err := util.GenerateJWT(user.ID, user.Username, model.RoleUser, s.JWTSecret, s.TokenLifetime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, UserID: user.ID, Username: user.Username, Role: model.RoleUser}, nil
}
