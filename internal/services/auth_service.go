package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"shoply/internal/models"
	"shoply/internal/repositories"
)

// AuthService handles registration, login, and token resolution.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService. Tokens are valid for 30 minutes.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  30 * time.Minute,
	}
}

// Register creates a new customer account with a bcrypt password hash.
// The plaintext password is never stored.
func (s *AuthService) Register(email, fullName, password string) (*models.User, error) {
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer, // registration never grants admin
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// Login authenticates by email and password and issues a signed JWT whose
// subject is the user's email.
func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// Do not reveal whether the email exists.
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.Email,
		"exp": now.Add(s.tokenTTL).Unix(),
		"iat": now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ResolveToken validates a bearer token and returns the user it identifies.
// Any failure mode collapses into ErrInvalidToken: bad signature, malformed
// token, expiry, or a subject that no longer maps to a known user.
func (s *AuthService) ResolveToken(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	email, ok := claims["sub"].(string)
	if !ok || email == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}
	return user, nil
}
