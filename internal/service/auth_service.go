package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/examply/proctor-backend/internal/config"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on a failed teacher login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenType distinguishes teacher tokens from student attempt tokens.
type TokenType string

const (
	TokenTypeTeacher TokenType = "teacher"
	TokenTypeAttempt TokenType = "attempt"
)

// attemptTokenSlack keeps an attempt token verifiable slightly past the
// attempt window so a final submission racing the deadline still reaches
// the core, where write-time expiry is the real authority.
const attemptTokenSlack = 5 * time.Minute

// Claims extends JWT standard claims with app-specific fields. Attempt
// tokens are the wire form of an attempt handle: they carry everything the
// student endpoints need without a session store.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`

	// Teacher only.
	TeacherID int `json:"teacher_id,omitempty"`

	// Attempt only.
	AttemptID     string `json:"attempt_id,omitempty"`
	StudentName   string `json:"student_name,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
	ExamID        string `json:"exam_id,omitempty"`
	VariantID     int64  `json:"variant_id,omitempty"`
}

// AuthService handles password hashing and JWT minting/validation.
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateTeacherToken creates a JWT for a teacher.
func (s *AuthService) GenerateTeacherToken(teacherID int, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(teacherID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeTeacher,
		TeacherID: teacherID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// GenerateAttemptToken mints the opaque handle a student holds for the
// lifetime of one attempt. It expires with the attempt window (plus a small
// slack; the ledger enforces the exact deadline at write time).
func (s *AuthService) GenerateAttemptToken(attempt *model.Attempt, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   attempt.StudentNumber,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(attempt.EndsAt.Add(attemptTokenSlack)),
		},
		TokenType:     TokenTypeAttempt,
		AttemptID:     attempt.ID.String(),
		StudentName:   attempt.StudentName,
		StudentNumber: attempt.StudentNumber,
		ExamID:        attempt.ExamID.String(),
		VariantID:     attempt.VariantID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and validates a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
