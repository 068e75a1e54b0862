package service

import (
	"testing"
	"time"

	"github.com/examply/proctor-backend/internal/config"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/google/uuid"
)

func testAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // min cost, tests only
	})
}

func TestPasswordHashRoundTrip(t *testing.T) {
	s := testAuthService()

	hash, err := s.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := s.CheckPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("CheckPassword with correct password: %v", err)
	}
	if err := s.CheckPassword(hash, "wrong"); err != ErrInvalidCredentials {
		t.Errorf("CheckPassword with wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestTeacherTokenRoundTrip(t *testing.T) {
	s := testAuthService()
	now := time.Now()

	token, err := s.GenerateTeacherToken(42, now)
	if err != nil {
		t.Fatalf("GenerateTeacherToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypeTeacher {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, TokenTypeTeacher)
	}
	if claims.TeacherID != 42 {
		t.Errorf("TeacherID = %d, want 42", claims.TeacherID)
	}
}

func TestAttemptTokenRoundTrip(t *testing.T) {
	s := testAuthService()
	now := time.Now()

	attempt := &model.Attempt{
		ID:            uuid.New(),
		StudentName:   "Amina",
		StudentNumber: "20240101",
		ExamID:        uuid.New(),
		VariantID:     7,
		StartedAt:     now,
		EndsAt:        now.Add(90 * time.Minute),
	}

	token, err := s.GenerateAttemptToken(attempt, now)
	if err != nil {
		t.Fatalf("GenerateAttemptToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypeAttempt {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, TokenTypeAttempt)
	}
	if claims.AttemptID != attempt.ID.String() {
		t.Errorf("AttemptID = %q, want %q", claims.AttemptID, attempt.ID)
	}
	if claims.StudentNumber != "20240101" {
		t.Errorf("StudentNumber = %q, want 20240101", claims.StudentNumber)
	}
	if claims.VariantID != 7 {
		t.Errorf("VariantID = %d, want 7", claims.VariantID)
	}
}

func TestAttemptTokenExpiresPastWindow(t *testing.T) {
	s := testAuthService()
	now := time.Now()

	attempt := &model.Attempt{
		ID:            uuid.New(),
		StudentNumber: "20240101",
		ExamID:        uuid.New(),
		// Window plus slack already elapsed.
		EndsAt: now.Add(-attemptTokenSlack - time.Minute),
	}

	token, err := s.GenerateAttemptToken(attempt, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("GenerateAttemptToken: %v", err)
	}
	if _, err := s.ValidateToken(token); err == nil {
		t.Error("ValidateToken accepted a token past the attempt window plus slack")
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	s := testAuthService()
	other := NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour})

	token, err := other.GenerateTeacherToken(1, time.Now())
	if err != nil {
		t.Fatalf("GenerateTeacherToken: %v", err)
	}
	if _, err := s.ValidateToken(token); err == nil {
		t.Error("ValidateToken accepted a token signed with a different secret")
	}
}
