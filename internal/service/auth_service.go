package service

import (
	"context"
	"fmt"
	"time"

	"github.com/menuqr/menuqr/internal/domain"
	"github.com/menuqr/menuqr/internal/mailer"
	"github.com/menuqr/menuqr/internal/repository"
	"github.com/menuqr/menuqr/pkg/events"
	"github.com/menuqr/menuqr/pkg/logger"
	"github.com/menuqr/menuqr/pkg/verification"
)

// AuthService owns the email verification workflow: code issuance on
// register/login and one-time consumption on verify.
type AuthService interface {
	// RequestCode upserts the user with a fresh code and emails it.
	// allowVerified selects the entry point policy: the register path
	// rejects already-verified emails, the login path treats them as a
	// resend.
	RequestCode(ctx context.Context, req *domain.RequestCodeRequest, allowVerified bool) (*domain.User, error)
	// ConfirmCode checks the pending code and, on success, marks the
	// user verified and clears the code so it can never be replayed.
	ConfirmCode(ctx context.Context, req *domain.VerifyCodeRequest) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	mailer   mailer.Service
	eventBus events.Publisher
	codeTTL  time.Duration
}

// NewAuthService builds the workflow. codeTTL bounds how long an issued
// code stays confirmable; non-positive values use the default.
func NewAuthService(userRepo repository.UserRepository, mailer mailer.Service, eventBus events.Publisher, codeTTL time.Duration) AuthService {
	if codeTTL <= 0 {
		codeTTL = verification.DefaultCodeTTL
	}
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		eventBus: eventBus,
		codeTTL:  codeTTL,
	}
}

func (s *authService) RequestCode(ctx context.Context, req *domain.RequestCodeRequest, allowVerified bool) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil && existing.IsVerified && !allowVerified {
		return nil, domain.ErrEmailExists
	}

	code, err := verification.GenerateCode()
	if err != nil {
		return nil, err
	}

	// Overwrites any outstanding code; only the newest one counts.
	user, err := s.userRepo.UpsertWithCode(ctx, req, code, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	// No rollback on send failure: the record keeps the unsent code and
	// the user recovers by requesting a new one.
	if err := s.mailer.SendVerificationCode(user.Email, user.FullName, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	return user, nil
}

func (s *authService) ConfirmCode(ctx context.Context, req *domain.VerifyCodeRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	// Exact byte equality against the stored code; a consumed code (nil)
	// is a mismatch.
	if user.VerificationCode == nil || *user.VerificationCode != req.Code {
		return nil, domain.ErrInvalidCode
	}

	if !verification.CodeValid(user.CodeSentAt, time.Now(), s.codeTTL) {
		return nil, domain.ErrCodeExpired
	}

	consumed, err := s.userRepo.ConsumeCode(ctx, req.Email, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to consume verification code: %w", err)
	}
	if !consumed {
		// A concurrent request already consumed or replaced the code.
		return nil, domain.ErrInvalidCode
	}

	user.IsVerified = true
	user.VerificationCode = nil
	user.CodeSentAt = nil

	if err := s.eventBus.Publish(ctx, events.SubjectUserVerified, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user.verified event", "error", err, "user_id", user.ID)
	}

	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
