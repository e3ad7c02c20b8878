package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	Country          string     `json:"country"`
	IsVerified       bool       `json:"is_verified"`
	VerificationCode *string    `json:"-"`
	CodeSentAt       *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type UserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Country    string `json:"country"`
	IsVerified bool   `json:"is_verified"`
}

// RequestCodeRequest is the body of both /auth/register and /auth/login;
// both paths upsert the user and send a fresh code.
type RequestCodeRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Country  string `json:"country"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	codeRegex  = regexp.MustCompile(`^\d{6}$`)
)

func (r *RequestCodeRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Country = strings.TrimSpace(r.Country)
}

func (r *RequestCodeRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(r.FullName) < 2 {
		return fmt.Errorf("%w: full name must be at least 2 characters", ErrValidation)
	}
	if len(r.Country) < 2 {
		return fmt.Errorf("%w: valid country name required", ErrValidation)
	}
	return nil
}

func (r *VerifyCodeRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	// The code itself is never trimmed or normalized; it must match the
	// stored value byte for byte.
}

func (r *VerifyCodeRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if !codeRegex.MatchString(r.Code) {
		return fmt.Errorf("%w: code must be 6 digits", ErrValidation)
	}
	return nil
}

// ToUserInfo strips verification state before a user goes on the wire.
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Country:    u.Country,
		IsVerified: u.IsVerified,
	}
}
