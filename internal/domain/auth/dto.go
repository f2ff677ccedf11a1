// internal/domain/auth/dto.go
package auth

import domain "instaup-service/internal/domain/session"

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignupInput struct {
	Email           string `json:"email" binding:"required,email"`
	Name            string `json:"name" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	ReferralCode    string `json:"referral_code"`
}

// Result is returned on successful login or signup: the bearer token plus
// the seeded session snapshot.
type Result struct {
	Token   string         `json:"token"`
	Session domain.Session `json:"session"`
}
