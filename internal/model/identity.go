package model

import "time"

// IdentityStatus tracks the two-phase signup against the identity provider.
type IdentityStatus string

const (
	// IdentityProvisional is written before the provider registration is attempted.
	IdentityProvisional IdentityStatus = "provisional"
	IdentityRegistered  IdentityStatus = "registered"
	IdentityConfirmed   IdentityStatus = "confirmed"
)

// Identity is a registered user (table users).
type Identity struct {
	Email        string         `json:"email" dynamodbav:"email" gorm:"column:email;primaryKey;type:varchar(320)"`
	UserName     string         `json:"user_name" dynamodbav:"user_name" gorm:"column:user_name;type:varchar(128);not null"`
	ReferralID   string         `json:"referral_id" dynamodbav:"referral_id" gorm:"column:referral_id;type:varchar(160)"`
	CreatedDate  time.Time      `json:"created_date" dynamodbav:"created_date" gorm:"column:created_date;not null"`
	RewardPoints uint64         `json:"reward_points" dynamodbav:"reward_points" gorm:"column:reward_points;not null;default:0"`
	Status       IdentityStatus `json:"status" dynamodbav:"status" gorm:"column:status;type:varchar(32);not null"`
}

// TableName implements gorm's tabler.
func (Identity) TableName() string { return "users" }

// SignupRequest represents request for POST /signup
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ConfirmRequest represents request for POST /confirmUser
type ConfirmRequest struct {
	Username         string `json:"username"`
	VerificationCode string `json:"verificationCode"`
	Email            string `json:"email"`
}

// LoginRequest represents request for POST /login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents request for POST /forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents request for POST /reset-password
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// StatusResponse is the generic {status, message} body.
type StatusResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

// ConfirmResponse represents response for POST /confirmUser
type ConfirmResponse struct {
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	WalletResponse *WalletResponse `json:"walletResponse"`
}

// LoginResponse represents response for POST /login
type LoginResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
	Email       string `json:"email"`
}

// Session is what the identity provider hands back on login.
type Session struct {
	AccessToken string
	IDToken     string
	Username    string
	Email       string
}
