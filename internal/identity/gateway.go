// Package identity registers and authenticates users against the hosted
// identity provider and keeps the local user profile in step with it.
package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRegistered is returned by a Provider when the identity exists upstream.
var ErrAlreadyRegistered = errors.New("identity already registered")

// Provider is the hosted identity service.
type Provider interface {
	Register(ctx context.Context, username, password, email string) error
	Confirm(ctx context.Context, username, code string) error
	Authenticate(ctx context.Context, username, password string) (*model.Session, error)
	InitiateReset(ctx context.Context, username string) error
	CompleteReset(ctx context.Context, username, code, newPassword string) error
}

// WalletProvisioner creates the custodial wallet of a confirmed user.
type WalletProvisioner interface {
	ProvisionWallet(ctx context.Context, email string) (*model.WalletResponse, error)
}

type Gateway struct {
	provider       Provider
	store          store.Store
	wallets        WalletProvisioner
	referralPrefix string
	log            logrus.FieldLogger
}

func NewGateway(provider Provider, st store.Store, wallets WalletProvisioner, referralPrefix string, log logrus.FieldLogger) *Gateway {
	return &Gateway{
		provider:       provider,
		store:          st,
		wallets:        wallets,
		referralPrefix: referralPrefix,
		log:            log,
	}
}

func missing(fields map[string]string) error {
	var names []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	slices.Sort(names)
	return fmt.Errorf("%w: missing required fields: %s", model.ErrValidation, strings.Join(names, ", "))
}

func (g *Gateway) referralID(username string) string {
	return fmt.Sprintf("%s_%s_%d", g.referralPrefix, strings.ToLower(username), rand.IntN(1000))
}

// Signup writes a provisional profile, registers the identity upstream and then
// marks the profile registered. A provisional profile left by an earlier failed
// attempt is retried instead of rejected.
func (g *Gateway) Signup(ctx context.Context, req model.SignupRequest) (*model.StatusResponse, error) {
	if err := missing(map[string]string{"email": req.Email, "username": req.Username, "password": req.Password}); err != nil {
		return nil, err
	}
	log := g.log.WithField("email", req.Email)

	profile := &model.Identity{
		Email:       req.Email,
		UserName:    strings.ToLower(req.Username),
		ReferralID:  g.referralID(req.Username),
		CreatedDate: time.Now().UTC(),
		Status:      model.IdentityProvisional,
	}

	retry := false
	if err := g.store.CreateUser(ctx, profile); err != nil {
		if !errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		existing, getErr := g.store.GetUser(ctx, req.Email)
		if getErr != nil {
			return nil, fmt.Errorf("failed to read existing user: %w", getErr)
		}
		if existing.Status != model.IdentityProvisional {
			return nil, fmt.Errorf("%w: email already exists", model.ErrConflict)
		}
		log.Info("retrying registration of provisional profile")
		retry = true
	}

	if err := g.provider.Register(ctx, req.Username, req.Password, req.Email); err != nil {
		if !(retry && errors.Is(err, ErrAlreadyRegistered)) {
			log.WithError(err).Error("error signing up user")
			return nil, err
		}
		log.Info("identity already registered upstream")
	}

	if err := g.store.UpdateUserStatus(ctx, req.Email, model.IdentityRegistered); err != nil {
		return nil, fmt.Errorf("failed to mark user registered: %w", err)
	}

	log.Info("user registered")
	return &model.StatusResponse{
		Status:  "Success",
		Message: "User registered successfully. Please check your email for OTP.",
	}, nil
}

// Confirm verifies the code upstream and, only on success, provisions the wallet.
func (g *Gateway) Confirm(ctx context.Context, req model.ConfirmRequest) (*model.ConfirmResponse, error) {
	if err := missing(map[string]string{"username": req.Username, "verificationCode": req.VerificationCode, "email": req.Email}); err != nil {
		return nil, err
	}
	log := g.log.WithField("email", req.Email)

	if err := g.provider.Confirm(ctx, req.Username, req.VerificationCode); err != nil {
		log.WithError(err).Error("error confirming user")
		return nil, err
	}

	if err := g.store.UpdateUserStatus(ctx, req.Email, model.IdentityConfirmed); err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("failed to mark user confirmed: %w", err)
		}
		log.Warn("confirmed identity has no local profile")
	}

	wallet, err := g.wallets.ProvisionWallet(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return &model.ConfirmResponse{
		Status:         "Success",
		Message:        "User confirmed and wallet created successfully",
		WalletResponse: wallet,
	}, nil
}

// Login exchanges credentials for tokens and reads username and email from the ID token.
func (g *Gateway) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if err := missing(map[string]string{"username": req.Username, "password": req.Password}); err != nil {
		return nil, err
	}

	session, err := g.provider.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		g.log.WithError(err).WithField("username", req.Username).Error("error authenticating user")
		return nil, err
	}

	username, email, err := idTokenClaims(session.IDToken)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Status:      "Success",
		Message:     "Login successful",
		AccessToken: session.AccessToken,
		Username:    username,
		Email:       email,
	}, nil
}

// idTokenClaims decodes the ID token without verifying it. The token comes
// straight from the provider over TLS and is not accepted from clients.
func idTokenClaims(idToken string) (username, email string, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", "", fmt.Errorf("%w: malformed id token: %w", model.ErrUpstreamAuth, err)
	}
	username, _ = claims["cognito:username"].(string)
	email, _ = claims["email"].(string)
	return username, email, nil
}

func (g *Gateway) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) (*model.StatusResponse, error) {
	if err := missing(map[string]string{"email": req.Email}); err != nil {
		return nil, err
	}
	if err := g.provider.InitiateReset(ctx, req.Email); err != nil {
		g.log.WithError(err).Error("error initiating password reset")
		return nil, err
	}
	return &model.StatusResponse{Message: "Password reset initiated, check your email"}, nil
}

func (g *Gateway) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) (*model.StatusResponse, error) {
	if err := missing(map[string]string{"email": req.Email, "code": req.Code, "newPassword": req.NewPassword}); err != nil {
		return nil, err
	}
	if err := g.provider.CompleteReset(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		g.log.WithError(err).Error("error resetting password")
		return nil, err
	}
	return &model.StatusResponse{Message: "Password reset successfully"}, nil
}
