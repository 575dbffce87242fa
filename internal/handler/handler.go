// Package handler holds the HTTP handlers of the custody API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/sirupsen/logrus"
)

type IdentityService interface {
	Signup(ctx context.Context, req model.SignupRequest) (*model.StatusResponse, error)
	Confirm(ctx context.Context, req model.ConfirmRequest) (*model.ConfirmResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) (*model.StatusResponse, error)
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest) (*model.StatusResponse, error)
}

type WalletService interface {
	ProvisionWallet(ctx context.Context, email string) (*model.WalletResponse, error)
}

type PaymentService interface {
	TransferByEmail(ctx context.Context, req model.PayRequest) (*model.PayResponse, error)
	TransferToAddress(ctx context.Context, req model.PayToAddressRequest) (*model.PayResponse, error)
}

type BalanceService interface {
	GetBalance(ctx context.Context, email string) (*model.BalanceResponse, error)
}

type HistoryService interface {
	GetTransactions(ctx context.Context, email string, req *model.LogRequest) (*model.LogResponse, error)
}

// Handler serves every route of the custody API.
type Handler struct {
	identity IdentityService
	wallets  WalletService
	payments PaymentService
	balances BalanceService
	history  HistoryService
	log      logrus.FieldLogger
}

// Services groups the engines the handlers delegate to.
type Services struct {
	Identity IdentityService
	Wallets  WalletService
	Payments PaymentService
	Balances BalanceService
	History  HistoryService
}

func New(s Services, log logrus.FieldLogger) *Handler {
	return &Handler{
		identity: s.Identity,
		wallets:  s.Wallets,
		payments: s.Payments,
		balances: s.Balances,
		history:  s.History,
		log:      log,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := model.ErrorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusOf maps an error kind to its HTTP status. Not-found is only a 404
// where the route says so; elsewhere it is an upstream failure like any other.
func statusOf(err error, notFound bool) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case notFound && errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. A malformed body is a validation error.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", model.ErrValidation, err)
	}
	return nil
}

// Healthz handles GET /healthz
// @Summary      Liveness check
// @Tags         ops
// @Produce      json
// @Success      200  {object}  model.StatusResponse
// @Router       /healthz [get]
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "ok", Message: "healthy"})
}
