package api

import (
	"net/http"

	"github.com/AlexZinkM/chewy-custody/internal/handler"
	"github.com/AlexZinkM/chewy-custody/internal/metrics"

	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(h *handler.Handler, log logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", h.Healthz)

	// Identity endpoints
	mux.HandleFunc("POST /signup", h.Signup)
	mux.HandleFunc("POST /confirmUser", h.ConfirmUser)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST /reset-password", h.ResetPassword)

	// Wallet endpoints
	mux.HandleFunc("POST /createWallet", h.CreateWallet)
	mux.HandleFunc("POST /transfer-chewy-coins", h.TransferByEmail)
	mux.HandleFunc("POST /transfer-chewy-coins-by-wallet-address", h.TransferToAddress)
	mux.HandleFunc("GET /wallet-balance/{email}", h.GetBalance)
	mux.HandleFunc("GET /wallet-transactions/{email}", h.TransactionHistory)

	return chain(mux, withRequestID, withCORS, accessLog(log))
}
