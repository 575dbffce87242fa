package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"
)

// CreateWallet handles POST /createWallet
// @Summary      Create wallet
// @Description  Creates the custodial wallet of a user and funds it with gas and the token grant
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateWalletRequest  true  "Owner email"
// @Success      201      {object}  model.WalletResponse
// @Success      200      {object}  model.WalletResponse  "wallet already existed"
// @Failure      400      {object}  model.ErrorResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /createWallet [post]
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req model.CreateWalletRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.wallets.ProvisionWallet(r.Context(), req.Email)
	if err != nil {
		writeError(w, statusOf(err, false), provisioningMessage(err, "Error creating wallet"), err)
		return
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// provisioningMessage tells the caller when the wallet record survived a failed stage.
func provisioningMessage(err error, fallback string) string {
	if model.IsStageError(err) {
		return "Wallet provisioning incomplete, it will be resumed"
	}
	return fallback
}

// TransferByEmail handles POST /transfer-chewy-coins
// @Summary      Send tokens to a user
// @Description  Transfers tokens between two custodial wallets resolved by email
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PayRequest  true  "Payment data"
// @Success      200      {object}  model.PayResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      500      {object}  model.PayResponse  "reverted on ledger"
// @Failure      500      {object}  model.ErrorResponse
// @Router       /transfer-chewy-coins [post]
func (h *Handler) TransferByEmail(w http.ResponseWriter, r *http.Request) {
	var req model.PayRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.payments.TransferByEmail(r.Context(), req)
	h.writePayResult(w, resp, err)
}

// TransferToAddress handles POST /transfer-chewy-coins-by-wallet-address
// @Summary      Send tokens to an address
// @Description  Transfers tokens from a custodial wallet to any address, creating the recipient token account when missing
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PayToAddressRequest  true  "Payment data"
// @Success      200      {object}  model.PayResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /transfer-chewy-coins-by-wallet-address [post]
func (h *Handler) TransferToAddress(w http.ResponseWriter, r *http.Request) {
	var req model.PayToAddressRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	resp, err := h.payments.TransferToAddress(r.Context(), req)
	h.writePayResult(w, resp, err)
}

// writePayResult answers 200 only for a transfer that succeeded on the ledger.
// A reverted transfer has a receipt, so its body still carries the txId.
func (h *Handler) writePayResult(w http.ResponseWriter, resp *model.PayResponse, err error) {
	if err != nil {
		writeError(w, statusOf(err, false), "Error transferring tokens", err)
		return
	}
	if !resp.Status {
		h.log.WithField("tx", resp.TxID).Warn("transfer reverted on ledger")
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBalance handles GET /wallet-balance/{email}
// @Summary      Get wallet balance
// @Description  Reads the on-chain token balance and reconciles the cached reward points
// @Tags         wallet
// @Produce      json
// @Param        email  path      string  true  "Owner email"
// @Success      200    {object}  model.BalanceResponse
// @Failure      404    {object}  model.ErrorResponse
// @Failure      500    {object}  model.ErrorResponse
// @Router       /wallet-balance/{email} [get]
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.balances.GetBalance(r.Context(), r.PathValue("email"))
	if err != nil {
		status := statusOf(err, true)
		if status == http.StatusNotFound {
			writeError(w, status, "Wallet not found", err)
			return
		}
		writeError(w, status, "Error fetching balance", err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// TransactionHistory handles GET /wallet-transactions/{email}
// @Summary      Get wallet transactions
// @Description  Lists recorded receipts of a wallet with filtering capability
// @Tags         wallet
// @Produce      json
// @Param        email      path      string   true   "Owner email"
// @Param        type       query     string   false  "Transaction type: DEBIT (received) or CREDIT (sent)"
// @Param        txId       query     string   false  "Transaction ID"
// @Param        from       query     string   false  "Start date (YYYY-MM-DD)"
// @Param        to         query     string   false  "End date (YYYY-MM-DD)"
// @Param        minAmount  query     integer  false  "Minimum amount in base units"
// @Param        maxAmount  query     integer  false  "Maximum amount in base units"
// @Param        coinType   query     string   false  "Filter by asset: gas, token or register"
// @Success      200  {object}  model.LogResponse
// @Failure      400  {object}  model.ErrorResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallet-transactions/{email} [get]
func (h *Handler) TransactionHistory(w http.ResponseWriter, r *http.Request) {
	req, err := parseLogRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}

	logResp, err := h.history.GetTransactions(r.Context(), r.PathValue("email"), req)
	if err != nil {
		writeError(w, statusOf(err, true), "Error fetching transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, logResp)
}

func parseLogRequest(r *http.Request) (*model.LogRequest, error) {
	var req model.LogRequest
	q := r.URL.Query()

	const dateLayout = "2006-01-02"
	if fromStr := q.Get("from"); fromStr != "" {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return nil, fmt.Errorf("invalid from date: use YYYY-MM-DD (e.g. 2006-01-02)")
		}
		req.From = &t
	}
	if toStr := q.Get("to"); toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return nil, fmt.Errorf("invalid to date: use YYYY-MM-DD (e.g. 2006-01-02)")
		}
		// End of day so filter is inclusive
		t = t.Add(24*time.Hour - time.Nanosecond)
		req.To = &t
	}

	if typeStr := q.Get("type"); typeStr != "" {
		txType := model.TransactionType(typeStr)
		req.Type = &txType
	}
	if txID := q.Get("txId"); txID != "" {
		req.TxID = &txID
	}
	if coinType := q.Get("coinType"); coinType != "" {
		kind := model.AssetKind(coinType)
		req.CoinType = &kind
	}

	var err error
	if req.MinAmount, err = parseAmount(q.Get("minAmount"), "minAmount"); err != nil {
		return nil, err
	}
	if req.MaxAmount, err = parseAmount(q.Get("maxAmount"), "maxAmount"); err != nil {
		return nil, err
	}
	return &req, nil
}

func parseAmount(s, name string) (*uint64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return &v, nil
}
