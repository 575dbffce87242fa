package identity

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/AlexZinkM/chewy-custody/internal/logging"
	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	registered  map[string]string // username -> email
	confirmed   map[string]bool
	registerErr error
	code        string
	idToken     string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{registered: map[string]string{}, confirmed: map[string]bool{}, code: "000000"}
}

func (f *fakeProvider) Register(_ context.Context, username, _, email string) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	if _, ok := f.registered[username]; ok {
		return ErrAlreadyRegistered
	}
	f.registered[username] = email
	return nil
}

func (f *fakeProvider) Confirm(_ context.Context, username, code string) error {
	if code != f.code {
		return errors.New("identity provider error: CodeMismatchException")
	}
	f.confirmed[username] = true
	return nil
}

func (f *fakeProvider) Authenticate(_ context.Context, username, password string) (*model.Session, error) {
	if password != "pw1" {
		return nil, errors.New("identity provider error: NotAuthorizedException")
	}
	return &model.Session{AccessToken: "access-" + username, IDToken: f.idToken}, nil
}

func (f *fakeProvider) InitiateReset(context.Context, string) error { return nil }

func (f *fakeProvider) CompleteReset(_ context.Context, _, code, _ string) error {
	if code != f.code {
		return errors.New("identity provider error: CodeMismatchException")
	}
	return nil
}

type fakeWallets struct {
	calls []string
	err   error
}

func (f *fakeWallets) ProvisionWallet(_ context.Context, email string) (*model.WalletResponse, error) {
	f.calls = append(f.calls, email)
	if f.err != nil {
		return nil, f.err
	}
	return &model.WalletResponse{Created: true, WalletAddress: "Addr", State: model.StateTokenFunded}, nil
}

func newTestGateway() (*Gateway, *fakeProvider, *fakeWallets, *memory.Store) {
	p := newFakeProvider()
	w := &fakeWallets{}
	st := memory.New()
	return NewGateway(p, st, w, "Chewy", logging.Discard()), p, w, st
}

func TestSignup(t *testing.T) {
	g, p, _, st := newTestGateway()
	ctx := context.Background()

	resp, err := g.Signup(ctx, model.SignupRequest{Email: "a@x.com", Username: "Alice", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "Success", resp.Status)
	assert.Equal(t, "a@x.com", p.registered["Alice"])

	u, err := st.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.IdentityRegistered, u.Status)
	assert.Equal(t, "alice", u.UserName)
	assert.Regexp(t, regexp.MustCompile(`^Chewy_alice_\d{1,3}$`), u.ReferralID)

	_, err = g.Signup(ctx, model.SignupRequest{Email: "a@x.com", Username: "alice2", Password: "pw1"})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = g.Signup(ctx, model.SignupRequest{Email: "b@y.com", Username: "bob"})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.ErrorContains(t, err, "password")
}

func TestSignup_RetriesProvisionalProfile(t *testing.T) {
	g, p, _, st := newTestGateway()
	ctx := context.Background()
	req := model.SignupRequest{Email: "a@x.com", Username: "alice", Password: "pw1"}

	p.registerErr = errors.New("identity provider error: network")
	_, err := g.Signup(ctx, req)
	require.Error(t, err)
	u, err := st.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.IdentityProvisional, u.Status)

	p.registerErr = nil
	_, err = g.Signup(ctx, req)
	require.NoError(t, err, "provisional profile is retried, not rejected")

	// registration landed upstream but the status write was lost
	require.NoError(t, st.UpdateUserStatus(ctx, "a@x.com", model.IdentityProvisional))
	_, err = g.Signup(ctx, req)
	require.NoError(t, err, "upstream 'already exists' counts as registered on retry")

	u, err = st.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.IdentityRegistered, u.Status)
}

func TestConfirm(t *testing.T) {
	g, _, w, st := newTestGateway()
	ctx := context.Background()
	_, err := g.Signup(ctx, model.SignupRequest{Email: "a@x.com", Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	_, err = g.Confirm(ctx, model.ConfirmRequest{Username: "alice", VerificationCode: "123456", Email: "a@x.com"})
	require.Error(t, err)
	assert.Empty(t, w.calls, "no wallet without confirmation")

	resp, err := g.Confirm(ctx, model.ConfirmRequest{Username: "alice", VerificationCode: "000000", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Success", resp.Status)
	require.NotNil(t, resp.WalletResponse)
	assert.Equal(t, "Addr", resp.WalletResponse.WalletAddress)
	assert.Equal(t, []string{"a@x.com"}, w.calls)

	u, err := st.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.IdentityConfirmed, u.Status)

	w.err = &model.StageError{Email: "a@x.com", Stage: model.StateGasFunded, Err: model.ErrUpstreamLedger}
	_, err = g.Confirm(ctx, model.ConfirmRequest{Username: "alice", VerificationCode: "000000", Email: "a@x.com"})
	assert.True(t, model.IsStageError(err))
}

func TestLogin(t *testing.T) {
	g, p, _, _ := newTestGateway()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"cognito:username": "alice",
		"email":            "a@x.com",
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	p.idToken = tok

	resp, err := g.Login(context.Background(), model.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "access-alice", resp.AccessToken)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "a@x.com", resp.Email)

	_, err = g.Login(context.Background(), model.LoginRequest{Username: "alice", Password: "bad"})
	assert.ErrorContains(t, err, "NotAuthorizedException")

	p.idToken = "garbage"
	_, err = g.Login(context.Background(), model.LoginRequest{Username: "alice", Password: "pw1"})
	assert.ErrorIs(t, err, model.ErrUpstreamAuth)
}

func TestPasswordReset(t *testing.T) {
	g, _, _, _ := newTestGateway()
	ctx := context.Background()

	resp, err := g.ForgotPassword(ctx, model.ForgotPasswordRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Password reset initiated, check your email", resp.Message)

	_, err = g.ForgotPassword(ctx, model.ForgotPasswordRequest{})
	assert.ErrorIs(t, err, model.ErrValidation)

	resp, err = g.ResetPassword(ctx, model.ResetPasswordRequest{Email: "a@x.com", Code: "000000", NewPassword: "pw2"})
	require.NoError(t, err)
	assert.Equal(t, "Password reset successfully", resp.Message)

	_, err = g.ResetPassword(ctx, model.ResetPasswordRequest{Email: "a@x.com", Code: "999999", NewPassword: "pw2"})
	assert.Error(t, err)
}
