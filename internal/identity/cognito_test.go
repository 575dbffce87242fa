package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCognito struct {
	signUp      *cip.SignUpInput
	auth        *cip.InitiateAuthInput
	hadDeadline bool
	err         error
	authOut     *cip.InitiateAuthOutput
}

func (s *stubCognito) SignUp(ctx context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	s.signUp = in
	_, s.hadDeadline = ctx.Deadline()
	return &cip.SignUpOutput{}, s.err
}

func (s *stubCognito) ConfirmSignUp(context.Context, *cip.ConfirmSignUpInput, ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error) {
	return &cip.ConfirmSignUpOutput{}, s.err
}

func (s *stubCognito) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	s.auth = in
	if s.err != nil {
		return nil, s.err
	}
	return s.authOut, nil
}

func (s *stubCognito) ForgotPassword(context.Context, *cip.ForgotPasswordInput, ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error) {
	return &cip.ForgotPasswordOutput{}, s.err
}

func (s *stubCognito) ConfirmForgotPassword(context.Context, *cip.ConfirmForgotPasswordInput, ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error) {
	return &cip.ConfirmForgotPasswordOutput{}, s.err
}

func expectedHash(secret, username, clientID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestCognito_RegisterWithSecretHash(t *testing.T) {
	api := &stubCognito{}
	c := NewCognito(api, "client", "secret", 5*time.Second)

	require.NoError(t, c.Register(context.Background(), "alice", "pw1", "a@x.com"))
	require.NotNil(t, api.signUp)
	assert.True(t, api.hadDeadline, "calls are bounded by the identity timeout")
	assert.Equal(t, "alice", aws.ToString(api.signUp.Username))
	assert.Equal(t, expectedHash("secret", "alice", "client"), aws.ToString(api.signUp.SecretHash))
	require.Len(t, api.signUp.UserAttributes, 1)
	assert.Equal(t, "a@x.com", aws.ToString(api.signUp.UserAttributes[0].Value))
}

func TestCognito_RegisterErrors(t *testing.T) {
	api := &stubCognito{err: &types.UsernameExistsException{Message: aws.String("exists")}}
	c := NewCognito(api, "client", "", time.Second)

	err := c.Register(context.Background(), "alice", "pw1", "a@x.com")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Nil(t, api.signUp.SecretHash, "no hash without a client secret")

	api.err = &types.InvalidPasswordException{Message: aws.String("too short")}
	err = c.Register(context.Background(), "alice", "pw", "a@x.com")
	assert.ErrorIs(t, err, model.ErrUpstreamAuth)
}

func TestCognito_Authenticate(t *testing.T) {
	api := &stubCognito{authOut: &cip.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			AccessToken: aws.String("access"),
			IdToken:     aws.String("id"),
		},
	}}
	c := NewCognito(api, "client", "secret", time.Second)

	s, err := c.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "access", s.AccessToken)
	assert.Equal(t, "id", s.IDToken)
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, api.auth.AuthFlow)
	assert.Equal(t, expectedHash("secret", "alice", "client"), api.auth.AuthParameters["SECRET_HASH"])

	api.authOut = &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}
	_, err = c.Authenticate(context.Background(), "alice", "pw1")
	assert.ErrorIs(t, err, model.ErrUpstreamAuth)
}
