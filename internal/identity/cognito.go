package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// CognitoAPI is the subset of the Cognito user pool client used here.
type CognitoAPI interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	ForgotPassword(ctx context.Context, in *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
}

// Cognito is a Provider backed by a Cognito user pool app client.
type Cognito struct {
	api          CognitoAPI
	clientID     string
	clientSecret string
	timeout      time.Duration
}

var _ Provider = (*Cognito)(nil)

func NewCognito(api CognitoAPI, clientID, clientSecret string, timeout time.Duration) *Cognito {
	return &Cognito{api: api, clientID: clientID, clientSecret: clientSecret, timeout: timeout}
}

// NewCognitoFromConfig builds the Cognito client from an AWS config.
func NewCognitoFromConfig(cfg aws.Config, clientID, clientSecret string, timeout time.Duration) *Cognito {
	return NewCognito(cip.NewFromConfig(cfg), clientID, clientSecret, timeout)
}

// secretHash is required by app clients that have a secret.
func (c *Cognito) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(c.clientSecret))
	mac.Write([]byte(username + c.clientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func (c *Cognito) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func authErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrUpstreamAuth, op, err)
}

func (c *Cognito) Register(ctx context.Context, username, password, email string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		SecretHash: c.secretHash(username),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		var exists *types.UsernameExistsException
		if errors.As(err, &exists) {
			return fmt.Errorf("%w: %w", ErrAlreadyRegistered, err)
		}
		return authErr("sign up", err)
	}
	return nil
}

func (c *Cognito) Confirm(ctx context.Context, username, code string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		SecretHash:       c.secretHash(username),
	})
	if err != nil {
		return authErr("confirm sign up", err)
	}
	return nil
}

func (c *Cognito) Authenticate(ctx context.Context, username, password string) (*model.Session, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	if h := c.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(c.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, authErr("initiate auth", err)
	}
	if out.AuthenticationResult == nil {
		return nil, fmt.Errorf("%w: authentication requires challenge %s", model.ErrUpstreamAuth, out.ChallengeName)
	}

	return &model.Session{
		AccessToken: aws.ToString(out.AuthenticationResult.AccessToken),
		IDToken:     aws.ToString(out.AuthenticationResult.IdToken),
	}, nil
}

func (c *Cognito) InitiateReset(ctx context.Context, username string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(username),
		SecretHash: c.secretHash(username),
	})
	if err != nil {
		return authErr("forgot password", err)
	}
	return nil
}

func (c *Cognito) CompleteReset(ctx context.Context, username, code, newPassword string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
		SecretHash:       c.secretHash(username),
	})
	if err != nil {
		return authErr("confirm forgot password", err)
	}
	return nil
}
