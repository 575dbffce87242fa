// Package docs holds the swagger document served at /swagger/. It follows the
// layout of swag init output; regenerate with swag init -g cmd/server/main.go
// after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/signup": {
            "post": {
                "description": "Writes a provisional profile and registers the identity with the provider",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register user",
                "parameters": [
                    {"description": "Signup data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SignupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.StatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/confirmUser": {
            "post": {
                "description": "Verifies the confirmation code and provisions the user's wallet",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Confirm user",
                "parameters": [
                    {"description": "Confirmation data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ConfirmRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ConfirmResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/forgot-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Start password reset",
                "parameters": [
                    {"description": "Account email", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ForgotPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.StatusResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/reset-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Complete password reset",
                "parameters": [
                    {"description": "Reset data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ResetPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.StatusResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/createWallet": {
            "post": {
                "description": "Creates the custodial wallet of a user and funds it with gas and the token grant",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Create wallet",
                "parameters": [
                    {"description": "Owner email", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.CreateWalletRequest"}}
                ],
                "responses": {
                    "200": {"description": "wallet already existed", "schema": {"$ref": "#/definitions/model.WalletResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.WalletResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/transfer-chewy-coins": {
            "post": {
                "description": "Transfers tokens between two custodial wallets resolved by email",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Send tokens to a user",
                "parameters": [
                    {"description": "Payment data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.PayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PayResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/transfer-chewy-coins-by-wallet-address": {
            "post": {
                "description": "Transfers tokens from a custodial wallet to any address, creating the recipient token account when missing",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Send tokens to an address",
                "parameters": [
                    {"description": "Payment data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.PayToAddressRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PayResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet-balance/{email}": {
            "get": {
                "description": "Reads the on-chain token balance and reconciles the cached reward points",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get wallet balance",
                "parameters": [
                    {"type": "string", "description": "Owner email", "name": "email", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.BalanceResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/wallet-transactions/{email}": {
            "get": {
                "description": "Lists recorded receipts of a wallet with filtering capability",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get wallet transactions",
                "parameters": [
                    {"type": "string", "description": "Owner email", "name": "email", "in": "path", "required": true},
                    {"type": "string", "description": "Transaction type: DEBIT (received) or CREDIT (sent)", "name": "type", "in": "query"},
                    {"type": "string", "description": "Transaction ID", "name": "txId", "in": "query"},
                    {"type": "string", "description": "Start date (YYYY-MM-DD)", "name": "from", "in": "query"},
                    {"type": "string", "description": "End date (YYYY-MM-DD)", "name": "to", "in": "query"},
                    {"type": "integer", "description": "Minimum amount in base units", "name": "minAmount", "in": "query"},
                    {"type": "integer", "description": "Maximum amount in base units", "name": "maxAmount", "in": "query"},
                    {"type": "string", "description": "Filter by asset: gas, token or register", "name": "coinType", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LogResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "model.SignupRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "username": {"type": "string"}, "password": {"type": "string"}}
        },
        "model.ConfirmRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "verificationCode": {"type": "string"}, "email": {"type": "string"}}
        },
        "model.LoginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "model.ForgotPasswordRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
        },
        "model.ResetPasswordRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "code": {"type": "string"}, "newPassword": {"type": "string"}}
        },
        "model.CreateWalletRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
        },
        "model.PayRequest": {
            "type": "object",
            "properties": {"amount": {"type": "integer"}, "senderEmail": {"type": "string"}, "recipientEmail": {"type": "string"}}
        },
        "model.PayToAddressRequest": {
            "type": "object",
            "properties": {"amount": {"type": "integer"}, "senderEmail": {"type": "string"}, "recipientAddress": {"type": "string"}}
        },
        "model.StatusResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "message": {"type": "string"}}
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "error": {"type": "string"}}
        },
        "model.WalletResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "created": {"type": "boolean"},
                "walletAddress": {"type": "string"},
                "publicKey": {"type": "string"},
                "balance": {"type": "integer"},
                "state": {"type": "string"},
                "qr": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "model.ConfirmResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "walletResponse": {"$ref": "#/definitions/model.WalletResponse"}
            }
        },
        "model.LoginResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "accessToken": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "model.PayResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "status": {"type": "boolean"}, "txId": {"type": "string"}}
        },
        "model.BalanceResponse": {
            "type": "object",
            "properties": {"walletAddress": {"type": "string"}, "balance": {"type": "integer"}, "balanceDisplay": {"type": "string"}}
        },
        "model.Transaction": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "txId": {"type": "string"},
                "from": {"type": "string"},
                "to": {"type": "string"},
                "counterpart": {"type": "string"},
                "amount": {"type": "integer"},
                "coinType": {"type": "string"},
                "timestamp": {"type": "string"},
                "status": {"type": "boolean"}
            }
        },
        "model.LogResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "address": {"type": "string"},
                "total_received_token": {"type": "integer"},
                "total_sent_token": {"type": "integer"},
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/model.Transaction"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Chewy custody API",
	Description:      "Custodial wallets, token transfers and balances for registered users.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
