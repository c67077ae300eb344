// Package docs registers the OpenAPI description served under /swagger.
// Regenerate it with `swag init -g cmd/server/main.go` after changing
// handler annotations.
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
        "/v1/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "parameters": [
                    {"description": "Signup form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.signupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.signupResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/auth/verify-email": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Confirm email",
                "parameters": [
                    {"description": "Verification token", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.verifyEmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/verify/watch": {
            "get": {
                "tags": ["auth"],
                "summary": "Watch email verification",
                "parameters": [
                    {"type": "string", "description": "Account id", "name": "uid", "in": "query", "required": true},
                    {"type": "string", "description": "Bearer token the page already holds", "name": "session", "in": "query"},
                    {"type": "string", "description": "Token from the verification link fragment", "name": "access_token", "in": "query"}
                ],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        },
        "/v1/onboarding": {
            "get": {
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Current onboarding step",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.flowResponse"}}}
            }
        },
        "/v1/onboarding/advance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Advance the onboarding flow",
                "parameters": [
                    {"description": "Current step and its fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.advanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.flowResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/onboarding/documents": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Attach a document",
                "parameters": [
                    {"type": "string", "description": "id_front, id_back or avatar", "name": "kind", "in": "formData", "required": true},
                    {"type": "file", "description": "Image file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.flowResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/onboarding/submit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Submit the onboarding",
                "parameters": [
                    {"type": "string", "description": "Short bio", "name": "bio", "in": "formData"},
                    {"type": "file", "description": "Profile picture", "name": "avatar", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.flowResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Profile status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dashboardResponse"}}}
            }
        },
        "/v1/admin/reviews": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Profiles awaiting review",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.reviewListResponse"}}}
            }
        },
        "/v1/admin/reviews/{uid}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Profile with signed document links",
                "parameters": [{"type": "string", "description": "Account id", "name": "uid", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.reviewDetailResponse"}}}
            }
        },
        "/v1/admin/reviews/{uid}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Approve a profile",
                "parameters": [{"type": "string", "description": "Account id", "name": "uid", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserProfile"}}}
            }
        },
        "/v1/admin/reviews/{uid}/reject": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Reject a profile",
                "parameters": [{"type": "string", "description": "Account id", "name": "uid", "in": "path", "required": true}],
                "responses": {"501": {"description": "Not Implemented", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        }
    },
    "definitions": {
        "domain.OnboardingForm": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string"}, "middleName": {"type": "string"}, "lastName": {"type": "string"},
                "dateOfBirth": {"type": "string"}, "country": {"type": "string"}, "nationalId": {"type": "string"},
                "dialCode": {"type": "string"}, "phoneNumber": {"type": "string"}, "bio": {"type": "string"}
            }
        },
        "domain.UserProfile": {
            "type": "object",
            "properties": {
                "uid": {"type": "string"}, "username": {"type": "string"}, "email": {"type": "string"},
                "status": {"type": "string"}, "role": {"type": "string"},
                "firstName": {"type": "string"}, "middleName": {"type": "string"}, "lastName": {"type": "string"},
                "dateOfBirth": {"type": "string"}, "country": {"type": "string"}, "nationalId": {"type": "string"},
                "phoneNumber": {"type": "string"}, "dialCode": {"type": "string"}, "bio": {"type": "string"},
                "photoURL": {"type": "string"}, "createdAt": {"type": "string"},
                "onboardingCompletedAt": {"type": "string"}, "approvedAt": {"type": "string"}
            }
        },
        "handler.signupRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.signupResponse": {
            "type": "object",
            "properties": {"uid": {"type": "string"}, "username": {"type": "string"}, "email": {"type": "string"}, "next": {"type": "string"}}
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.verifyEmailRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}, "uid": {"type": "string"}, "email": {"type": "string"}, "role": {"type": "string"},
                "email_verified": {"type": "boolean"}, "expires_at": {"type": "string"}, "next": {"type": "string"}
            }
        },
        "handler.advanceRequest": {
            "type": "object",
            "properties": {"from": {"type": "integer", "maximum": 4, "minimum": 0}, "form": {"$ref": "#/definitions/domain.OnboardingForm"}}
        },
        "handler.flowResponse": {
            "type": "object",
            "properties": {
                "authenticated": {"type": "boolean"}, "displayName": {"type": "string"},
                "step": {"type": "integer"}, "stepName": {"type": "string"},
                "form": {"$ref": "#/definitions/domain.OnboardingForm"},
                "staged": {"type": "array", "items": {"type": "string"}},
                "reviewSecondsRemaining": {"type": "integer"}, "next": {"type": "string"}
            }
        },
        "handler.dashboardResponse": {
            "type": "object",
            "properties": {"profile": {"$ref": "#/definitions/domain.UserProfile"}, "next": {"type": "string"}}
        },
        "handler.reviewListResponse": {
            "type": "object",
            "properties": {"profiles": {"type": "array", "items": {"$ref": "#/definitions/domain.UserProfile"}}, "count": {"type": "integer"}}
        },
        "handler.reviewDetailResponse": {
            "type": "object",
            "properties": {"profile": {"$ref": "#/definitions/domain.UserProfile"}, "idFrontUrl": {"type": "string"}, "idBackUrl": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Creator Onboarding API",
	Description:      "Signup, email verification, onboarding and admin review of creator profiles.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
