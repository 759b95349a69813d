// Package auth holds the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g internal/auth/http/router.go -o api/auth --outputTypes go
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/livez": {
			"get": {
				"description": "Liveness probe returning status, uptime and version",
				"produces": [
					"application/json"
				],
				"tags": [
					"Health"
				],
				"summary": "Health Check Endpoint",
				"responses": {
					"200": {
						"description": "status, uptime, version",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					}
				}
			}
		},
		"/readyz": {
			"get": {
				"description": "Readiness probe reporting the database and the revocation backend",
				"produces": [
					"application/json"
				],
				"tags": [
					"Health"
				],
				"summary": "Readiness Check Endpoint",
				"responses": {
					"200": {
						"description": "status, uptime, version, checks",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					},
					"503": {
						"description": "a backend is unreachable",
						"schema": {
							"$ref": "#/definitions/authsdk.HealthResponse"
						}
					}
				}
			}
		},
		"/v1/auth/register": {
			"post": {
				"description": "Creates a student account. Does not log in.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Register",
				"parameters": [
					{
						"description": "Account details",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/http.registerRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/authsdk.User"
						}
					},
					"400": {
						"description": "invalid_request",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"409": {
						"description": "conflict - email already registered",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"429": {
						"description": "rate limited",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		},
		"/v1/auth/login": {
			"post": {
				"description": "Exchanges email and password for an access and refresh token pair.\nThe refresh token is also set as an HttpOnly cookie scoped to /v1/auth.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Login",
				"parameters": [
					{
						"description": "Credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.LoginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.TokenPair"
						},
						"headers": {
							"Cache-Control": {
								"type": "string",
								"description": "no-store"
							}
						}
					},
					"400": {
						"description": "invalid_request",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"401": {
						"description": "invalid_credentials",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"429": {
						"description": "rate limited",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		},
		"/v1/auth/refresh": {
			"post": {
				"description": "Rotates a refresh token. Presenting an already rotated token revokes the whole login.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Refresh",
				"parameters": [
					{
						"description": "Refresh token, optional when the cookie is sent",
						"name": "body",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/authsdk.RefreshRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.TokenPair"
						},
						"headers": {
							"Cache-Control": {
								"type": "string",
								"description": "no-store"
							}
						}
					},
					"400": {
						"description": "invalid_request",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"401": {
						"description": "invalid_grant",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"503": {
						"description": "temporarily_unavailable",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		},
		"/v1/auth/logout": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Logout",
				"parameters": [
					{
						"description": "Refresh token to revoke along with the access token",
						"name": "body",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/authsdk.RefreshRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"401": {
						"description": "authentication failed",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"503": {
						"description": "temporarily_unavailable",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		},
		"/v1/auth/me": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Current user",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.User"
						}
					},
					"401": {
						"description": "authentication failed",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		},
		"/v1/auth/sessions": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Lists the caller's unrevoked, unexpired logins, newest first.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Active sessions",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.SessionList"
						}
					},
					"401": {
						"description": "authentication failed",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		},
		"/v1/admin/users": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Admin"
				],
				"summary": "List users",
				"parameters": [
					{
						"type": "integer",
						"description": "Page size (default 50, max 200)",
						"name": "limit",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Rows to skip",
						"name": "offset",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.UserList"
						}
					},
					"400": {
						"description": "invalid_request",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"401": {
						"description": "authentication failed",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"403": {
						"description": "insufficient_role - requires admin",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		},
		"/v1/admin/users/{id}/role": {
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Admin"
				],
				"summary": "Set role",
				"parameters": [
					{
						"type": "string",
						"description": "User ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "student, instructor or admin",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/authsdk.SetRoleRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/authsdk.User"
						}
					},
					"400": {
						"description": "invalid_request",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"401": {
						"description": "authentication failed",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"403": {
						"description": "insufficient_role - requires admin",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"404": {
						"description": "not_found",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		},
		"/v1/instructor/ping": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Instructor"
				],
				"summary": "Instructor ping",
				"responses": {
					"200": {
						"description": "status, sub, role",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"401": {
						"description": "authentication failed",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					},
					"403": {
						"description": "insufficient_role - requires instructor",
						"schema": {
							"$ref": "#/definitions/authsdk.APIError"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"authsdk.APIError": {
			"type": "object",
			"properties": {
				"error": {
					"description": "Code is the machine readable reason, for example \"token_expired\",\n\"insufficient_role\" or \"invalid_grant\".",
					"type": "string"
				},
				"error_description": {
					"type": "string"
				},
				"fields": {
					"type": "object",
					"additionalProperties": {
						"type": "string"
					}
				}
			}
		},
		"authsdk.HealthChecks": {
			"type": "object",
			"properties": {
				"database": {
					"type": "string"
				},
				"revocations": {
					"type": "string"
				}
			}
		},
		"authsdk.HealthResponse": {
			"type": "object",
			"properties": {
				"checks": {
					"$ref": "#/definitions/authsdk.HealthChecks"
				},
				"status": {
					"type": "string"
				},
				"uptime": {
					"type": "string"
				},
				"version": {
					"type": "string"
				}
			}
		},
		"authsdk.LoginRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"authsdk.RefreshRequest": {
			"type": "object",
			"properties": {
				"refresh_token": {
					"type": "string"
				}
			}
		},
		"authsdk.SessionInfo": {
			"type": "object",
			"properties": {
				"created_at": {
					"type": "string",
					"format": "date-time"
				},
				"expires_at": {
					"type": "string",
					"format": "date-time"
				},
				"id": {
					"type": "string"
				}
			}
		},
		"authsdk.SessionList": {
			"type": "object",
			"properties": {
				"sessions": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/authsdk.SessionInfo"
					}
				}
			}
		},
		"authsdk.SetRoleRequest": {
			"type": "object",
			"properties": {
				"role": {
					"$ref": "#/definitions/jwtx.Role"
				}
			}
		},
		"authsdk.TokenPair": {
			"type": "object",
			"properties": {
				"access_expires_at": {
					"type": "string",
					"format": "date-time"
				},
				"access_token": {
					"type": "string"
				},
				"refresh_expires_at": {
					"type": "string",
					"format": "date-time"
				},
				"refresh_token": {
					"type": "string"
				},
				"token_type": {
					"type": "string"
				}
			}
		},
		"authsdk.User": {
			"type": "object",
			"properties": {
				"created_at": {
					"type": "string",
					"format": "date-time"
				},
				"display_name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"role": {
					"$ref": "#/definitions/jwtx.Role"
				}
			}
		},
		"authsdk.UserList": {
			"type": "object",
			"properties": {
				"users": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/authsdk.User"
					}
				}
			}
		},
		"http.registerRequest": {
			"type": "object",
			"required": [
				"email",
				"password"
			],
			"properties": {
				"display_name": {
					"type": "string",
					"maxLength": 100
				},
				"email": {
					"type": "string",
					"maxLength": 254
				},
				"password": {
					"type": "string",
					"maxLength": 128,
					"minLength": 8
				}
			}
		},
		"jwtx.Role": {
			"type": "string",
			"enum": [
				"student",
				"instructor",
				"admin"
			]
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT access token. Format: \"Bearer {token}\".",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "LMS Authentication Service API",
	Description:      "Issues and verifies HS256 JWT access and refresh tokens for the LMS.\n\nAccess tokens go in the Authorization header only. Refresh tokens rotate on every use.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
