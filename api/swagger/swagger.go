package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AIMS Portal API",
        "description": "Access-controlled study material portal: request access, admin approval, scoped document delivery",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Access", "description": "Public access request and status check"},
        {"name": "Authentication", "description": "Sign-up and login for approved emails"},
        {"name": "Documents", "description": "Study material listing, download and management"},
        {"name": "Admin", "description": "Request review and account management"}
    ],
    "paths": {
        "/access/requests": {
            "post": {
                "tags": ["Access"],
                "summary": "Request portal access",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAccessRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or captcha"},
                    "429": {"description": "Rate limited"}
                }
            }
        },
        "/access/status": {
            "get": {
                "tags": ["Access"],
                "summary": "Check approval status",
                "parameters": [
                    {"name": "email", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ApprovalStatus"}},
                    "400": {"description": "Missing email"},
                    "429": {"description": "Rate limited"}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register credentials for an approved email",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Email not approved or already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Access revoked"}
                }
            }
        },
        "/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List my study materials",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Access revoked or no scope assigned"}
                }
            }
        },
        "/documents/{id}/file": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a study material",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "File content"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/requests": {
            "get": {
                "tags": ["Admin"],
                "summary": "List pending access requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/requests/{email}/approve": {
            "post": {
                "tags": ["Admin"],
                "summary": "Approve a pending request",
                "parameters": [
                    {"name": "email", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Approved"},
                    "409": {"description": "Request is not pending"}
                }
            }
        },
        "/admin/requests/{email}/reject": {
            "post": {
                "tags": ["Admin"],
                "summary": "Reject a pending request",
                "parameters": [
                    {"name": "email", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Rejected"},
                    "409": {"description": "Request is not pending"}
                }
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List managed accounts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export the managed account roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "default": "csv", "description": "csv or pdf"}
                ],
                "responses": {
                    "200": {"description": "Rendered export"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/{email}": {
            "patch": {
                "tags": ["Admin"],
                "summary": "Reassign class level or subject",
                "parameters": [
                    {"name": "email", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated"},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/admin/users/{email}/revoke": {
            "post": {
                "tags": ["Admin"],
                "summary": "Revoke a student's access",
                "parameters": [
                    {"name": "email", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Revoked"},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/admin/users/{email}/restore": {
            "post": {
                "tags": ["Admin"],
                "summary": "Restore a revoked account",
                "parameters": [
                    {"name": "email", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RestoreUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "Restored"},
                    "404": {"description": "No revoked account"}
                }
            }
        },
        "/admin/documents": {
            "get": {
                "tags": ["Admin"],
                "summary": "List all study materials",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Upload a study material",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "class_level", "in": "formData", "type": "string", "required": true},
                    {"name": "subject", "in": "formData", "type": "string", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid file or scope"}
                }
            }
        },
        "/admin/documents/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a study material",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
        "SubmitAccessRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "captcha_token": {"type": "string"}
            },
            "required": ["email", "captcha_token"]
        },
        "ApprovalStatus": {
            "type": "object",
            "properties": {
                "approved": {"type": "boolean"},
                "status": {"type": "string"},
                "role": {"type": "string"},
                "class_level": {"type": "string"},
                "subject": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "SignupRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ApproveRequest": {
            "type": "object",
            "properties": {
                "class_level": {"type": "string"},
                "subject": {"type": "string"}
            },
            "required": ["class_level", "subject"]
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "class_level": {"type": "string"},
                "subject": {"type": "string"}
            }
        },
        "RestoreUserRequest": {
            "type": "object",
            "properties": {
                "class_level": {"type": "string"},
                "subject": {"type": "string"}
            },
            "required": ["class_level", "subject"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
