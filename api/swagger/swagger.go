package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Rota API",
        "description": "Weekly staff shift scheduling: drafts, publishing, conflicts and reconciliation",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Weeks", "description": "Week roster views and week-level operations"},
        {"name": "Shifts", "description": "Shift creation and editing"},
        {"name": "Employees", "description": "Employee directory"},
        {"name": "Time Off", "description": "Time-off records"},
        {"name": "Availability", "description": "Recurring and dated availability"},
        {"name": "Reconcile", "description": "Draft reconciliation"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/weeks/{start}": {
            "get": {
                "tags": ["Weeks"],
                "summary": "Week roster view",
                "parameters": [
                    {"name": "start", "in": "path", "required": true, "type": "string", "description": "Monday in YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Not a Monday", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks/{start}/publish": {
            "post": {
                "tags": ["Weeks"],
                "summary": "Publish every draft shift in the week",
                "parameters": [
                    {"name": "start", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicts found, nothing published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks/{start}/drafts": {
            "delete": {
                "tags": ["Weeks"],
                "summary": "Delete all draft shifts in the week",
                "parameters": [
                    {"name": "start", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks/{start}/repeat-last-week": {
            "post": {
                "tags": ["Weeks"],
                "summary": "Copy the prior week's published shifts into this week as drafts",
                "parameters": [
                    {"name": "start", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/weeks/{start}/export": {
            "get": {
                "tags": ["Weeks"],
                "summary": "Export the week roster",
                "parameters": [
                    {"name": "start", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/shifts": {
            "post": {
                "tags": ["Shifts"],
                "summary": "Create a draft shift",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateShiftRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Day blocked by all-day time off", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/shifts/{id}": {
            "get": {
                "tags": ["Shifts"],
                "summary": "Get shift",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Shifts"],
                "summary": "Update shift (published shifts drop back to draft)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateShiftRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Shifts"],
                "summary": "Delete shift",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/shifts/{id}/duplicate": {
            "post": {
                "tags": ["Shifts"],
                "summary": "Duplicate a shift as a new draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/shifts/{id}/move": {
            "post": {
                "tags": ["Shifts"],
                "summary": "Move a shift to another employee and/or day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveShiftRequest"}}
                ],
                "responses": {
                    "200": {"description": "Move result, moved may be false", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees": {
            "get": {
                "tags": ["Employees"],
                "summary": "List employees",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{id}": {
            "get": {
                "tags": ["Employees"],
                "summary": "Get employee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/time-offs": {
            "get": {
                "tags": ["Time Off"],
                "summary": "List time off in a window",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Time Off"],
                "summary": "Create time off",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimeOffRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/time-offs/{id}": {
            "delete": {
                "tags": ["Time Off"],
                "summary": "Delete time off",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List availability in a window",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Create availability",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAvailabilityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/{id}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete availability",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/reconcile": {
            "post": {
                "tags": ["Reconcile"],
                "summary": "Run a reconciliation pass now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateShiftRequest": {
            "type": "object",
            "required": ["start_at", "end_at", "location"],
            "properties": {
                "employee_id": {"type": "string"},
                "start_at": {"type": "string", "format": "date-time"},
                "end_at": {"type": "string", "format": "date-time"},
                "location": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "UpdateShiftRequest": {
            "type": "object",
            "required": ["start_at", "end_at", "location"],
            "properties": {
                "employee_id": {"type": "string"},
                "start_at": {"type": "string", "format": "date-time"},
                "end_at": {"type": "string", "format": "date-time"},
                "location": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "MoveShiftRequest": {
            "type": "object",
            "required": ["target_date"],
            "properties": {
                "target_employee_id": {"type": "string"},
                "target_date": {"type": "string", "format": "date"}
            }
        },
        "CreateTimeOffRequest": {
            "type": "object",
            "required": ["employee_id", "start_at", "end_at"],
            "properties": {
                "employee_id": {"type": "string"},
                "start_at": {"type": "string", "format": "date-time"},
                "end_at": {"type": "string", "format": "date-time"},
                "reason": {"type": "string"}
            }
        },
        "CreateAvailabilityRequest": {
            "type": "object",
            "required": ["employee_id", "start_minute", "end_minute"],
            "properties": {
                "employee_id": {"type": "string"},
                "weekday": {"type": "integer", "description": "0=Sunday .. 6=Saturday, mutually exclusive with date"},
                "date": {"type": "string", "format": "date"},
                "start_minute": {"type": "integer"},
                "end_minute": {"type": "integer"}
            }
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
