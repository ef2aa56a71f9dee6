package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Finance API",
        "description": "Fee catalog, student fee ledger and reconciliation engine",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Fee Categories", "description": "Reusable kinds of charges"},
        {"name": "Fee Structures", "description": "Period-scoped charge bundles"},
        {"name": "Assignments", "description": "Student to structure bindings"},
        {"name": "Balances", "description": "Per-item student fee ledger"},
        {"name": "Additional Fees", "description": "Ad-hoc targeted charges"},
        {"name": "Administration", "description": "Reconciliation and migration"}
    ],
    "paths": {
        "/fee-categories": {
            "get": {
                "tags": ["Fee Categories"],
                "summary": "List fee categories",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Fee Categories"],
                "summary": "Create fee category",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name already in use"}
                }
            }
        },
        "/fee-categories/{id}": {
            "get": {
                "tags": ["Fee Categories"],
                "summary": "Get fee category",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Fee Categories"],
                "summary": "Update fee category",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Fee Categories"],
                "summary": "Delete fee category",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/fee-structures": {
            "get": {
                "tags": ["Fee Structures"],
                "summary": "List fee structures",
                "parameters": [
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "include_inactive", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Fee Structures"],
                "summary": "Create fee structure with items",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Period and name already in use"}
                }
            }
        },
        "/fee-structures/{id}": {
            "get": {
                "tags": ["Fee Structures"],
                "summary": "Get fee structure with items",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Fee Structures"],
                "summary": "Update fee structure metadata",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/fee-structures/{id}/deactivate": {
            "post": {
                "tags": ["Fee Structures"],
                "summary": "Deactivate fee structure",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deactivated"}
                }
            }
        },
        "/fee-structures/{id}/reactivate": {
            "post": {
                "tags": ["Fee Structures"],
                "summary": "Reactivate fee structure",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Reactivated"}
                }
            }
        },
        "/fee-structures/{id}/assign-all": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign structure to every active student",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "assigned_by", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign structure to one student",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already assigned"}
                }
            }
        },
        "/assignments/bulk": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign structure to a list of students",
                "responses": {
                    "200": {"description": "Batch outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}": {
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove assignment",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/balances": {
            "get": {
                "tags": ["Balances"],
                "summary": "List ledger rows",
                "parameters": [
                    {"name": "student_number", "in": "query", "type": "string"},
                    {"name": "fee_structure_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/balances/{id}/payments": {
            "post": {
                "tags": ["Balances"],
                "summary": "Apply payment to one ledger row",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/students/{studentNumber}/balances": {
            "get": {
                "tags": ["Balances"],
                "summary": "List one student's ledger",
                "parameters": [{"name": "studentNumber", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentNumber}/balances/summary": {
            "get": {
                "tags": ["Balances"],
                "summary": "Aggregate one student's ledger",
                "parameters": [{"name": "studentNumber", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentNumber}/balances/generate/{structureId}": {
            "post": {
                "tags": ["Balances"],
                "summary": "Generate ledger rows for a structure",
                "parameters": [
                    {"name": "studentNumber", "in": "path", "type": "string", "required": true},
                    {"name": "structureId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentNumber}/balances/recalculate": {
            "post": {
                "tags": ["Balances"],
                "summary": "Recalculate ledger from stored amounts",
                "parameters": [{"name": "studentNumber", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentNumber}/statement": {
            "get": {
                "tags": ["Balances"],
                "summary": "Download fee statement",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "studentNumber", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Statement file"}
                }
            }
        },
        "/students/{studentNumber}/statement/link": {
            "get": {
                "tags": ["Balances"],
                "summary": "Archive a statement and return a signed download link",
                "parameters": [
                    {"name": "studentNumber", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/statements/{token}": {
            "get": {
                "tags": ["Balances"],
                "summary": "Download an archived statement by signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Statement file"},
                    "400": {"description": "Invalid or expired token"},
                    "404": {"description": "Archived statement not found"}
                }
            }
        },
        "/students/{studentNumber}/additional-fees": {
            "get": {
                "tags": ["Additional Fees"],
                "summary": "List a student's applied additional fees",
                "parameters": [{"name": "studentNumber", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/additional-fees": {
            "get": {
                "tags": ["Additional Fees"],
                "summary": "List additional fee definitions",
                "parameters": [{"name": "active_only", "in": "query", "type": "boolean"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Additional Fees"],
                "summary": "Create additional fee definition",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/additional-fees/{id}": {
            "get": {
                "tags": ["Additional Fees"],
                "summary": "Get additional fee",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Additional Fees"],
                "summary": "Update additional fee",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Additional Fees"],
                "summary": "Delete additional fee",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/additional-fees/{id}/apply": {
            "post": {
                "tags": ["Additional Fees"],
                "summary": "Apply fee to its target students",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Fan-out outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/reconciliation/run": {
            "post": {
                "tags": ["Administration"],
                "summary": "Run a full reconciliation sweep",
                "responses": {
                    "200": {"description": "Sweep report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/reconciliation/statuses": {
            "post": {
                "tags": ["Administration"],
                "summary": "Recompute ledger statuses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/migration/legacy-balances": {
            "post": {
                "tags": ["Administration"],
                "summary": "Migrate legacy balances into the ledger",
                "responses": {
                    "200": {"description": "Migration report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
