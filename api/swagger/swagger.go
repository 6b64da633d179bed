package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Match API",
        "description": "Teacher and student listing directory with district filter, newest-first sort and photo uploads",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Listings", "description": "Teacher and student listings"},
        {"name": "Locations", "description": "Province and district lookup"},
        {"name": "Media", "description": "Locally stored listing photos"},
        {"name": "Metrics", "description": "Process counters"}
    ],
    "paths": {
        "/teachers": {
            "get": {
                "tags": ["Listings"],
                "summary": "Browse teachers",
                "parameters": [
                    {"name": "district", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["newest"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Listings"],
                "summary": "Create teacher listing",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "multipart/form-data"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTeacherRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Sign in required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Photo upload failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Listings"],
                "summary": "Browse students",
                "parameters": [
                    {"name": "district", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["newest"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Listings"],
                "summary": "Create student listing",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "multipart/form-data"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Sign in required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Photo upload failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/refresh": {
            "post": {
                "tags": ["Listings"],
                "summary": "Refresh teachers bypassing the snapshot cache",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/refresh": {
            "post": {
                "tags": ["Listings"],
                "summary": "Refresh students bypassing the snapshot cache",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/export": {
            "get": {
                "tags": ["Listings"],
                "summary": "Export teacher directory",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "district", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["newest"]}
                ],
                "responses": {
                    "200": {"description": "Attachment"}
                }
            }
        },
        "/students/export": {
            "get": {
                "tags": ["Listings"],
                "summary": "Export student directory",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "district", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["newest"]}
                ],
                "responses": {
                    "200": {"description": "Attachment"}
                }
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": ["Listings"],
                "summary": "Teacher detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Listings"],
                "summary": "Student detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/districts/{district}/teachers": {
            "get": {
                "tags": ["Listings"],
                "summary": "Teachers of one district",
                "parameters": [
                    {"name": "district", "in": "path", "required": true, "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["newest"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/districts/{district}/students": {
            "get": {
                "tags": ["Listings"],
                "summary": "Students of one district",
                "parameters": [
                    {"name": "district", "in": "path", "required": true, "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["newest"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/teachers": {
            "get": {
                "tags": ["Listings"],
                "summary": "Teacher listings of the signed-in user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Sign in required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/students": {
            "get": {
                "tags": ["Listings"],
                "summary": "Student listings of the signed-in user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Sign in required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/locations": {
            "get": {
                "tags": ["Locations"],
                "summary": "Provinces with districts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/locations/{province}/districts": {
            "get": {
                "tags": ["Locations"],
                "summary": "Districts of a province",
                "parameters": [
                    {"name": "province", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown province", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Process counters snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Listing": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "ownerId": {"type": "string"},
                "role": {"type": "string", "enum": ["teacher", "student"]},
                "name": {"type": "string"},
                "subject": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "specificLocation": {"type": "string"},
                "province": {"type": "string"},
                "district": {"type": "string"},
                "photoUrl": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "teacher": {"$ref": "#/definitions/TeacherDetails"},
                "student": {"$ref": "#/definitions/StudentDetails"}
            }
        },
        "TeacherDetails": {
            "type": "object",
            "properties": {
                "experience": {"type": "integer"}
            }
        },
        "StudentDetails": {
            "type": "object",
            "properties": {
                "grade": {"type": "string"},
                "salary": {"type": "number"},
                "teachingHours": {"type": "number"}
            }
        },
        "CreateTeacherRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "subject": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "experience": {"type": "string"},
                "province": {"type": "string"},
                "district": {"type": "string"},
                "specificLocation": {"type": "string"},
                "photoUrl": {"type": "string"}
            },
            "required": ["name", "subject", "phoneNumber", "experience", "province", "district"]
        },
        "CreateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "grade": {"type": "string"},
                "subject": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "province": {"type": "string"},
                "district": {"type": "string"},
                "specificLocation": {"type": "string"},
                "salary": {"type": "string"},
                "teachingHours": {"type": "string"},
                "photoUrl": {"type": "string"}
            },
            "required": ["name", "grade", "subject", "phoneNumber", "province", "district"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
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
