package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Optimization API",
        "description": "Heuristic timetable optimization and slot suggestion service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Subjects", "description": "Subject catalogue"},
        {"name": "TimeSlots", "description": "Weekly time slot grid"},
        {"name": "Constraints", "description": "Scheduling constraint rules"},
        {"name": "Preferences", "description": "User scheduling preferences"},
        {"name": "Timetables", "description": "Timetable lifecycle and entries"},
        {"name": "Optimization", "description": "Solver runs"},
        {"name": "Suggestions", "description": "Slot ranking and scoring"},
        {"name": "Feedback", "description": "Preference feedback log"}
    ],
    "paths": {
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "activeOnly", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Subjects"],
                "summary": "Update subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/time-slots": {
            "get": {
                "tags": ["TimeSlots"],
                "summary": "List time slots",
                "parameters": [
                    {"name": "dayOfWeek", "in": "query", "type": "integer"},
                    {"name": "availableOnly", "in": "query", "type": "boolean"},
                    {"name": "preferredOnly", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["TimeSlots"],
                "summary": "Create time slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimeSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/constraints": {
            "get": {
                "tags": ["Constraints"],
                "summary": "List constraints",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Constraints"],
                "summary": "Create constraint",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConstraintRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Get scheduling preferences",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Preferences"],
                "summary": "Replace scheduling preferences",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PreferencesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List timetables",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timetables"],
                "summary": "Create timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/optimize": {
            "post": {
                "tags": ["Optimization"],
                "summary": "Run the optimizer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/OptimizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run already in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/optimizations/{runId}": {
            "get": {
                "tags": ["Optimization"],
                "summary": "Poll an asynchronous run",
                "parameters": [
                    {"name": "runId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/suggestions": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Rank candidate slots for subjects",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SuggestionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/feedback": {
            "post": {
                "tags": ["Feedback"],
                "summary": "Record preference feedback",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeedbackRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateSubjectRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "priority": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"]},
                "difficulty": {"type": "string", "enum": ["EASY", "MEDIUM", "HARD", "VERY_HARD"]},
                "estimatedHours": {"type": "integer"},
                "preferredTimeSlots": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["code", "name", "priority", "difficulty"]
        },
        "CreateTimeSlotRequest": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer"},
                "startMinute": {"type": "integer"},
                "endMinute": {"type": "integer"},
                "isAvailable": {"type": "boolean"},
                "isPreferred": {"type": "boolean"},
                "weight": {"type": "number"},
                "room": {"type": "string"},
                "capacity": {"type": "integer"}
            },
            "required": ["dayOfWeek", "endMinute"]
        },
        "ConstraintRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "severity": {"type": "string", "enum": ["HARD", "SOFT", "PREFERENCE"]},
                "parameters": {"type": "object"},
                "violationPenalty": {"type": "number"},
                "subjectScope": {"type": "array", "items": {"type": "string"}},
                "timeSlotScope": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name", "type", "severity"]
        },
        "PreferencesRequest": {
            "type": "object",
            "properties": {
                "preferredStartMinute": {"type": "integer"},
                "preferredEndMinute": {"type": "integer"},
                "maxHoursPerDay": {"type": "integer"},
                "minBreakMinutes": {"type": "integer"},
                "maxConsecutiveHours": {"type": "integer"},
                "energyPeak": {"type": "string", "enum": ["MORNING", "AFTERNOON", "EVENING", "NIGHT"]},
                "allowWeekends": {"type": "boolean"},
                "allowEvenings": {"type": "boolean"},
                "balanceWorkload": {"type": "boolean"},
                "prioritizeConsistency": {"type": "boolean"}
            },
            "required": ["preferredEndMinute", "maxHoursPerDay", "maxConsecutiveHours", "energyPeak"]
        },
        "CreateTimetableRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["name"]
        },
        "OptimizeRequest": {
            "type": "object",
            "properties": {
                "timeoutSeconds": {"type": "integer"},
                "async": {"type": "boolean"}
            }
        },
        "SuggestionRequest": {
            "type": "object",
            "properties": {
                "subjectIds": {"type": "array", "items": {"type": "string"}},
                "timetableId": {"type": "string"}
            }
        },
        "FeedbackRequest": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "timeSlotId": {"type": "string"},
                "rating": {"type": "number"},
                "context": {"type": "object"}
            },
            "required": ["subjectId", "timeSlotId", "rating"]
        },
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
