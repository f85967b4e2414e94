// Package docs registers the OpenAPI description served at /swagger/*. It is
// maintained by hand alongside the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "kylinpoet",
            "url": "https://github.com/kylinpoet/song-for-guoxi"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "健康检查",
                "responses": {"200": {"description": "服务健康", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/admin": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Admin login",
                "parameters": [{"type": "string", "description": "admin password", "name": "password", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.LoginResponse"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/admin/save": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Save collection",
                "parameters": [{"description": "collection snapshot", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/admin.SaveRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/admin/upload-sheet": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Upload sheet or audio",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/admin/upload-audio": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Upload sheet or audio",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/admin/save-password": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Change admin password",
                "parameters": [{"type": "string", "description": "new password", "name": "newPassword", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/admin/collections": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List collections",
                "parameters": [
                    {"type": "integer", "description": "page (1-based)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "perPage", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/store.Page"}}}
            }
        },
        "/admin/edit/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Get collection for editing",
                "parameters": [{"type": "integer", "description": "collection id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/admin/delete/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Delete collection",
                "parameters": [{"type": "integer", "description": "collection id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/admin/delete-multiple": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Delete collections",
                "parameters": [{"type": "string", "description": "JSON array of ids, e.g. [1,2]", "name": "ids", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/admin/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Search collections",
                "parameters": [
                    {"type": "string", "description": "query", "name": "q", "in": "query", "required": true},
                    {"type": "integer", "description": "page (1-based)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "perPage", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "auth.LoginResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "token": {"type": "string"}}
        },
        "admin.SaveRequest": {
            "type": "object",
            "properties": {
                "churchName": {"type": "string"},
                "weekLabel": {"type": "string"},
                "collectionId": {"type": "integer"},
                "songs": {"type": "array", "items": {"$ref": "#/definitions/store.SongInput"}}
            }
        },
        "store.SongInput": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "audioUrl": {"type": "string"},
                "visible": {"type": "boolean"},
                "sheetUrls": {"type": "array", "items": {"type": "string"}}
            }
        },
        "store.CollectionSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "collection_name": {"type": "string"},
                "collection_week_label": {"type": "string"},
                "publish_date": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "store.Page": {
            "type": "object",
            "properties": {
                "collections": {"type": "array", "items": {"$ref": "#/definitions/store.CollectionSummary"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "perPage": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "AdminCookie": {"type": "apiKey", "name": "admin_token", "in": "cookie"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Song Navigation API",
	Description:      "主日崇拜诗歌导航：首页展示本周与下周诗歌，管理端维护周次、歌曲、歌谱与音频",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
