// Package docs GBP 评论同步服务 API 文档
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/api/cron/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "同步执行，完成后返回汇总；需携带 cron 密钥",
                "tags": ["Sync"],
                "summary": "同步全部已授权商家",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "密钥错误"},
                    "409": {"description": "上一轮仍在执行"}
                }
            }
        },
        "/api/oauth/google/callback": {
            "get": {
                "tags": ["OAuth"],
                "summary": "Google 授权回调",
                "parameters": [
                    {"type": "string", "name": "code", "in": "query", "required": true},
                    {"type": "string", "name": "state", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "state 无效"}
                }
            }
        },
        "/api/businesses": {
            "post": {
                "tags": ["Business"],
                "summary": "注册商家",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterBusinessReq"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "商家已存在"}
                }
            }
        },
        "/api/businesses/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Business"],
                "summary": "商家详情与评论统计",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "商家不存在"}}
            }
        },
        "/api/businesses/{id}/oauth/url": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["OAuth"],
                "summary": "获取 Google 授权链接",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "503": {"description": "未配置 OAuth"}}
            }
        },
        "/api/businesses/{id}/gbp/locations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Business"],
                "summary": "列出全部账号下的地点",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "需要重新授权"}}
            }
        },
        "/api/businesses/{id}/gbp/location": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Business"],
                "summary": "绑定地点",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SelectLocationReq"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "地点不存在"}}
            }
        },
        "/api/businesses/{id}/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Sync"],
                "summary": "手动同步单个商家",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "需要重新授权"},
                    "429": {"description": "限流中"}
                }
            }
        },
        "/api/businesses/{id}/reviews": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Review"],
                "summary": "已同步评论，最新在前",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/businesses/{id}/reply-rule": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Review"],
                "summary": "获取自动回复规则",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReplyRuleResp"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Review"],
                "summary": "更新自动回复规则",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ReplyRuleReq"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReplyRuleResp"}}}
            }
        },
        "/api/businesses/{id}/reply-logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Review"],
                "summary": "最近 50 条回复日志",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/businesses/{id}/stats/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Review"],
                "summary": "基于已存评论重算商家统计",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "未绑定地点"}, "404": {"description": "商家不存在"}}
            }
        },
        "/api/businesses/{id}/analytics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Business"],
                "summary": "扫码 / 复制 / 跳转次数",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/public/businesses/{id}": {
            "get": {
                "tags": ["Public"],
                "summary": "落地页商家信息，同时记录一次扫码",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PublicBusinessResp"}}, "404": {"description": "商家不存在"}}
            }
        },
        "/api/public/businesses/{id}/track": {
            "post": {
                "tags": ["Public"],
                "summary": "记录复制评论 / 跳转 Google",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TrackReq"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "动作无效"}, "404": {"description": "商家不存在"}}
            }
        },
        "/api/admin/businesses/{id}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "启用/停用商家",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.BusinessStatusReq"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "dto.RegisterBusinessReq": {
            "type": "object",
            "required": ["id", "name"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "dto.SelectLocationReq": {
            "type": "object",
            "required": ["location_name"],
            "properties": {"location_name": {"type": "string", "example": "locations/123"}}
        },
        "dto.BusinessStatusReq": {
            "type": "object",
            "required": ["active"],
            "properties": {"active": {"type": "boolean"}}
        },
        "dto.ReplyRuleReq": {
            "type": "object",
            "required": ["mode", "enabled"],
            "properties": {
                "mode": {"type": "string", "enum": ["AUTO", "MANUAL", "SUGGEST"]},
                "min_stars": {"type": "integer", "minimum": 1, "maximum": 5},
                "max_stars": {"type": "integer", "minimum": 1, "maximum": 5},
                "daily_limit": {"type": "integer", "minimum": 0, "maximum": 1000},
                "enabled": {"type": "boolean"}
            }
        },
        "dto.PublicBusinessResp": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "location": {"type": "string"},
                "place_id": {"type": "string"},
                "review_url": {"type": "string"}
            }
        },
        "dto.TrackReq": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["COPY_REVIEW", "REDIRECT_GOOGLE"]},
                "review_content": {"type": "string", "maxLength": 5000}
            }
        },
        "dto.ReplyRuleResp": {
            "type": "object",
            "properties": {
                "configured": {"type": "boolean"},
                "location_id": {"type": "string"},
                "mode": {"type": "string"},
                "min_stars": {"type": "integer"},
                "max_stars": {"type": "integer"},
                "daily_limit": {"type": "integer"},
                "enabled": {"type": "boolean"}
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
	Title:            "GBP Review Sync API",
	Description:      "Google Business Profile 评论同步与自动回复",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
