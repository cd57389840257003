// Package docs содержит swagger-описание HTTP API склада.
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
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Проверка живости",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/inventory/summary": {
            "get": {
                "description": "Количество товаров по классам остатка и стоимость склада",
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Сводка по складу",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.InventorySummaryResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/products": {
            "get": {
                "description": "Возвращает весь каталог",
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Список товаров",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/http.ProductResponse"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Создает товар. Обязательны name, barcode и price; quantity принимается как синоним stock",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Добавление товара",
                "parameters": [
                    {"description": "Товар", "name": "product", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Ошибка валидации или конфликт", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/products/{barcode}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Товар по штрихкоду",
                "parameters": [
                    {"type": "string", "description": "Штрихкод", "name": "barcode", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Частичное обновление. Учитываются только name, barcode, sku, brand, category, size, color, stock, price, image_url",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Изменение товара",
                "parameters": [
                    {"type": "string", "description": "Штрихкод", "name": "barcode", "in": "path", "required": true},
                    {"description": "Изменяемые поля", "name": "patch", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Частичное обновление. Учитываются только name, barcode, sku, brand, category, size, color, stock, price, image_url",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Изменение товара",
                "parameters": [
                    {"type": "string", "description": "Штрихкод", "name": "barcode", "in": "path", "required": true},
                    {"description": "Изменяемые поля", "name": "patch", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Удаление товара",
                "parameters": [
                    {"type": "string", "description": "Штрихкод", "name": "barcode", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.DeleteProductResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/products/{barcode}/image": {
            "post": {
                "description": "Сохраняет изображение в объектном хранилище и записывает его URL в image_url",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Загрузка изображения товара",
                "parameters": [
                    {"type": "string", "description": "Штрихкод", "name": "barcode", "in": "path", "required": true},
                    {"type": "file", "description": "Изображение товара", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/products/{barcode}/stock": {
            "post": {
                "description": "adjustment меняет остаток на величину, stock задает его явно",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Корректировка остатка",
                "parameters": [
                    {"type": "string", "description": "Штрихкод", "name": "barcode", "in": "path", "required": true},
                    {"description": "adjustment или stock", "name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.AdjustStockResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/sales": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sales"],
                "summary": "Журнал продаж",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/http.SaleResponse"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Списывает остатки по всем позициям и записывает продажу. При любой ошибке ничего не меняется",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sales"],
                "summary": "Проведение продажи",
                "parameters": [
                    {"description": "items, date, cart_total, payment_method", "name": "sale", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.SaleResponse"}},
                    "400": {"description": "Ошибка валидации или нехватка товара", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.AdjustStockResponse": {
            "type": "object",
            "properties": {
                "product": {"$ref": "#/definitions/http.ProductResponse"},
                "stock": {"type": "integer"}
            }
        },
        "http.DeleteProductResponse": {
            "type": "object",
            "properties": {
                "barcode": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "available": {"type": "integer"},
                "details": {},
                "error": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            }
        },
        "http.InventorySummaryResponse": {
            "type": "object",
            "properties": {
                "in_stock": {"type": "integer"},
                "inventory_value": {"type": "number"},
                "low_stock": {"type": "integer"},
                "out_of_stock": {"type": "integer"},
                "total_products": {"type": "integer"}
            }
        },
        "http.ProductResponse": {
            "type": "object",
            "properties": {
                "barcode": {"type": "string"},
                "brand": {"type": "string"},
                "category": {"type": "string"},
                "color": {"type": "string"},
                "id": {"type": "integer"},
                "image_url": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "size": {"type": "string"},
                "sku": {"type": "string"},
                "stock": {"type": "integer"}
            }
        },
        "http.SaleItemResponse": {
            "type": "object",
            "properties": {
                "barcode": {"type": "string"},
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "unit_price": {"type": "number"}
            }
        },
        "http.SaleResponse": {
            "type": "object",
            "properties": {
                "barcode": {"type": "string"},
                "date": {"type": "string"},
                "id": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/http.SaleItemResponse"}},
                "payment_method": {"type": "string"},
                "quantity_sold": {"type": "integer"},
                "total": {"type": "number"}
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
	Title:            "Store Manager API",
	Description:      "Учёт товаров, остатков и продаж магазина.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
