// Package response provides unified API response structures.
// This package defines standard response formats for HTTP APIs,
// ensuring consistent response structures across all endpoints.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/newsloom/pkg/utils/errors"
)

// Response is the unified API response structure.
// All API responses should use this format for consistency.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Data contains the response payload (nil for errors)
	Data interface{} `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`
}

// PageData represents paginated data.
type PageData struct {
	// List contains the data items
	List interface{} `json:"list"`

	// Total is the total number of items
	Total int64 `json:"total"`

	// Page is the current page number (1-based)
	Page int `json:"page"`

	// PageSize is the number of items per page
	PageSize int `json:"page_size"`

	// TotalPages is the total number of pages
	TotalPages int `json:"total_pages"`
}

// Success creates a successful response with data.
func Success(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// Err creates an error response from an Errno type.
func Err(e *errors.Errno) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Code:    e.Code,
		Message: e.MessageEN,
	}
}

// ErrWithLang creates an error response with language-specific message.
func ErrWithLang(e *errors.Errno, lang string) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Code:    e.Code,
		Message: e.Message(lang),
	}
}

// Page creates a paginated response.
func Page(list interface{}, total int64, page, pageSize int) *Response {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return Success(&PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// WithRequestID adds request ID to the response.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Code == 0
}

// HTTPStatus returns the appropriate HTTP status code for this response.
// It looks up the registered errno to get the correct HTTP status.
func (r *Response) HTTPStatus() int {
	if r.Code == 0 {
		return http.StatusOK
	}

	// Look up in registered errors to get HTTP status
	if e, ok := errors.Lookup(r.Code); ok {
		return e.HTTPStatus()
	}

	// Fallback: determine by category from error code
	category := errors.GetCategory(r.Code)
	switch category {
	case errors.CategoryRequest:
		return http.StatusBadRequest
	case errors.CategoryResource:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Write writes the response to the client.
// It handles both success and error cases, ensuring consistent response format.
func Write(c *gin.Context, err error, data interface{}) {
	if err != nil {
		resp := Err(errors.FromError(err))
		if rid := c.GetString(RequestIDKey); rid != "" {
			resp.RequestID = rid
		}
		c.JSON(resp.HTTPStatus(), resp)
		return
	}

	// data can be *Response (e.g. from Page) or raw payload
	resp, ok := data.(*Response)
	if !ok {
		resp = Success(data)
	}
	if rid := c.GetString(RequestIDKey); rid != "" {
		resp.RequestID = rid
	}
	c.JSON(resp.HTTPStatus(), resp)
}

// RequestIDKey 请求 ID 在 gin.Context 中的键名。
const RequestIDKey = "request_id"
