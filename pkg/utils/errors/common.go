package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Common errors shared by all services (service code 00).
var (
	// OK indicates success.
	OK = Register(New(MakeCode(ServiceCommon, CategorySuccess, 0), http.StatusOK, codes.OK, "OK", "成功"))

	// ErrBadRequest is a generic request error.
	ErrBadRequest = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Bad request", "请求错误"))

	// ErrInvalidParam indicates an invalid request parameter.
	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 2), http.StatusBadRequest, codes.InvalidArgument, "Invalid parameter", "参数无效"))

	// ErrValidationFailed indicates struct/schema validation failure.
	ErrValidationFailed = Register(New(MakeCode(ServiceCommon, CategoryRequest, 3), http.StatusBadRequest, codes.InvalidArgument, "Validation failed", "校验失败"))

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), http.StatusNotFound, codes.NotFound, "Resource not found", "资源不存在"))

	// ErrConflict indicates a state conflict with an existing resource.
	ErrConflict = Register(New(MakeCode(ServiceCommon, CategoryConflict, 1), http.StatusConflict, codes.AlreadyExists, "Resource conflict", "资源冲突"))

	// ErrInternal is the fallback internal error.
	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), http.StatusInternalServerError, codes.Internal, "Internal server error", "内部错误"))

	// ErrDatabase indicates a database operation failure.
	ErrDatabase = Register(New(MakeCode(ServiceInfraDB, CategoryDatabase, 1), http.StatusInternalServerError, codes.Internal, "Database error", "数据库错误"))

	// ErrCache indicates a cache operation failure.
	ErrCache = Register(New(MakeCode(ServiceInfraCache, CategoryCache, 1), http.StatusInternalServerError, codes.Internal, "Cache error", "缓存错误"))

	// ErrServiceUnavailable indicates a dependency is unreachable.
	ErrServiceUnavailable = Register(New(MakeCode(ServiceCommon, CategoryNetwork, 1), http.StatusServiceUnavailable, codes.Unavailable, "Service unavailable", "服务不可用"))

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1), http.StatusGatewayTimeout, codes.DeadlineExceeded, "Operation timeout", "操作超时"))

	// ErrConfig indicates missing or invalid configuration.
	ErrConfig = Register(New(MakeCode(ServiceCommon, CategoryConfig, 1), http.StatusInternalServerError, codes.FailedPrecondition, "Invalid configuration", "配置无效"))
)
