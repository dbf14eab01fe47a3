package errors

import "google.golang.org/grpc/codes"

// 分析服务代码: 20 (业务服务范围 20-79)
// 错误码格式: AABBCCC
// - AA: 20 (分析服务)
// - BB: 类别代码
// - CCC: 序号

var (
	// 请求参数错误 (类别 01)
	ErrAnalysisInvalidWindow   = Register(New(MakeCode(ServiceAnalysis, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid analysis window: data_start must precede data_end", "分析时间窗口无效"))
	ErrAnalysisInvalidParams   = Register(New(MakeCode(ServiceAnalysis, CategoryRequest, 2), 400, codes.InvalidArgument, "Invalid clustering parameters", "聚类参数无效"))
	ErrInsufficientArticles    = Register(New(MakeCode(ServiceAnalysis, CategoryRequest, 3), 422, codes.FailedPrecondition, "Not enough articles for clustering", "文章数量不足，无法聚类"))
	ErrLLMResponseInvalid      = Register(New(MakeCode(ServiceAnalysis, CategoryRequest, 4), 500, codes.Internal, "LLM response failed schema validation", "模型响应未通过校验"))
	ErrEmbeddingDimMismatch    = Register(New(MakeCode(ServiceAnalysis, CategoryRequest, 5), 500, codes.Internal, "Embedding dimensionality mismatch", "向量维度不一致"))

	// 资源不存在 (类别 04)
	ErrWorkspaceNotFound = Register(New(MakeCode(ServiceAnalysis, CategoryResource, 1), 404, codes.NotFound, "Workspace not found", "工作区不存在"))
	ErrSessionNotFound   = Register(New(MakeCode(ServiceAnalysis, CategoryResource, 2), 404, codes.NotFound, "Clustering session not found", "聚类会话不存在"))
	ErrClusterNotFound   = Register(New(MakeCode(ServiceAnalysis, CategoryResource, 3), 404, codes.NotFound, "Cluster not found", "簇不存在"))
	ErrTaskNotFound      = Register(New(MakeCode(ServiceAnalysis, CategoryResource, 4), 404, codes.NotFound, "Analysis task not found", "分析任务不存在"))

	// 冲突 (类别 05)
	ErrSessionAlreadyRunning = Register(New(MakeCode(ServiceAnalysis, CategoryConflict, 1), 409, codes.AlreadyExists, "A session is already running for this workspace", "该工作区已有运行中的会话"))
	ErrWorkspaceDisabled     = Register(New(MakeCode(ServiceAnalysis, CategoryConflict, 2), 409, codes.FailedPrecondition, "Workspace is disabled", "工作区已停用"))

	// 内部错误 (类别 07)
	ErrClusteringFailed = Register(New(MakeCode(ServiceAnalysis, CategoryInternal, 1), 500, codes.Internal, "Clustering computation failed", "聚类计算失败"))
	ErrSessionTerminal  = Register(New(MakeCode(ServiceAnalysis, CategoryInternal, 2), 500, codes.FailedPrecondition, "Session already in terminal state", "会话已处于终态"))

	// 超时 (类别 11)
	ErrAnalysisTimeout = Register(New(MakeCode(ServiceAnalysis, CategoryTimeout, 1), 504, codes.DeadlineExceeded, "Analysis exceeded max runtime", "分析超过最大运行时长"))

	// 向量存储 (基础设施 12)
	ErrVectorFetch  = Register(New(MakeCode(ServiceInfraVector, CategoryNetwork, 1), 503, codes.Unavailable, "Vector store fetch failed", "向量存储读取失败"))
	ErrVectorUpsert = Register(New(MakeCode(ServiceInfraVector, CategoryNetwork, 2), 503, codes.Unavailable, "Vector store upsert failed", "向量存储写入失败"))

	// LLM 供应商 (第三方 90)
	ErrLLMUnavailable = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryNetwork, 1), 503, codes.Unavailable, "LLM provider unavailable", "模型服务不可用"))
	ErrLLMTimeout     = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryTimeout, 1), 504, codes.DeadlineExceeded, "LLM request timeout", "模型请求超时"))

	// 提示词注册中心 (第三方 91)
	ErrPromptNotFound    = Register(New(MakeCode(ServiceThirdPartyPrompt, CategoryResource, 1), 404, codes.NotFound, "Prompt template not found", "提示词模板不存在"))
	ErrPromptUnavailable = Register(New(MakeCode(ServiceThirdPartyPrompt, CategoryNetwork, 1), 503, codes.Unavailable, "Prompt registry unavailable", "提示词注册中心不可用"))
)
