package audit

import "errors"

// 审批引擎错误分类（对外导出）
// 查询类接口的"未找到"不属于错误，统一返回零值+false
var (
	// ErrInvalidInit 初始化参数错误：audit与workflow必须且只能提供一个
	ErrInvalidInit = errors.New("初始化失败, 需要提供 WorkflowAudit 或 workflow")

	// ErrNoAuditFlow 未配置审批流，不可恢复，调用方不得创建审批单
	ErrNoAuditFlow = errors.New("未配置审流,请联系管理员")

	// ErrResourceGroupNotFound 归档工单指定的资源组不存在
	ErrResourceGroupNotFound = errors.New("参数错误, 未发现资源组")

	// ErrDuplicateSubmission 同一业务工单重复创建审批单
	ErrDuplicateSubmission = errors.New("请勿重复提交")

	// ErrActionNotAllowed 当前状态不允许该操作
	ErrActionNotAllowed = errors.New("不允许的操作")

	// ErrDataIntegrity 审批单引用了不存在的审批组，历史数据需要人工清洗
	// 显式抛出而不是静默回退
	ErrDataIntegrity = errors.New("当前审批auth_group_id不存在，请检查并清洗历史数据")

	// ErrConcurrentOperate 并发操作冲突，审批单状态已被其他请求变更
	ErrConcurrentOperate = errors.New("操作冲突, 审批单状态已变更, 请刷新后重试")
)
