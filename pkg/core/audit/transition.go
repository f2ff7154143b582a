package audit

// supportedOperate 状态机迁移表：当前状态 -> 允许的操作集合
// 终态（REJECTED/ABORTED）不出现在表中，任何操作均不允许
var supportedOperate = map[Status]map[Action]bool{
	StatusWaiting: {
		ActionPass:   true,
		ActionReject: true,
		ActionAbort:  true,
	},
	StatusPassed: {
		// 审批通过后允许驳回（审批召回）与取消，不允许再次通过
		ActionReject: true,
		ActionAbort:  true,
		// 执行类操作仅允许在PASSED状态发起，引擎只记录不执行
		ActionExecuteSetTime: true,
		ActionExecuteStart:   true,
		ActionExecuteEnd:     true,
		ActionExecuteFail:    true,
	},
}

// CanOperate 判断指定状态下操作是否合法（对外导出）
func CanOperate(status Status, action Action) bool {
	allowed, ok := supportedOperate[status]
	if !ok {
		return false
	}
	return allowed[action]
}
