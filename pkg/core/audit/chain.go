package audit

import (
	"fmt"
	"strconv"
	"strings"
)

// chainSep 审批流在数据库中的分隔符
const chainSep = ","

// AuthGroups 有序审批组链（对外导出）
// 业务逻辑只操作该类型，序列化/反序列化仅发生在持久化边界
type AuthGroups []GroupID

// ParseAuthGroups 解析数据库中的逗号分隔审批流字符串
// 空串表示无需审批，返回空链
func ParseAuthGroups(s string) (AuthGroups, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AuthGroups{}, nil
	}
	parts := strings.Split(s, chainSep)
	groups := make(AuthGroups, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("解析审批流失败, 非法的审批组ID %q: %w", p, err)
		}
		groups = append(groups, GroupID(id))
	}
	return groups, nil
}

// String 序列化为数据库存储形式，空链返回空串
func (g AuthGroups) String() string {
	if len(g) == 0 {
		return ""
	}
	parts := make([]string, len(g))
	for i, id := range g {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, chainSep)
}

// IsEmpty 是否为空链（无需审批）
func (g AuthGroups) IsEmpty() bool {
	return len(g) == 0
}

// First 返回链上第一个审批组，空链返回NoGroup
func (g AuthGroups) First() GroupID {
	if len(g) == 0 {
		return NoGroup
	}
	return g[0]
}

// IndexOf 返回指定审批组在链上的位置，不存在返回-1
func (g AuthGroups) IndexOf(id GroupID) int {
	for i, v := range g {
		if v == id {
			return i
		}
	}
	return -1
}

// After 返回链上紧跟在指定审批组之后的组，无后继或不在链上返回NoGroup
func (g AuthGroups) After(id GroupID) GroupID {
	i := g.IndexOf(id)
	if i < 0 || i+1 >= len(g) {
		return NoGroup
	}
	return g[i+1]
}

// Contains 指定审批组是否在链上
func (g AuthGroups) Contains(id GroupID) bool {
	return g.IndexOf(id) >= 0
}
