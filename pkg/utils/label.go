package utils

import "strings"

// Label 记录某个阶段对条目做出的判断，例如打分模型名、公平性检查结果。
// 同名 Label 多次写入时按写入顺序累积，便于追溯排序链路。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // rank / rerank / filter
}

const (
	valueSep  = "|"
	sourceSep = ","
)

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积，
// 任意一侧为空时直接取另一侧。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := Label{Value: existing.Value + valueSep + incoming.Value}
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + sourceSep + incoming.Source
	}
	return merged
}

// Values 按写入顺序返回累积的全部取值
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, valueSep)
}

// Last 返回最近一次写入的取值
func (l Label) Last() string {
	if i := strings.LastIndex(l.Value, valueSep); i >= 0 {
		return l.Value[i+len(valueSep):]
	}
	return l.Value
}
