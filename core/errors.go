package core

import (
	"errors"
	"fmt"
)

// DomainError 是各模块共用的错误类型，调用方用 IsXXX 按 Code 判断。
//
// 常见组合：
//   - dataset / trainer：INVALID_INPUT, DIMENSION_MISMATCH
//   - model / rank：NOT_TRAINED
//   - store：NOT_FOUND, NOT_SUPPORTED
//   - config：NOT_SUPPORTED（未注册的 node 类型）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NOT_TRAINED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "trainer", "rank"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// NewDimensionMismatchError 创建特征维度不一致错误
func NewDimensionMismatchError(module string, want, got int) *DomainError {
	return NewDomainError(module, ErrorCodeDimensionMismatch,
		fmt.Sprintf("%s: feature dimension mismatch: want %d, got %d", module, want, got))
}

// 错误代码常量
const (
	ErrorCodeNotFound          = "NOT_FOUND"          // 资源不存在
	ErrorCodeNotSupported      = "NOT_SUPPORTED"      // 操作不支持
	ErrorCodeInvalidInput      = "INVALID_INPUT"      // 输入无效
	ErrorCodeDimensionMismatch = "DIMENSION_MISMATCH" // 特征维度不一致
	ErrorCodeNotTrained        = "NOT_TRAINED"        // 模型尚未训练
)

// 模块名称常量
const (
	ModuleStore   = "store"
	ModuleDataset = "dataset"
	ModuleTrainer = "trainer"
	ModuleModel   = "model"
	ModuleRank    = "rank"
	ModuleFair    = "fair"
	ModuleConfig  = "config"
)

var (
	// ErrEmptyInput 表示没有可训练/可排序的数据
	ErrEmptyInput = NewDomainError(ModuleDataset, ErrorCodeInvalidInput, "empty input")

	// ErrNotTrained 表示在训练之前调用了打分
	ErrNotTrained = NewDomainError(ModuleModel, ErrorCodeNotTrained, "model not trained")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsDimensionMismatch 检查错误是否为 DIMENSION_MISMATCH
func IsDimensionMismatch(err error) bool {
	return hasCode(err, ErrorCodeDimensionMismatch)
}

// IsNotTrained 检查错误是否为 NOT_TRAINED
func IsNotTrained(err error) bool {
	return hasCode(err, ErrorCodeNotTrained)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

func hasModuleCode(err error, module, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Module == module && domainErr.Code == code
	}
	return false
}
