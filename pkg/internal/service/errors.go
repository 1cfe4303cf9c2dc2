package service

import (
	"errors"
	"fmt"
)

// 领域错误，handler 通过 errors.Is 映射为 HTTP 状态码.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrQuotaExceeded       = errors.New("storage quota exceeded")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
	ErrPlanInactive        = errors.New("upgrade to paid plan")
	ErrForbidden           = errors.New("forbidden")
	ErrTransaction         = errors.New("transaction failed")
	// ErrLedgerDrift storage_used 小于要扣减的字节数，事务回滚.
	ErrLedgerDrift = errors.New("storage ledger drift")
)

// ValidationError 请求字段校验失败.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return e.Field + ": " + e.Reason
}

// Is 使 errors.Is(err, ErrValidation) 成立.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// QuotaExceededError 上传大小超过班级剩余配额.
type QuotaExceededError struct {
	Need      int64
	Remaining int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: file needs %d bytes, %d bytes remaining", e.Need, e.Remaining)
}

// Is 使 errors.Is(err, ErrQuotaExceeded) 成立.
func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
}

// txError 领域错误原样返回，其余数据库错误包装为 ErrTransaction.
func txError(err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{
		ErrValidation, ErrNotFound, ErrQuotaExceeded, ErrPlanInactive, ErrForbidden, ErrTransaction,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrTransaction, err)
}
