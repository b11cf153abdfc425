package service

import (
	"errors"
	"fmt"
)

// 业务错误类别，handler据此映射响应码。
// 全部同步上报调用方，不做自动重试。
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrStateConflict    = errors.New("state conflict")
	ErrResourceConflict = errors.New("resource conflict")
)

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func validation(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func stateConflict(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrStateConflict)...)
}

func resourceConflict(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrResourceConflict)...)
}
