package interfaces

import "errors"

var (
	// ErrNotFound 被引用的记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("duplicate record")
)
