package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrIntegrity          = errors.New("备份数据完整性校验失败")
	ErrMalformedSnapshot  = errors.New("backup data is missing its session header")
	ErrUnsupportedVersion = errors.New("unsupported backup format version")
)
