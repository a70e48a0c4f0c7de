package model

import "time"

// User 结构体表示用户模型，用户名和邮箱创建后不可修改
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // 密码哈希不应在JSON中暴露
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
}

// Author 是帖子和评论中展示的用户摘要
type Author struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// AvatarResult 头像上传接口的响应
type AvatarResult struct {
	Success bool   `json:"success"`
	Avatar  string `json:"avatar"`
}

// ErrorPayload JSON 接口的错误响应
type ErrorPayload struct {
	Error string `json:"error"`
}
