package model

// UserRole 由外部身份服务签发在 JWT 中
type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)
