package models

// 角色常量。后端用户表里 "admin" 是普通 Mitra 账号，只有 super_admin 有全量视图
const (
	RoleSuperAdmin = "super_admin"
	RoleMitra      = "mitra"
)

// Identity 一次登录会话的身份信息
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"` // 后端签发的 Bearer token，透传给所有 API 调用
}

// IsSuperAdmin 是否超级管理员（唯一拥有全量设备视图的角色）
func (i Identity) IsSuperAdmin() bool {
	return i.Role == RoleSuperAdmin
}
