// Package visibility 设备可见性裁决：哪个账号可以把哪台设备加进自己的跟踪列表。
package visibility

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// ErrAccessDenied 授权拒绝（同步返回给"添加设备"动作，设备不会进入跟踪列表）
var ErrAccessDenied = errors.New("access denied")

// protectedPrefix 受保护车队的命名约定：SMARTBOX- 开头（不区分大小写）的
// 设备 ID 属于正式车队，受白名单管控；其它 ID 视为 dummy，自由添加。
// 这不是通用 RBAC，是刻意保留的粗粒度租户隔离捷径
const protectedPrefix = "smartbox-"

// Resolver 可见性裁决器
type Resolver struct {
	// accessRules 按用户名的静态白名单；没有条目的账号对受保护车队零权限
	accessRules map[string][]string
}

// NewResolver 创建裁决器
func NewResolver(accessRules map[string][]string) *Resolver {
	if accessRules == nil {
		accessRules = make(map[string][]string)
	}
	return &Resolver{accessRules: accessRules}
}

// IsProtected 是否受保护车队 ID
func IsProtected(boxID string) bool {
	return strings.HasPrefix(strings.ToLower(boxID), protectedPrefix)
}

// CanAccess 裁决规则：
//  1. super_admin 无条件放行
//  2. 受保护 ID：必须出现在该用户名的白名单里
//  3. 非保护 ID：无条件放行
func (r *Resolver) CanAccess(identity models.Identity, boxID string) bool {
	if identity.IsSuperAdmin() {
		return true
	}
	if !IsProtected(boxID) {
		return true
	}

	// 白名单按原样精确匹配（前缀判断才是大小写不敏感的）
	for _, allowed := range r.accessRules[identity.Username] {
		if allowed == boxID {
			return true
		}
	}
	return false
}

// Authorize 同 CanAccess，拒绝时返回带用户可读信息的错误
func (r *Resolver) Authorize(identity models.Identity, boxID string) error {
	if r.CanAccess(identity, boxID) {
		return nil
	}
	return fmt.Errorf("%w: account %q has no permission for %s", ErrAccessDenied, identity.Username, boxID)
}
