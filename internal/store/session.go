// Package store 会话态持久化。旧版前端把身份和跟踪列表放 localStorage，
// 这里用 Redis 扮演同一角色：按 token 存身份，按用户名存跟踪设备列表，登出时一起清掉。
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

const (
	sessionKeyPrefix = "smartbox:session:" // + token
	trackedKeyPrefix = "smartbox:tracked:" // + username
)

// SessionTTL 会话过期时间。后端 token 自身的有效期是后端的事，这里只管本地会话态
const SessionTTL = 24 * time.Hour

// SessionStore 身份会话 + 跟踪设备列表
type SessionStore struct {
	kv     KVStore
	logger *zap.Logger
}

// NewSessionStore 创建存储
func NewSessionStore(kv KVStore, logger *zap.Logger) *SessionStore {
	return &SessionStore{kv: kv, logger: logger}
}

// SaveIdentity 登录成功后写入会话
func (s *SessionStore) SaveIdentity(ctx context.Context, identity models.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+identity.Token, string(data), SessionTTL); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetIdentity 按 token 取回身份；不存在返回 ErrNotFound
func (s *SessionStore) GetIdentity(ctx context.Context, token string) (models.Identity, error) {
	var identity models.Identity
	val, err := s.kv.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if err == ErrNotFound {
			return identity, ErrNotFound
		}
		return identity, fmt.Errorf("failed to get session: %w", err)
	}
	if err := json.Unmarshal([]byte(val), &identity); err != nil {
		return identity, fmt.Errorf("failed to unmarshal identity: %w", err)
	}
	return identity, nil
}

// Logout 登出：会话和跟踪列表一起删，不留半截状态
func (s *SessionStore) Logout(ctx context.Context, identity models.Identity) error {
	err := s.kv.Del(ctx,
		sessionKeyPrefix+identity.Token,
		trackedKeyPrefix+identity.Username,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Info("Session cleared",
		zap.String("username", identity.Username),
	)
	return nil
}

// TrackedDevices 某账号当前跟踪的设备列表；没有记录返回空列表
func (s *SessionStore) TrackedDevices(ctx context.Context, username string) ([]string, error) {
	val, err := s.kv.Get(ctx, trackedKeyPrefix+username)
	if err != nil {
		if err == ErrNotFound {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get tracked devices: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(val), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tracked devices: %w", err)
	}
	return ids, nil
}

// AddTrackedDevice 把设备加进跟踪列表；重复添加报错（和旧版"alat ini sudah ada"一致）
func (s *SessionStore) AddTrackedDevice(ctx context.Context, username, boxID string) ([]string, error) {
	ids, err := s.TrackedDevices(ctx, username)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == boxID {
			return nil, fmt.Errorf("device %s is already tracked", boxID)
		}
	}

	ids = append(ids, boxID)
	if err := s.saveTracked(ctx, username, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// RemoveTrackedDevice 从跟踪列表移除设备；不在列表里是 no-op
func (s *SessionStore) RemoveTrackedDevice(ctx context.Context, username, boxID string) ([]string, error) {
	ids, err := s.TrackedDevices(ctx, username)
	if err != nil {
		return nil, err
	}

	out := ids[:0]
	for _, id := range ids {
		if id != boxID {
			out = append(out, id)
		}
	}
	if err := s.saveTracked(ctx, username, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearTrackedDevices 清空跟踪列表（仪表盘的"删除本地列表"按钮）
func (s *SessionStore) ClearTrackedDevices(ctx context.Context, username string) error {
	if err := s.kv.Del(ctx, trackedKeyPrefix+username); err != nil {
		return fmt.Errorf("failed to clear tracked devices: %w", err)
	}
	return nil
}

func (s *SessionStore) saveTracked(ctx context.Context, username string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal tracked devices: %w", err)
	}
	// 跟踪列表不过期，生命周期由登出控制
	if err := s.kv.Set(ctx, trackedKeyPrefix+username, string(data), 0); err != nil {
		return fmt.Errorf("failed to save tracked devices: %w", err)
	}
	return nil
}
