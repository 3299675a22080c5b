package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

func setupTestStore(t *testing.T) *SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return NewSessionStore(NewRedisKVStore(redisClient), zap.NewNop())
}

func TestSessionStore_SaveAndGetIdentity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	identity := models.Identity{
		Username: "mitra_padang",
		Role:     models.RoleMitra,
		Token:    "token-abc",
	}
	require.NoError(t, s.SaveIdentity(ctx, identity))

	got, err := s.GetIdentity(ctx, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestSessionStore_GetIdentity_UnknownToken(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetIdentity(context.Background(), "no-such-token")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_TrackedDevices_EmptyByDefault(t *testing.T) {
	s := setupTestStore(t)

	ids, err := s.TrackedDevices(context.Background(), "mitra_padang")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSessionStore_AddTrackedDevice(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ids, err := s.AddTrackedDevice(ctx, "mitra_padang", "SMARTBOX-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"SMARTBOX-001"}, ids)

	ids, err = s.AddTrackedDevice(ctx, "mitra_padang", "FRIDGE-DUMMY")
	require.NoError(t, err)
	assert.Equal(t, []string{"SMARTBOX-001", "FRIDGE-DUMMY"}, ids)

	// 重复添加报错（旧版的 "alat ini sudah ada"）
	_, err = s.AddTrackedDevice(ctx, "mitra_padang", "SMARTBOX-001")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already tracked")
}

func TestSessionStore_RemoveTrackedDevice(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.AddTrackedDevice(ctx, "mitra_gudang", "SMARTBOX-002")
	require.NoError(t, err)
	_, err = s.AddTrackedDevice(ctx, "mitra_gudang", "SMARTBOX-003")
	require.NoError(t, err)

	ids, err := s.RemoveTrackedDevice(ctx, "mitra_gudang", "SMARTBOX-002")
	require.NoError(t, err)
	assert.Equal(t, []string{"SMARTBOX-003"}, ids)

	// 不在列表里是 no-op
	ids, err = s.RemoveTrackedDevice(ctx, "mitra_gudang", "SMARTBOX-099")
	require.NoError(t, err)
	assert.Equal(t, []string{"SMARTBOX-003"}, ids)
}

func TestSessionStore_Logout_ClearsSessionAndTrackedTogether(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	identity := models.Identity{
		Username: "mitra_padang",
		Role:     models.RoleMitra,
		Token:    "token-abc",
	}
	require.NoError(t, s.SaveIdentity(ctx, identity))
	_, err := s.AddTrackedDevice(ctx, "mitra_padang", "SMARTBOX-001")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, identity))

	_, err = s.GetIdentity(ctx, "token-abc")
	assert.Equal(t, ErrNotFound, err)

	// 登出后跟踪列表为空：下一次登录是干净的会话
	ids, err := s.TrackedDevices(ctx, "mitra_padang")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSessionStore_ClearTrackedDevices(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.AddTrackedDevice(ctx, "mitra_padang", "SMARTBOX-001")
	require.NoError(t, err)

	require.NoError(t, s.ClearTrackedDevices(ctx, "mitra_padang"))

	ids, err := s.TrackedDevices(ctx, "mitra_padang")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
