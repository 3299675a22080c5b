package poller

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/classifier"
	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// fakeFetcher 仅用于单元测试：按设备 ID 返回预置结果
type fakeFetcher struct {
	mu       sync.Mutex
	readings map[string]*models.Reading
	failing  map[string]bool
	calls    int
}

func (f *fakeFetcher) FetchLatest(_ context.Context, boxID string, _ int) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.failing[boxID] {
		return nil, fmt.Errorf("fetch %s: backend unreachable", boxID)
	}
	if r, ok := f.readings[boxID]; ok {
		return []models.Reading{*r}, nil
	}
	return []models.Reading{}, nil
}

func testReading(boxID string, temp, humidity float64) *models.Reading {
	return &models.Reading{
		BoxID:       boxID,
		Temperature: models.Float64Ptr(temp),
		Humidity:    models.Float64Ptr(humidity),
		Timestamp:   "2025-10-01 08:00:00",
	}
}

func newTestPoller(f *fakeFetcher, ids []string) *FleetPoller {
	return New(f, func() []string { return ids }, classifier.DefaultThresholds, 10*time.Millisecond, zap.NewNop())
}

func TestPoll_SnapshotCoversAllDevices(t *testing.T) {
	fetcher := &fakeFetcher{
		readings: map[string]*models.Reading{
			"SMARTBOX-001": testReading("SMARTBOX-001", 2.5, 50.0),
			"SMARTBOX-002": testReading("SMARTBOX-002", 9.0, 50.0),
		},
	}
	p := newTestPoller(fetcher, nil)

	snapshot := p.Poll(context.Background(), []string{"SMARTBOX-001", "SMARTBOX-002", "SMARTBOX-003"})

	require.Len(t, snapshot.Devices, 3)
	assert.Equal(t, models.StatusSafe, snapshot.Devices["SMARTBOX-001"].Status)
	assert.Equal(t, models.StatusDanger, snapshot.Devices["SMARTBOX-002"].Status)
	// 从未上报的设备 → Offline，而不是缺条目
	assert.Equal(t, models.StatusOffline, snapshot.Devices["SMARTBOX-003"].Status)
}

func TestPoll_PartialFailureIsolation(t *testing.T) {
	fetcher := &fakeFetcher{
		readings: map[string]*models.Reading{
			"A": testReading("A", 2.5, 50.0),
			"C": testReading("C", 3.0, 55.0),
		},
		failing: map[string]bool{"B": true},
	}
	p := newTestPoller(fetcher, nil)

	snapshot := p.Poll(context.Background(), []string{"A", "B", "C"})

	require.Len(t, snapshot.Devices, 3)
	assert.Equal(t, models.StatusSafe, snapshot.Devices["A"].Status)
	assert.Equal(t, models.StatusOffline, snapshot.Devices["B"].Status)
	assert.Nil(t, snapshot.Devices["B"].Reading)
	assert.Equal(t, models.StatusSafe, snapshot.Devices["C"].Status)
}

func TestPoll_IdempotentAgainstUnchangedBackend(t *testing.T) {
	fetcher := &fakeFetcher{
		readings: map[string]*models.Reading{
			"SMARTBOX-001": testReading("SMARTBOX-001", 2.5, 50.0),
		},
	}
	p := newTestPoller(fetcher, nil)

	first := p.Poll(context.Background(), []string{"SMARTBOX-001"})
	second := p.Poll(context.Background(), []string{"SMARTBOX-001"})

	// 周期号不同，设备状态结构必须相等
	assert.Equal(t, first.Devices, second.Devices)
	assert.Greater(t, second.CycleSeq, first.CycleSeq)
}

func TestPoll_EmptyFleet(t *testing.T) {
	p := newTestPoller(&fakeFetcher{}, nil)
	snapshot := p.Poll(context.Background(), nil)
	assert.Empty(t, snapshot.Devices)
}

func TestRun_DeliversSnapshotsAndStopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{
		readings: map[string]*models.Reading{
			"SMARTBOX-001": testReading("SMARTBOX-001", 2.5, 50.0),
		},
	}
	p := newTestPoller(fetcher, []string{"SMARTBOX-001"})

	ctx, cancel := context.WithCancel(context.Background())
	snapshots := make(chan *models.FleetSnapshot, 16)

	done := make(chan struct{})
	go func() {
		p.Run(ctx, func(s *models.FleetSnapshot) { snapshots <- s })
		close(done)
	}()

	// 启动即跑一轮
	select {
	case s := <-snapshots:
		assert.Equal(t, models.StatusSafe, s.Devices["SMARTBOX-001"].Status)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered after start")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancel")
	}

	assert.NotNil(t, p.Latest())
}

func TestLatest_NilBeforeFirstCycle(t *testing.T) {
	p := newTestPoller(&fakeFetcher{}, nil)
	assert.Nil(t, p.Latest())
}
