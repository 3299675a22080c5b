// Package poller 周期性并发拉取整个车队的最新遥测，产出每轮的状态快照。
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/classifier"
	"github.com/andrewkristofer/SmartBox-IoT/internal/models"
)

// Fetcher 遥测拉取接口（单元测试中替换真实客户端）
type Fetcher interface {
	FetchLatest(ctx context.Context, boxID string, limit int) ([]models.Reading, error)
}

// DeviceLister 返回本轮要轮询的设备 ID 集合。每轮重新取一次，
// 跟踪列表的增删在下一轮生效，不会打断进行中的周期
type DeviceLister func() []string

// FleetPoller 车队轮询器。
// 周期串行：上一轮没结束时跳过本轮 tick，绝不让两轮结果交错提交
type FleetPoller struct {
	fetcher    Fetcher
	devices    DeviceLister
	thresholds classifier.Thresholds
	interval   time.Duration
	logger     *zap.Logger

	mu       sync.RWMutex
	latest   *models.FleetSnapshot
	cycleSeq uint64
}

// New 创建轮询器
func New(fetcher Fetcher, devices DeviceLister, thresholds classifier.Thresholds, interval time.Duration, logger *zap.Logger) *FleetPoller {
	return &FleetPoller{
		fetcher:    fetcher,
		devices:    devices,
		thresholds: thresholds,
		interval:   interval,
		logger:     logger,
	}
}

// Poll 执行一轮：对每台设备并发发起 limit=1 拉取，全部落定后才组装快照。
// 单台设备失败只让它自己变 Offline，绝不拖垮或清空其它设备
func (p *FleetPoller) Poll(ctx context.Context, boxIDs []string) *models.FleetSnapshot {
	p.mu.Lock()
	p.cycleSeq++
	seq := p.cycleSeq
	p.mu.Unlock()

	snapshot := models.NewFleetSnapshot(seq)
	if len(boxIDs) == 0 {
		return snapshot
	}

	type fetchResult struct {
		boxID   string
		reading *models.Reading
	}

	results := make(chan fetchResult, len(boxIDs))
	var wg sync.WaitGroup

	for _, boxID := range boxIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			readings, err := p.fetcher.FetchLatest(ctx, id, 1)
			if err != nil {
				// 降级为 Offline，只记日志，不向用户冒泡
				p.logger.Debug("Device fetch failed this cycle",
					zap.String("box_id", id),
					zap.Error(err),
				)
				results <- fetchResult{boxID: id}
				return
			}
			if len(readings) == 0 {
				// 设备从未上报过
				results <- fetchResult{boxID: id}
				return
			}
			r := readings[0]
			results <- fetchResult{boxID: id, reading: &r}
		}(boxID)
	}

	wg.Wait()
	close(results)

	for res := range results {
		snapshot.Devices[res.boxID] = models.DeviceState{
			BoxID:   res.boxID,
			Status:  classifier.Classify(res.reading, p.thresholds),
			Reading: res.reading,
		}
	}
	return snapshot
}

// Run 轮询循环：启动即跑一轮，之后按固定间隔。每轮结果通过 onSnapshot 回调交付；
// ctx 取消后停止循环，进行中的拉取结果直接丢弃
func (p *FleetPoller) Run(ctx context.Context, onSnapshot func(*models.FleetSnapshot)) {
	p.logger.Info("Fleet poller started",
		zap.Duration("interval", p.interval),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runCycle(ctx, onSnapshot)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Fleet poller stopped")
			return
		case <-ticker.C:
			p.runCycle(ctx, onSnapshot)
		}
	}
}

func (p *FleetPoller) runCycle(ctx context.Context, onSnapshot func(*models.FleetSnapshot)) {
	snapshot := p.Poll(ctx, p.devices())

	select {
	case <-ctx.Done():
		// 视图已拆除：丢弃本轮结果
		return
	default:
	}

	p.mu.Lock()
	// 过期周期不提交，latest 只能向前推进
	if p.latest == nil || snapshot.CycleSeq > p.latest.CycleSeq {
		p.latest = snapshot
	}
	p.mu.Unlock()

	if onSnapshot != nil {
		onSnapshot(snapshot)
	}
}

// Latest 返回最近一次完整提交的快照；尚未完成任何周期时返回 nil
func (p *FleetPoller) Latest() *models.FleetSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}
