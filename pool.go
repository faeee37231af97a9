package vlist

import (
	"time"

	"go.uber.org/zap"
)

// PoolItem is the constraint for containers managed by AdaptiveItemPool.
// Containers are compared by identity, so pointer types are the usual choice.
type PoolItem interface {
	comparable
	Show()
	Hide()
	Visible() bool
}

// Poolable is implemented by containers that clear their content when they are
// returned to a pool.
type Poolable interface {
	Reset()
}

// PoolStats is a read-only snapshot of pool counters.
type PoolStats struct {
	TargetSize     int
	MaxSize        int
	Available      int
	Lent           int
	TotalCreated   uint64
	TotalReused    uint64
	TotalRequests  uint64
	TotalDiscarded uint64

	HitRate         float64 // TotalReused / TotalRequests
	RecentHitRate   float64 // mean of the optimizer's sample window
	EfficiencyScore float64 // 0.7*HitRate + 0.3*(1 - Available/MaxSize)
	Utilization     float64 // Available / TargetSize
}

// AdaptiveItemPool recycles item containers instead of creating one per data
// row. Idle containers sit on a LIFO free list capped at twice the initial
// target size; the target is retuned from the observed hit rate.
//
// The pool is not safe for concurrent use. All calls must come from the
// goroutine driving the UI event loop.
type AdaptiveItemPool[C PoolItem] struct {
	cfg PoolConfig
	now func() time.Time
	log *zap.Logger

	targetSize int
	maxSize    int
	available  []C
	lent       map[C]struct{}

	totalCreated   uint64
	totalReused    uint64
	totalRequests  uint64
	totalDiscarded uint64

	history      []float64
	lastOptimize time.Time
}

// NewAdaptiveItemPool creates a pool from cfg. Zero fields take their defaults.
func NewAdaptiveItemPool[C PoolItem](cfg PoolConfig) (*AdaptiveItemPool[C], error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AdaptiveItemPool[C]{
		cfg:          cfg,
		now:          now,
		log:          Logger(),
		targetSize:   cfg.TargetSize,
		maxSize:      cfg.TargetSize * 2,
		available:    make([]C, 0, cfg.TargetSize*2),
		lent:         make(map[C]struct{}, cfg.TargetSize*2),
		history:      make([]float64, 0, cfg.HistorySize),
		lastOptimize: now(),
	}, nil
}

// SetLogger replaces the pool's logger.
func (p *AdaptiveItemPool[C]) SetLogger(l *zap.Logger) {
	p.log = l
}

// GetOrCreateItem hands out a container, reusing the most recently returned
// one when possible and calling create otherwise. It fails only when create
// does; such failures are reported as PanelOperationFailed unless create
// already returned a list error.
func (p *AdaptiveItemPool[C]) GetOrCreateItem(create func() (C, error)) (C, error) {
	p.totalRequests++

	if n := len(p.available); n > 0 {
		item := p.available[n-1]
		var zero C
		p.available[n-1] = zero
		p.available = p.available[:n-1]
		item.Show()
		p.totalReused++
		p.lent[item] = struct{}{}
		return item, nil
	}

	item, err := create()
	if err != nil {
		var zero C
		return zero, Wrap(KindPanelOperation, "create", err)
	}
	item.Show()
	p.totalCreated++
	p.lent[item] = struct{}{}

	p.MaybeOptimize()
	return item, nil
}

// ReturnItem takes a container back. The container is hidden and, if it
// implements Poolable, reset. It is queued for reuse while the free list is
// below the cap and discarded otherwise.
//
// Returning a container this pool did not hand out, or returning one twice,
// yields a PoolError and the container is not queued.
func (p *AdaptiveItemPool[C]) ReturnItem(item C) error {
	if !p.lends(item) {
		item.Hide()
		return PoolError("return", "item was not issued by this pool or was already returned")
	}
	delete(p.lent, item)

	item.Hide()
	if r, ok := any(item).(Poolable); ok {
		r.Reset()
	}

	if len(p.available) < p.maxSize {
		p.available = append(p.available, item)
		return nil
	}
	p.totalDiscarded++
	return nil
}

// Prewarm creates containers until the free list holds min(n, max) of them.
func (p *AdaptiveItemPool[C]) Prewarm(n int, create func() (C, error)) error {
	n = min(n, p.maxSize)
	for len(p.available) < n {
		item, err := create()
		if err != nil {
			return Wrap(KindResource, "item container", err)
		}
		item.Hide()
		p.totalCreated++
		p.available = append(p.available, item)
	}
	return nil
}

// MaybeOptimize retunes the target size if the optimize interval has elapsed
// since the last run. It reports whether an optimization pass ran.
func (p *AdaptiveItemPool[C]) MaybeOptimize() bool {
	now := p.now()
	if now.Sub(p.lastOptimize) < p.cfg.OptimizeInterval {
		return false
	}
	p.lastOptimize = now
	p.optimize(p.hitRate())
	return true
}

// optimize records one hit-rate sample and adjusts the target size from the
// mean of the sample window.
func (p *AdaptiveItemPool[C]) optimize(sample float64) {
	if len(p.history) == p.cfg.HistorySize {
		copy(p.history, p.history[1:])
		p.history = p.history[:len(p.history)-1]
	}
	p.history = append(p.history, sample)

	mean := p.recentHitRate()
	target := p.cfg.EfficiencyTarget
	old := p.targetSize

	switch {
	case mean < target-optimizeBand:
		p.targetSize = min(p.targetSize+p.cfg.GrowStep, p.maxSize)
	case mean > target+optimizeBand && p.targetSize > p.cfg.MinTargetSize:
		p.targetSize = max(p.targetSize-p.cfg.ShrinkStep, p.cfg.MinTargetSize)
		if p.cfg.EvictOnShrink {
			p.trimTo(p.targetSize)
		}
	}

	if p.targetSize != old {
		p.log.Debug("pool target resized",
			zap.Int("from", old),
			zap.Int("to", p.targetSize),
			zap.Float64("mean_hit_rate", mean))
	}
}

const optimizeBand = 0.1

// trimTo discards idle containers, oldest first, until at most n remain.
func (p *AdaptiveItemPool[C]) trimTo(n int) {
	excess := len(p.available) - n
	if excess <= 0 {
		return
	}
	for _, item := range p.available[:excess] {
		item.Hide()
	}
	p.totalDiscarded += uint64(excess)
	p.available = append(p.available[:0], p.available[excess:]...)
}

// ClearAll hides and drops every idle container and forgets lent ones. The
// sample window and optimizer timer restart; configuration and cumulative
// counters are kept.
func (p *AdaptiveItemPool[C]) ClearAll() {
	for _, item := range p.available {
		item.Hide()
	}
	clear(p.available)
	p.available = p.available[:0]
	clear(p.lent)
	p.history = p.history[:0]
	p.lastOptimize = p.now()
}

// Stats returns a snapshot of the pool counters.
func (p *AdaptiveItemPool[C]) Stats() PoolStats {
	s := PoolStats{
		TargetSize:     p.targetSize,
		MaxSize:        p.maxSize,
		Available:      len(p.available),
		Lent:           len(p.lent),
		TotalCreated:   p.totalCreated,
		TotalReused:    p.totalReused,
		TotalRequests:  p.totalRequests,
		TotalDiscarded: p.totalDiscarded,
		HitRate:        p.hitRate(),
		RecentHitRate:  p.recentHitRate(),
	}
	sizeEfficiency := 1 - float64(s.Available)/float64(s.MaxSize)
	s.EfficiencyScore = 0.7*s.HitRate + 0.3*sizeEfficiency
	s.Utilization = float64(s.Available) / float64(s.TargetSize)
	return s
}

// lends reports whether item is currently lent out by this pool.
func (p *AdaptiveItemPool[C]) lends(item C) bool {
	_, ok := p.lent[item]
	return ok
}

func (p *AdaptiveItemPool[C]) hitRate() float64 {
	if p.totalRequests == 0 {
		return 0
	}
	return float64(p.totalReused) / float64(p.totalRequests)
}

func (p *AdaptiveItemPool[C]) recentHitRate() float64 {
	if len(p.history) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.history {
		sum += v
	}
	return sum / float64(len(p.history))
}
