package vlist

import (
	"testing"
	"time"
)

type testItem struct {
	id      int
	visible bool
	resets  int
}

func (i *testItem) Show()         { i.visible = true }
func (i *testItem) Hide()         { i.visible = false }
func (i *testItem) Visible() bool { return i.visible }
func (i *testItem) Reset()        { i.resets++ }

// countingFactory creates numbered items and counts calls.
type countingFactory struct {
	calls int
}

func (f *countingFactory) create() (*testItem, error) {
	f.calls++
	return &testItem{id: f.calls}, nil
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPool(t *testing.T, cfg PoolConfig) (*AdaptiveItemPool[*testItem], *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	cfg.Now = clock.Now
	p, err := NewAdaptiveItemPool[*testItem](cfg)
	if err != nil {
		t.Fatalf("NewAdaptiveItemPool: %v", err)
	}
	return p, clock
}

func acquireN(t *testing.T, p *AdaptiveItemPool[*testItem], f *countingFactory, n int) []*testItem {
	t.Helper()
	items := make([]*testItem, n)
	for i := range items {
		item, err := p.GetOrCreateItem(f.create)
		if err != nil {
			t.Fatalf("GetOrCreateItem: %v", err)
		}
		items[i] = item
	}
	return items
}

func returnAll(t *testing.T, p *AdaptiveItemPool[*testItem], items []*testItem) {
	t.Helper()
	for _, item := range items {
		if err := p.ReturnItem(item); err != nil {
			t.Fatalf("ReturnItem: %v", err)
		}
	}
}

func TestPoolReuse(t *testing.T) {
	p, _ := newTestPool(t, PoolConfig{TargetSize: 8})
	f := &countingFactory{}

	first := acquireN(t, p, f, 8)
	seen := map[*testItem]bool{}
	for _, item := range first {
		if seen[item] {
			t.Fatalf("item %d handed out twice", item.id)
		}
		seen[item] = true
		if !item.Visible() {
			t.Errorf("acquired item %d should be visible", item.id)
		}
	}

	s := p.Stats()
	if s.TotalCreated != 8 || s.HitRate != 0 {
		t.Fatalf("after first round: created=%d hit=%v, want 8 and 0", s.TotalCreated, s.HitRate)
	}
	if s.MaxSize != 16 {
		t.Errorf("MaxSize = %d, want 16", s.MaxSize)
	}

	returnAll(t, p, first)
	for _, item := range first {
		if item.Visible() {
			t.Errorf("returned item %d should be hidden", item.id)
		}
		if item.resets != 1 {
			t.Errorf("returned item %d reset %d times, want 1", item.id, item.resets)
		}
	}

	second := acquireN(t, p, f, 8)
	for _, item := range second {
		if !seen[item] {
			t.Errorf("expected a reused item, got new item %d", item.id)
		}
	}

	s = p.Stats()
	if s.TotalReused != 8 || s.TotalCreated != 8 || s.HitRate != 0.5 {
		t.Errorf("after second round: reused=%d created=%d hit=%v, want 8, 8, 0.5",
			s.TotalReused, s.TotalCreated, s.HitRate)
	}
	if s.TargetSize != 8 {
		t.Errorf("target changed without the optimize interval elapsing: %d", s.TargetSize)
	}
}

func TestPoolLIFO(t *testing.T) {
	p, _ := newTestPool(t, PoolConfig{TargetSize: 4})
	f := &countingFactory{}

	items := acquireN(t, p, f, 3)
	returnAll(t, p, items)

	got, _ := p.GetOrCreateItem(f.create)
	if got != items[2] {
		t.Errorf("expected most recently returned item %d, got %d", items[2].id, got.id)
	}
}

func TestPoolCap(t *testing.T) {
	t.Run("excess returns are discarded", func(t *testing.T) {
		p, _ := newTestPool(t, PoolConfig{TargetSize: 8})
		f := &countingFactory{}

		items := acquireN(t, p, f, 20)
		returnAll(t, p, items)

		s := p.Stats()
		if s.Available != 16 {
			t.Errorf("Available = %d, want 16", s.Available)
		}
		if s.TotalDiscarded != 4 {
			t.Errorf("TotalDiscarded = %d, want 4", s.TotalDiscarded)
		}

		again := acquireN(t, p, f, 20)
		seen := map[*testItem]bool{}
		for _, item := range again {
			if seen[item] {
				t.Fatalf("item %d handed out twice", item.id)
			}
			seen[item] = true
		}
		for _, item := range items[16:] {
			if seen[item] {
				t.Errorf("discarded item %d came back", item.id)
			}
		}
	})

	t.Run("returns beyond what was lent are rejected", func(t *testing.T) {
		p, _ := newTestPool(t, PoolConfig{TargetSize: 8})
		f := &countingFactory{}

		items := acquireN(t, p, f, 16)
		returnAll(t, p, items)

		for i := 0; i < 4; i++ {
			err := p.ReturnItem(&testItem{id: 100 + i})
			if !IsKind(err, KindPool) {
				t.Errorf("foreign return %d: got %v, want PoolError", i, err)
			}
		}
		if s := p.Stats(); s.Available != 16 {
			t.Errorf("Available = %d, want 16", s.Available)
		}
	})
}

func TestPoolDoubleReturn(t *testing.T) {
	p, _ := newTestPool(t, PoolConfig{TargetSize: 4})
	f := &countingFactory{}

	item, _ := p.GetOrCreateItem(f.create)
	if !p.lends(item) {
		t.Fatal("expected pool to own a lent item")
	}
	if err := p.ReturnItem(item); err != nil {
		t.Fatalf("first return: %v", err)
	}
	err := p.ReturnItem(item)
	if !IsKind(err, KindPool) {
		t.Fatalf("second return: got %v, want PoolError", err)
	}
	if s := p.Stats(); s.Available != 1 {
		t.Errorf("Available = %d, want 1", s.Available)
	}

	a, _ := p.GetOrCreateItem(f.create)
	b, _ := p.GetOrCreateItem(f.create)
	if a == b {
		t.Error("double return produced a duplicate hand-out")
	}
}

func TestPoolBound(t *testing.T) {
	p, _ := newTestPool(t, PoolConfig{TargetSize: 4})
	f := &countingFactory{}

	var lent []*testItem
	// deterministic mix of acquires and returns
	for step := 0; step < 500; step++ {
		if step%7 < 4 || len(lent) == 0 {
			lent = append(lent, acquireN(t, p, f, 1+step%5)...)
		} else {
			n := min(len(lent), 1+step%9)
			returnAll(t, p, lent[:n])
			lent = lent[n:]
		}
		if s := p.Stats(); s.Available > s.MaxSize {
			t.Fatalf("step %d: Available %d exceeds MaxSize %d", step, s.Available, s.MaxSize)
		}
	}
}

func TestPoolConservation(t *testing.T) {
	p, _ := newTestPool(t, PoolConfig{TargetSize: 8})
	f := &countingFactory{}

	items := acquireN(t, p, f, 10)
	returnAll(t, p, items)

	back := map[*testItem]bool{}
	for _, item := range acquireN(t, p, f, 10) {
		back[item] = true
	}
	for _, item := range items {
		if !back[item] {
			t.Errorf("returned item %d was not handed out again", item.id)
		}
	}
	if f.calls != 10 {
		t.Errorf("factory called %d times, want 10", f.calls)
	}
}

func TestPoolHitRateSteadyLoad(t *testing.T) {
	p, _ := newTestPool(t, PoolConfig{TargetSize: 8})
	f := &countingFactory{}

	prev := -1.0
	for round := 0; round < 50; round++ {
		items := acquireN(t, p, f, 6)
		returnAll(t, p, items)

		hr := p.Stats().HitRate
		if hr < prev {
			t.Fatalf("round %d: hit rate dropped from %v to %v", round, prev, hr)
		}
		prev = hr
	}
	if prev < 0.95 {
		t.Errorf("hit rate after 50 rounds = %v, want close to 1", prev)
	}
	if f.calls != 6 {
		t.Errorf("factory called %d times, want 6", f.calls)
	}
}

func TestPoolOptimizer(t *testing.T) {
	t.Run("time gated", func(t *testing.T) {
		p, clock := newTestPool(t, PoolConfig{TargetSize: 8})

		if p.MaybeOptimize() {
			t.Error("optimizer ran before the interval elapsed")
		}
		clock.Advance(4 * time.Second)
		if p.MaybeOptimize() {
			t.Error("optimizer ran after 4s")
		}
		clock.Advance(time.Second)
		if !p.MaybeOptimize() {
			t.Error("optimizer did not run after 5s")
		}
		if p.MaybeOptimize() {
			t.Error("optimizer ran twice without time passing")
		}
	})

	t.Run("miss path runs the optimizer", func(t *testing.T) {
		p, clock := newTestPool(t, PoolConfig{TargetSize: 8})
		f := &countingFactory{}

		clock.Advance(6 * time.Second)
		acquireN(t, p, f, 1)
		// one miss, hit rate 0, below 0.7
		if got := p.Stats().TargetSize; got != 10 {
			t.Errorf("TargetSize = %d, want 10", got)
		}
	})

	t.Run("converges to max", func(t *testing.T) {
		p, _ := newTestPool(t, PoolConfig{TargetSize: 8})

		prev := p.Stats().TargetSize
		for i := 0; i < 20; i++ {
			p.optimize(0.5)
			cur := p.Stats().TargetSize
			if cur < prev {
				t.Fatalf("target shrank from %d to %d on low hit rate", prev, cur)
			}
			prev = cur
		}
		if prev != 16 {
			t.Errorf("TargetSize = %d, want 16", prev)
		}
	})

	t.Run("never below floor", func(t *testing.T) {
		p, _ := newTestPool(t, PoolConfig{TargetSize: 8})

		for i := 0; i < 50; i++ {
			p.optimize(1.0)
			if got := p.Stats().TargetSize; got < 4 {
				t.Fatalf("TargetSize = %d, below floor", got)
			}
		}
		if got := p.Stats().TargetSize; got != 4 {
			t.Errorf("TargetSize = %d, want 4", got)
		}
	})

	t.Run("holds inside band", func(t *testing.T) {
		p, _ := newTestPool(t, PoolConfig{TargetSize: 8})

		for i := 0; i < 20; i++ {
			p.optimize(0.8)
		}
		if got := p.Stats().TargetSize; got != 8 {
			t.Errorf("TargetSize = %d, want 8", got)
		}
	})

	t.Run("history window", func(t *testing.T) {
		p, _ := newTestPool(t, PoolConfig{TargetSize: 8, HistorySize: 3})

		for _, s := range []float64{0, 0, 0, 0.9, 0.9, 0.9} {
			p.optimize(s)
		}
		if got := p.Stats().RecentHitRate; got < 0.899 || got > 0.901 {
			t.Errorf("RecentHitRate = %v, want 0.9", got)
		}
	})

	t.Run("evict on shrink", func(t *testing.T) {
		p, _ := newTestPool(t, PoolConfig{TargetSize: 8, EvictOnShrink: true})
		f := &countingFactory{}

		items := acquireN(t, p, f, 12)
		returnAll(t, p, items)

		p.optimize(1.0)
		s := p.Stats()
		if s.TargetSize != 7 || s.Available != 7 {
			t.Errorf("target=%d available=%d, want 7 and 7", s.TargetSize, s.Available)
		}
		if s.TotalDiscarded != 5 {
			t.Errorf("TotalDiscarded = %d, want 5", s.TotalDiscarded)
		}
	})

	t.Run("lazy shrink keeps idle items", func(t *testing.T) {
		p, _ := newTestPool(t, PoolConfig{TargetSize: 8})
		f := &countingFactory{}

		items := acquireN(t, p, f, 12)
		returnAll(t, p, items)

		p.optimize(1.0)
		if s := p.Stats(); s.TargetSize != 7 || s.Available != 12 {
			t.Errorf("target=%d available=%d, want 7 and 12", s.TargetSize, s.Available)
		}
	})
}

func TestPoolClearAll(t *testing.T) {
	p, clock := newTestPool(t, PoolConfig{TargetSize: 8})
	f := &countingFactory{}

	items := acquireN(t, p, f, 5)
	returnAll(t, p, items)
	acquireN(t, p, f, 3)
	before := p.Stats()

	clock.Advance(time.Minute)
	p.ClearAll()

	s := p.Stats()
	if s.Available != 0 || s.Lent != 0 {
		t.Errorf("available=%d lent=%d, want 0 and 0", s.Available, s.Lent)
	}
	if s.TotalCreated != before.TotalCreated || s.TotalReused != before.TotalReused {
		t.Errorf("counters changed: created %d->%d reused %d->%d",
			before.TotalCreated, s.TotalCreated, before.TotalReused, s.TotalReused)
	}
	if p.MaybeOptimize() {
		t.Error("ClearAll should restart the optimizer timer")
	}
}

func TestPoolPrewarm(t *testing.T) {
	p, _ := newTestPool(t, PoolConfig{TargetSize: 4})
	f := &countingFactory{}

	if err := p.Prewarm(20, f.create); err != nil {
		t.Fatalf("Prewarm: %v", err)
	}
	s := p.Stats()
	if s.Available != 8 || s.TotalCreated != 8 {
		t.Errorf("available=%d created=%d, want 8 and 8", s.Available, s.TotalCreated)
	}

	item, _ := p.GetOrCreateItem(f.create)
	if f.calls != 8 || !item.Visible() {
		t.Errorf("expected a prewarmed, visible item; factory calls=%d", f.calls)
	}
}

func TestPoolCreateFailure(t *testing.T) {
	p, _ := newTestPool(t, PoolConfig{TargetSize: 4})

	_, err := p.GetOrCreateItem(func() (*testItem, error) {
		return nil, errTest
	})
	if !IsKind(err, KindPanelOperation) {
		t.Errorf("got %v, want PanelOperationFailed", err)
	}

	err = p.Prewarm(2, func() (*testItem, error) {
		return nil, ResourceError("item container", "out of handles")
	})
	if !IsKind(err, KindResource) {
		t.Errorf("Prewarm: got %v, want ResourceError", err)
	}
}

func TestPoolConfigValidation(t *testing.T) {
	tests := []PoolConfig{
		{TargetSize: -1},
		{EfficiencyTarget: 1.5},
		{OptimizeInterval: -time.Second},
		{GrowStep: -1},
	}
	for _, cfg := range tests {
		if _, err := NewAdaptiveItemPool[*testItem](cfg); !IsKind(err, KindInvalidConfig) {
			t.Errorf("%+v: got %v, want InvalidConfig", cfg, err)
		}
	}
}
