package vlist

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// State is the phase of the list's control loop.
type State uint8

const (
	StateIdle        State = iota // waiting for a viewport-affecting event
	StateReconciling              // computing the range and rebinding containers
	StateBound                    // containers bound, ready to render
	StateFailed                   // a fatal error stopped the list
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReconciling:
		return "reconciling"
	case StateBound:
		return "bound"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Range is an inclusive range of item indices. It is empty when Last < First.
type Range struct {
	First, Last int
}

// Empty reports whether the range holds no index.
func (r Range) Empty() bool {
	return r.Last < r.First
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains reports whether index is inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.First && index <= r.Last
}

// Placement is where one item sits relative to the top of the viewport.
// Y is negative for items partly scrolled off the top, and for overscan items.
type Placement[C PoolItem] struct {
	Index  int
	Y      int
	Height int
	Item   C
	Bound  bool // false when no container could be bound (blank row)
}

type placement struct {
	index  int
	y      int
	height int
}

type binding[C PoolItem] struct {
	item   C
	pooled bool
}

// VirtualList displays the rows of a DataSource inside a fixed viewport,
// binding containers only for the rows in view. Containers come from an
// AdaptiveItemPool and, in DynamicSize mode, row extents from an ExtentCache.
//
// Scroll position is kept as an anchor: the index of the first row
// intersecting the viewport and how many of its lines are scrolled above the
// top. Every operation costs work proportional to the viewport, never to the
// item count.
//
// A VirtualList is not safe for concurrent use; drive it from the UI loop.
type VirtualList[T any, C PoolItem] struct {
	Base

	cfg      Config
	source   DataSource[T]
	renderer ItemRenderer[T, C]
	measurer ItemMeasurer[T]
	pool     *AdaptiveItemPool[C]
	cache    *ExtentCache
	theme    Theme
	log      *zap.Logger

	// scroll anchor
	top       int
	topOffset int

	viewportW int
	viewportH int
	count     int

	placements []placement
	visible    Range
	bound      map[int]binding[C]
	scratch    *Buffer

	state      State
	fatal      error
	errs       []error
	lastErrs   error
	bypassPool bool

	// per pass: rebind every bound item from rebindFrom on (-1: none), and
	// items whose measurement already failed
	rebindFrom int
	failed     map[int]struct{}
}

// NewVirtualList creates a list over src rendered by r. Configuration
// problems are reported as InvalidConfig.
func NewVirtualList[T any, C PoolItem](cfg Config, src DataSource[T], r ItemRenderer[T, C]) (*VirtualList[T, C], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, InvalidConfig("data source is required")
	}
	if r == nil {
		return nil, InvalidConfig("item renderer is required")
	}

	v := &VirtualList[T, C]{
		cfg:      cfg,
		source:   src,
		renderer: r,
		log:      Logger(),
		bound:    make(map[int]binding[C]),
		scratch:  NewBuffer(0, 0),
		visible:  Range{0, -1},
		failed:   make(map[int]struct{}),
	}
	m, err := measurerFor(r, cfg.Sizing)
	if err != nil {
		return nil, err
	}
	v.measurer = m
	if v.pool, v.cache, v.theme, err = v.buildStores(cfg); err != nil {
		return nil, err
	}
	return v, nil
}

// buildStores creates the pool, cache and theme for cfg without touching
// the list.
func (v *VirtualList[T, C]) buildStores(cfg Config) (*AdaptiveItemPool[C], *ExtentCache, Theme, error) {
	pool, err := NewAdaptiveItemPool[C](cfg.Pool)
	if err != nil {
		return nil, nil, Theme{}, err
	}
	cache, err := NewExtentCache(cfg.Cache.Capacity)
	if err != nil {
		return nil, nil, Theme{}, err
	}
	theme, err := ThemeByName(cfg.Theme)
	if err != nil {
		return nil, nil, Theme{}, err
	}
	pool.SetLogger(v.log)
	return pool, cache, theme, nil
}

func measurerFor[T any, C PoolItem](r ItemRenderer[T, C], mode SizingMode) (ItemMeasurer[T], error) {
	m, ok := r.(ItemMeasurer[T])
	if mode == DynamicSize && !ok {
		return nil, InvalidConfig("dynamic sizing requires a renderer implementing ItemMeasurer")
	}
	return m, nil
}

// Start prepares the list for running. With pool prewarming enabled it
// creates the pool's target number of containers up front; a failure there is
// fatal and leaves the list in StateFailed.
func (v *VirtualList[T, C]) Start() error {
	if v.state == StateFailed {
		return v.fatal
	}
	if !v.cfg.Pool.Prewarm {
		return nil
	}
	if err := v.pool.Prewarm(v.pool.Stats().TargetSize, v.createItem); err != nil {
		v.fail(err)
		return err
	}
	return nil
}

// SetLogger replaces the logger used by the list and its pool.
func (v *VirtualList[T, C]) SetLogger(l *zap.Logger) {
	v.log = l
	v.pool.SetLogger(l)
}

// SetDataSource replaces the data source. Bound containers are released, the
// pool is cleared, the geometry cache purged and the list scrolled to the top.
func (v *VirtualList[T, C]) SetDataSource(src DataSource[T]) error {
	if src == nil {
		return InvalidConfig("data source is required")
	}
	return v.update(func() {
		v.releaseAll()
		v.pool.ClearAll()
		v.cache.Purge()
		v.source = src
		v.top, v.topOffset = 0, 0
	})
}

// SetItemRenderer replaces the renderer. Containers made by the old renderer
// are dropped.
func (v *VirtualList[T, C]) SetItemRenderer(r ItemRenderer[T, C]) error {
	if r == nil {
		return InvalidConfig("item renderer is required")
	}
	if v.state == StateFailed {
		return v.fatal
	}
	m, err := measurerFor(r, v.cfg.Sizing)
	if err != nil {
		return err
	}
	return v.update(func() {
		v.releaseAll()
		v.pool.ClearAll()
		v.cache.Purge()
		v.renderer = r
		v.measurer = m
	})
}

// SetItemSizingMode switches between fixed and measured item extents.
func (v *VirtualList[T, C]) SetItemSizingMode(mode SizingMode) error {
	if mode != FixedSize && mode != DynamicSize {
		return InvalidConfig(fmt.Sprintf("unknown sizing mode %d", mode))
	}
	if v.state == StateFailed {
		return v.fatal
	}
	m, err := measurerFor(v.renderer, mode)
	if err != nil {
		return err
	}
	return v.update(func() {
		v.cfg.Sizing = mode
		v.measurer = m
		v.cache.Purge()
		v.rebindFrom = 0
	})
}

// ItemSizingMode returns the current sizing mode.
func (v *VirtualList[T, C]) ItemSizingMode() SizingMode {
	return v.cfg.Sizing
}

// ApplyConfig swaps in a new configuration, rebuilding pool and cache. On
// error the list keeps its current configuration and bound items.
func (v *VirtualList[T, C]) ApplyConfig(cfg Config) error {
	if v.state == StateFailed {
		return v.fatal
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m, err := measurerFor(v.renderer, cfg.Sizing)
	if err != nil {
		return err
	}
	pool, cache, theme, err := v.buildStores(cfg)
	if err != nil {
		return err
	}

	v.releaseAll()
	v.pool.ClearAll()
	v.pool, v.cache, v.theme = pool, cache, theme
	v.measurer = m
	v.cfg = cfg
	if err := v.Start(); err != nil {
		return err
	}
	return v.SetViewport(v.width, v.height)
}

// Theme returns the active theme.
func (v *VirtualList[T, C]) Theme() Theme {
	return v.theme
}

// Config returns the active configuration.
func (v *VirtualList[T, C]) Config() Config {
	return v.cfg
}

// SetConstraints implements Component. Errors are logged; use SetViewport to
// receive them.
func (v *VirtualList[T, C]) SetConstraints(width, height int) {
	_ = v.SetViewport(width, height)
}

// SetViewport resizes the list and reconciles the visible rows.
func (v *VirtualList[T, C]) SetViewport(width, height int) error {
	v.Base.SetConstraints(width, height)
	innerW := width
	if v.cfg.Scrollbar {
		innerW--
	}
	innerW = max(innerW, 0)
	height = max(height, 0)

	return v.update(func() {
		if innerW != v.viewportW {
			// content laid out for the old width
			if v.cfg.Sizing == DynamicSize {
				v.cache.Purge()
			}
			v.rebindFrom = 0
		}
		v.viewportW, v.viewportH = innerW, height
		v.scratch.Resize(innerW, height)
	})
}

// ScrollBy scrolls by delta lines (positive = down).
func (v *VirtualList[T, C]) ScrollBy(delta int) error {
	return v.update(func() {
		v.topOffset += delta
	})
}

// ScrollTo anchors the item at index to the top of the viewport, as far as
// the end of the list allows.
func (v *VirtualList[T, C]) ScrollTo(index int) error {
	return v.update(func() {
		v.top, v.topOffset = max(index, 0), 0
	})
}

// ScrollToTop scrolls to the first item.
func (v *VirtualList[T, C]) ScrollToTop() error {
	return v.ScrollTo(0)
}

// ScrollToBottom scrolls so the last item's bottom meets the viewport bottom.
func (v *VirtualList[T, C]) ScrollToBottom() error {
	return v.update(func() {
		v.top, v.topOffset = v.maxAnchor()
	})
}

// PageDown scrolls down by one viewport.
func (v *VirtualList[T, C]) PageDown() error {
	return v.ScrollBy(max(v.viewportH, 1))
}

// PageUp scrolls up by one viewport.
func (v *VirtualList[T, C]) PageUp() error {
	return v.ScrollBy(-max(v.viewportH, 1))
}

// Refresh rebinds every bound container, for data that changed in place.
// In DynamicSize mode cached extents are dropped too.
func (v *VirtualList[T, C]) Refresh() error {
	return v.update(func() {
		if v.cfg.Sizing == DynamicSize {
			v.cache.Purge()
		}
		v.rebindFrom = 0
	})
}

// InvalidateItem rebinds and, in DynamicSize mode, re-measures one item.
func (v *VirtualList[T, C]) InvalidateItem(index int) error {
	if index < 0 || index >= v.source.ItemCount() {
		return InvalidIndex(index, v.source.ItemCount())
	}
	return v.update(func() {
		v.cache.Invalidate(index)
		if b, ok := v.bound[index]; ok {
			v.bind(index, b.item)
		}
	})
}

// InvalidateFrom rebinds and, in DynamicSize mode, re-measures every item at
// or after index. Call it after inserting or removing items, which shifts the
// items that follow. index may equal the item count when items were removed
// from the end.
func (v *VirtualList[T, C]) InvalidateFrom(index int) error {
	if n := v.source.ItemCount(); index < 0 || index > n {
		return InvalidIndex(index, n)
	}
	return v.update(func() {
		v.cache.InvalidateFrom(index)
		v.rebindFrom = index
	})
}

// ScrollPosition returns the scroll anchor: the first visible item and how
// many of its lines are above the viewport.
func (v *VirtualList[T, C]) ScrollPosition() (index, offset int) {
	return v.top, v.topOffset
}

// VisibleRange returns the items intersecting the viewport, overscan excluded.
func (v *VirtualList[T, C]) VisibleRange() Range {
	return v.visible
}

// Len returns the item count seen by the last pass.
func (v *VirtualList[T, C]) Len() int {
	return v.count
}

// Placements returns the laid-out items of the last pass, overscan included,
// in index order.
func (v *VirtualList[T, C]) Placements() []Placement[C] {
	out := make([]Placement[C], len(v.placements))
	for i, p := range v.placements {
		b, ok := v.bound[p.index]
		out[i] = Placement[C]{Index: p.index, Y: p.y, Height: p.height, Item: b.item, Bound: ok}
	}
	return out
}

// ItemAt returns the index of the item drawn at viewport row y.
func (v *VirtualList[T, C]) ItemAt(y int) (int, bool) {
	if y < 0 || y >= v.viewportH {
		return 0, false
	}
	for _, p := range v.placements {
		if y >= p.y && y < p.y+p.height {
			return p.index, true
		}
	}
	return 0, false
}

// State returns the control loop phase.
func (v *VirtualList[T, C]) State() State {
	return v.state
}

// LastErrors returns the recoverable errors of the last pass combined with
// multierr, or nil.
func (v *VirtualList[T, C]) LastErrors() error {
	return v.lastErrs
}

// PoolStats returns the item pool counters.
func (v *VirtualList[T, C]) PoolStats() PoolStats {
	return v.pool.Stats()
}

// CacheStats returns the geometry cache counters.
func (v *VirtualList[T, C]) CacheStats() CacheStats {
	return v.cache.Stats()
}

// update runs one pass of the control loop: apply the event, lay out the
// viewport and reconcile bound containers against it.
func (v *VirtualList[T, C]) update(event func()) error {
	if v.state == StateFailed {
		return v.fatal
	}
	v.state = StateReconciling
	v.errs = nil
	v.bypassPool = false
	v.rebindFrom = -1
	clear(v.failed)

	v.count = v.itemCount()
	if event != nil {
		event()
		v.count = v.itemCount()
	}
	v.normalize()
	v.layout()
	if err := v.reconcile(); err != nil {
		return err
	}

	if v.cfg.OptimizeOnFrame {
		v.pool.MaybeOptimize()
	}

	v.lastErrs = multierr.Combine(v.errs...)
	v.state = StateBound
	return v.lastErrs
}

func (v *VirtualList[T, C]) itemCount() int {
	n := v.source.ItemCount()
	if n < 0 {
		v.record(DataSourceError(fmt.Sprintf("negative item count %d", n)))
		return 0
	}
	return n
}

// normalize brings the anchor back into range: 0 <= topOffset < extent(top),
// and no further down than the end of the list allows.
func (v *VirtualList[T, C]) normalize() {
	if v.count == 0 || v.viewportH <= 0 {
		v.top, v.topOffset = min(max(v.top, 0), max(v.count-1, 0)), 0
		return
	}
	if v.top >= v.count {
		v.top, v.topOffset = v.count-1, 0
	}
	if v.top < 0 {
		v.top, v.topOffset = 0, 0
	}

	for v.topOffset < 0 && v.top > 0 {
		v.top--
		v.topOffset += v.extent(v.top)
	}
	if v.topOffset < 0 {
		v.topOffset = 0
	}
	for v.top < v.count-1 {
		h := v.extent(v.top)
		if v.topOffset < h {
			break
		}
		v.topOffset -= h
		v.top++
	}

	maxTop, maxOff := v.maxAnchor()
	if v.top > maxTop || (v.top == maxTop && v.topOffset > maxOff) {
		v.top, v.topOffset = maxTop, maxOff
	}
}

// maxAnchor returns the furthest anchor that still fills the viewport,
// walking back from the last item.
func (v *VirtualList[T, C]) maxAnchor() (int, int) {
	remaining := v.viewportH
	if v.count == 0 || remaining <= 0 {
		return 0, 0
	}
	for i := v.count - 1; i >= 0; i-- {
		h := v.extent(i)
		if h >= remaining {
			return i, h - remaining
		}
		remaining -= h
	}
	return 0, 0
}

// layout computes placements for the viewport plus overscan.
func (v *VirtualList[T, C]) layout() {
	v.placements = v.placements[:0]
	v.visible = Range{v.top, v.top - 1}
	if v.count == 0 || v.viewportH <= 0 {
		return
	}

	// overscan above, nearest first
	y := -v.topOffset
	for k := 1; k <= v.cfg.Overscan && v.top-k >= 0; k++ {
		idx := v.top - k
		h := v.extent(idx)
		y -= h
		v.placements = append(v.placements, placement{index: idx, y: y, height: h})
	}
	slices.Reverse(v.placements)

	y = -v.topOffset
	i := v.top
	for ; i < v.count && y < v.viewportH; i++ {
		h := v.extent(i)
		v.placements = append(v.placements, placement{index: i, y: y, height: h})
		y += h
	}
	v.visible = Range{v.top, i - 1}

	for k := 0; k < v.cfg.Overscan && i+k < v.count; k++ {
		h := v.extent(i + k)
		v.placements = append(v.placements, placement{index: i + k, y: y, height: h})
		y += h
	}
}

// reconcile releases containers for items that left the layout before
// acquiring containers for items that entered it, so a just-vacated container
// can serve a new item in the same pass. Items bound in both are not rebound.
func (v *VirtualList[T, C]) reconcile() error {
	lo, hi := 0, -1
	if n := len(v.placements); n > 0 {
		lo, hi = v.placements[0].index, v.placements[n-1].index
	}

	for _, idx := range v.boundIndices() {
		if idx < lo || idx > hi {
			v.release(v.bound[idx])
			delete(v.bound, idx)
		}
	}

	for _, p := range v.placements {
		b, bound := v.bound[p.index]
		if !bound {
			var err error
			b, err = v.acquire()
			if err != nil {
				if IsKind(err, KindResource) {
					v.fail(err)
					return err
				}
				v.record(err)
				continue
			}
			v.bound[p.index] = b
		}
		if s, ok := any(b.item).(interface{ SetConstraints(int, int) }); ok {
			s.SetConstraints(v.viewportW, p.height)
		}
		if !bound || (v.rebindFrom >= 0 && p.index >= v.rebindFrom) {
			v.bind(p.index, b.item)
		}
	}
	return nil
}

func (v *VirtualList[T, C]) createItem() (C, error) {
	return v.renderer.CreateItem(v)
}

func (v *VirtualList[T, C]) acquire() (binding[C], error) {
	if v.bypassPool {
		item, err := v.createItem()
		if err != nil {
			return binding[C]{}, Wrap(KindPanelOperation, "create", err)
		}
		item.Show()
		return binding[C]{item: item}, nil
	}
	item, err := v.pool.GetOrCreateItem(v.createItem)
	if err != nil {
		return binding[C]{}, err
	}
	return binding[C]{item: item, pooled: true}, nil
}

func (v *VirtualList[T, C]) release(b binding[C]) {
	if !b.pooled {
		b.item.Hide()
		if r, ok := any(b.item).(Poolable); ok {
			r.Reset()
		}
		return
	}
	if err := v.pool.ReturnItem(b.item); err != nil {
		v.defect(err)
	}
}

func (v *VirtualList[T, C]) releaseAll() {
	for _, idx := range v.boundIndices() {
		v.release(v.bound[idx])
	}
	clear(v.bound)
}

// bind fetches the data for index and hands it to the renderer. Failures are
// recorded; the container stays bound with whatever content it got.
func (v *VirtualList[T, C]) bind(index int, item C) {
	data, err := v.source.ItemData(index)
	if err != nil {
		v.record(Wrap(KindDataSource, fmt.Sprintf("item %d", index), err))
		return
	}
	if err := v.renderer.UpdateItem(item, index, data); err != nil {
		if !IsKind(err, KindRenderer) {
			err = RendererError(index, "update_item", err.Error())
		}
		v.record(err)
	}
}

// extent returns the number of lines item index occupies.
func (v *VirtualList[T, C]) extent(index int) int {
	if v.cfg.Sizing == FixedSize {
		return v.cfg.ItemExtent
	}
	if h, ok := v.cache.Get(index); ok {
		return h
	}
	if _, ok := v.failed[index]; ok {
		return v.cfg.ItemExtent
	}
	h, err := v.measure(index)
	if err != nil {
		// not cached: the next pass measures again
		v.failed[index] = struct{}{}
		v.record(err)
		return v.cfg.ItemExtent
	}
	if err := v.cache.Put(index, h); err != nil {
		v.defect(err)
	}
	return h
}

func (v *VirtualList[T, C]) measure(index int) (int, error) {
	data, err := v.source.ItemData(index)
	if err != nil {
		return 0, MeasurementFailed(index, err.Error())
	}
	h, err := v.measurer.MeasureItem(index, data, v.viewportW)
	if err != nil {
		if IsKind(err, KindMeasurementFailed) {
			return 0, err
		}
		return 0, MeasurementFailed(index, err.Error())
	}
	if h <= 0 {
		return 0, MeasurementFailed(index, fmt.Sprintf("non-positive extent %d", h))
	}
	return h, nil
}

func (v *VirtualList[T, C]) boundIndices() []int {
	idx := make([]int, 0, len(v.bound))
	for i := range v.bound {
		idx = append(idx, i)
	}
	slices.Sort(idx)
	return idx
}

// record keeps a recoverable per-item error for this pass.
func (v *VirtualList[T, C]) record(err error) {
	v.errs = append(v.errs, err)
	v.log.Warn("list item degraded", errorFields(err)...)
}

// defect handles a broken pool or cache invariant: log it loudly and stop
// using the pool for the rest of the pass.
func (v *VirtualList[T, C]) defect(err error) {
	v.errs = append(v.errs, err)
	v.bypassPool = true
	v.log.Error("list invariant violated", errorFields(err)...)
}

func (v *VirtualList[T, C]) fail(err error) {
	v.state = StateFailed
	v.fatal = err
	v.log.Error("list failed", errorFields(err)...)
}

// Render implements Component.
func (v *VirtualList[T, C]) Render(buf *Buffer, x, y int) {
	if v.hidden || v.state == StateFailed {
		return
	}

	v.scratch.Clear()
	for _, p := range v.placements {
		b, ok := v.bound[p.index]
		if !ok || !b.item.Visible() {
			continue
		}
		if d, ok := any(b.item).(interface{ Render(*Buffer, int, int) }); ok {
			d.Render(v.scratch, 0, p.y)
		}
	}
	for row := 0; row < v.viewportH; row++ {
		for col := 0; col < v.viewportW; col++ {
			buf.Set(x+col, y+row, v.scratch.Get(col, row))
		}
	}

	if v.cfg.Scrollbar {
		v.renderScrollbar(buf, x+v.viewportW, y)
	}
}

// renderScrollbar draws a track with a thumb sized by the share of items in
// view and placed by the anchor index.
func (v *VirtualList[T, C]) renderScrollbar(buf *Buffer, x, y int) {
	h := v.viewportH
	if h < 1 || v.count == 0 {
		return
	}
	maxTop, _ := v.maxAnchor()
	if maxTop == 0 && v.top == 0 && v.topOffset == 0 && v.visible.Len() >= v.count {
		return
	}

	thumbSize := max(1, h*v.visible.Len()/v.count)
	thumbPos := 0
	if maxTop > 0 {
		thumbPos = (h - thumbSize) * v.top / maxTop
	}

	buf.VLine(x, y, h, '│', v.theme.Muted)
	buf.VLine(x, y+thumbPos, thumbSize, '┃', v.theme.Accent)
}
