package vlist

// DataSource supplies the rows of a list.
type DataSource[T any] interface {
	ItemCount() int
	ItemData(index int) (T, error)
}

// ItemRenderer creates item containers and binds row data into them.
type ItemRenderer[T any, C PoolItem] interface {
	// CreateItem constructs a fresh, empty container attached to parent.
	CreateItem(parent Component) (C, error)
	// UpdateItem binds the data for index into an existing container.
	UpdateItem(item C, index int, data T) error
}

// ItemMeasurer is implemented by renderers that support DynamicSize. It
// returns how many rows the item needs at the given width.
type ItemMeasurer[T any] interface {
	MeasureItem(index int, data T, width int) (int, error)
}

// SliceSource is a DataSource over an in-memory slice.
type SliceSource[T any] struct {
	items []T
}

// NewSliceSource creates a source over items. The slice is not copied.
func NewSliceSource[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

// ItemCount implements DataSource.
func (s *SliceSource[T]) ItemCount() int {
	return len(s.items)
}

// ItemData implements DataSource.
func (s *SliceSource[T]) ItemData(index int) (T, error) {
	if index < 0 || index >= len(s.items) {
		var zero T
		return zero, InvalidIndex(index, len(s.items))
	}
	return s.items[index], nil
}

// Set replaces the items.
func (s *SliceSource[T]) Set(items []T) {
	s.items = items
}

// Append adds items at the end.
func (s *SliceSource[T]) Append(items ...T) {
	s.items = append(s.items, items...)
}

// Items returns the current items.
func (s *SliceSource[T]) Items() []T {
	return s.items
}

// FuncSource adapts a count and a lookup function into a DataSource, for
// rows that are generated rather than stored.
type FuncSource[T any] struct {
	Count func() int
	Data  func(index int) (T, error)
}

// ItemCount implements DataSource.
func (f FuncSource[T]) ItemCount() int {
	return f.Count()
}

// ItemData implements DataSource.
func (f FuncSource[T]) ItemData(index int) (T, error) {
	return f.Data(index)
}
