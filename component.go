package vlist

// Component is the interface all drawable host components implement.
type Component interface {
	// Layout
	SetConstraints(width, height int) // Parent tells us available space
	Size() (width, height int)        // Our actual size after layout

	// Hierarchy
	Parent() Component
	SetParent(Component)

	// Visibility
	Show()
	Hide()
	Visible() bool

	// Rendering
	Render(buf *Buffer, x, y int)
}

// Base provides common functionality for all components.
// Embed this in your component structs.
type Base struct {
	parent        Component
	style         Style
	width, height int // Actual size
	constraintW   int // Available width from parent
	constraintH   int // Available height from parent
	hidden        bool
}

// Parent returns the parent component.
func (b *Base) Parent() Component {
	return b.parent
}

// SetParent attaches the component to a parent.
func (b *Base) SetParent(p Component) {
	b.parent = p
}

// Style returns the component's style.
func (b *Base) Style() Style {
	return b.style
}

// SetStyle sets the component's style.
func (b *Base) SetStyle(s Style) {
	b.style = s
}

// SetConstraints is called by parent to tell us available space.
func (b *Base) SetConstraints(width, height int) {
	b.constraintW = width
	b.constraintH = height
	b.width = width
	b.height = height
}

// Constraints returns the current constraints.
func (b *Base) Constraints() (width, height int) {
	return b.constraintW, b.constraintH
}

// Size returns the actual size.
func (b *Base) Size() (int, int) {
	return b.width, b.height
}

// Show makes the component visible.
func (b *Base) Show() {
	b.hidden = false
}

// Hide hides the component. Hidden components are skipped when rendering.
func (b *Base) Hide() {
	b.hidden = true
}

// Visible reports whether the component is shown.
func (b *Base) Visible() bool {
	return !b.hidden
}
