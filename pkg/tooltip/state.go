package tooltip

import (
	"fmt"
	"sort"
)

// State is the visibility of one trigger's panel.
type State uint8

const (
	StateHidden State = iota
	StateVisible
)

func (s State) String() string {
	if s == StateVisible {
		return "visible"
	}
	return "hidden"
}

// Event is a UI event on a trigger element.
type Event uint8

const (
	PointerEnter Event = iota
	PointerLeave
	Focus
	Blur
)

func (e Event) String() string {
	switch e {
	case PointerEnter:
		return "pointerenter"
	case PointerLeave:
		return "pointerleave"
	case Focus:
		return "focus"
	case Blur:
		return "blur"
	default:
		return fmt.Sprintf("event(%d)", uint8(e))
	}
}

func (e Event) shows() bool { return e == PointerEnter || e == Focus }

// Tooltip is the show/hide state machine for one trigger. Transitions are
// driven only by events and measurements; re-entering the current state is a
// no-op. A Tooltip is not safe for concurrent use.
type Tooltip struct {
	threshold float64
	state     State
	pending   bool
	rect      *Rect
	viewport  Size
}

// New returns a hidden, unmeasured tooltip.
func New(threshold float64) *Tooltip {
	return &Tooltip{threshold: threshold}
}

// State returns the current visibility.
func (t *Tooltip) State() State { return t.state }

// Pending reports a show request that is withheld until the trigger is
// measured.
func (t *Tooltip) Pending() bool { return t.pending }

// Measured reports whether a trigger rectangle is known.
func (t *Tooltip) Measured() bool { return t.rect != nil }

// Decision returns the placement for the latest measurement.
func (t *Tooltip) Decision() Decision {
	return Placement(t.rect, t.viewport, t.threshold)
}

// Handle applies ev and reports whether the state changed. A show event on
// an unmeasured trigger leaves the tooltip hidden and marks it pending.
func (t *Tooltip) Handle(ev Event) bool {
	if ev.shows() {
		if t.state == StateVisible {
			return false
		}
		if t.rect == nil {
			t.pending = true
			return false
		}
		t.pending = false
		t.state = StateVisible
		return true
	}

	t.pending = false
	if t.state == StateHidden {
		return false
	}
	t.state = StateHidden
	return true
}

// Measure records the trigger's bounding box. A pending show completes and
// Measure reports the change.
func (t *Tooltip) Measure(rect Rect, viewport Size) bool {
	r := rect
	t.rect = &r
	t.viewport = viewport
	if t.pending {
		t.pending = false
		t.state = StateVisible
		return true
	}
	return false
}

// Unmount drops the measurement and hides the tooltip, as when the trigger
// leaves the layout.
func (t *Tooltip) Unmount() {
	t.rect = nil
	t.pending = false
	t.state = StateHidden
}

// Group keeps one independent Tooltip per trigger id.
type Group struct {
	threshold float64
	tips      map[string]*Tooltip
}

// NewGroup returns an empty group whose tooltips share threshold.
func NewGroup(threshold float64) *Group {
	return &Group{threshold: threshold, tips: make(map[string]*Tooltip)}
}

// Get returns the tooltip for id, creating it hidden on first use.
func (g *Group) Get(id string) *Tooltip {
	t, ok := g.tips[id]
	if !ok {
		t = New(g.threshold)
		g.tips[id] = t
	}
	return t
}

// Handle routes ev to the tooltip for id.
func (g *Group) Handle(id string, ev Event) bool {
	return g.Get(id).Handle(ev)
}

// Measure records the bounding box for id.
func (g *Group) Measure(id string, rect Rect, viewport Size) bool {
	return g.Get(id).Measure(rect, viewport)
}

// Visible returns the ids of visible tooltips in sorted order.
func (g *Group) Visible() []string {
	var ids []string
	for id, t := range g.tips {
		if t.state == StateVisible {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
