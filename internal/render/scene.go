// Package render keeps the symbol layer of the map in step with the filtered
// event list: one node per event ID, each carrying its ring stack, with
// fade-in for new nodes and fade-out before removal.
package render

import (
	"cmp"
	"slices"
	"time"

	"github.com/golang/geo/r2"

	"github.com/couchcryptid/quake-map-explorer/internal/anim"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
)

const (
	FadeIn  = 550 * time.Millisecond
	FadeOut = 300 * time.Millisecond
)

// State is the lifecycle stage of a node.
type State string

const (
	StateEntering State = "entering"
	StateLive     State = "live"
	StateExiting  State = "exiting"
)

// RenderedRing is a ring as drawn: Radius is the stored base radius and
// Displayed is the radius after zoom compensation.
type RenderedRing struct {
	domain.Ring
	Displayed float64 `json:"displayed_radius"`
}

// Node is the drawn symbol of one event. X and Y are plane coordinates before
// the zoom transform.
type Node struct {
	ID      string         `json:"id"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Opacity float64        `json:"opacity"`
	State   State          `json:"state"`
	Rings   []RenderedRing `json:"rings"`
	Event   domain.Event   `json:"-"`
}

// BaseRadius is the base radius of the outermost ring.
func (n Node) BaseRadius() float64 {
	r := 0.0
	for _, ring := range n.Rings {
		r = max(r, ring.Radius)
	}
	return r
}

// DisplayRadius is the displayed radius of the outermost ring.
func (n Node) DisplayRadius() float64 {
	r := 0.0
	for _, ring := range n.Rings {
		r = max(r, ring.Displayed)
	}
	return r
}

// ProjectFunc places an event on the plane; ok is false when it cannot be
// drawn.
type ProjectFunc func(e domain.Event) (p r2.Point, ok bool)

// RingsFunc produces the ring stack of an event.
type RingsFunc func(e domain.Event) []domain.Ring

// Stats counts what one reconcile pass did.
type Stats struct {
	Entered int `json:"entered"`
	Updated int `json:"updated"`
	Exited  int `json:"exited"`
	Revived int `json:"revived"`
	Skipped int `json:"skipped"`
}

// Scene is the symbol layer plus the highlight overlay. It is not safe for
// concurrent use.
type Scene struct {
	sched     *anim.Scheduler
	nodes     map[string]*Node
	factor    float64
	highlight *Highlight
	pulse     anim.Handle
}

// NewScene creates an empty scene animated by sched.
func NewScene(sched *anim.Scheduler) *Scene {
	return &Scene{sched: sched, nodes: make(map[string]*Node), factor: 1}
}

func nodeOwner(id string) string { return "node:" + id }

// Reconcile makes the scene show exactly events: unknown IDs are created and
// fade in, known IDs are updated in place, and nodes whose IDs are gone fade
// out and are then removed. A node re-added while fading out is revived.
func (s *Scene) Reconcile(events []domain.Event, project ProjectFunc, rings RingsFunc) Stats {
	var st Stats
	seen := make(map[string]bool, len(events))

	for _, e := range events {
		p, ok := project(e)
		if !ok {
			st.Skipped++
			continue
		}
		seen[e.ID] = true

		n, exists := s.nodes[e.ID]
		switch {
		case !exists:
			n = &Node{ID: e.ID, State: StateEntering}
			s.nodes[e.ID] = n
			st.Entered++
			s.fade(n, 1, FadeIn)
		case n.State == StateExiting:
			n.State = StateEntering
			st.Revived++
			s.fade(n, 1, FadeIn)
		default:
			st.Updated++
		}
		n.X, n.Y = p.X, p.Y
		n.Event = e
		n.Rings = s.rendered(rings(e))
	}

	for id, n := range s.nodes {
		if seen[id] || n.State == StateExiting {
			continue
		}
		n.State = StateExiting
		st.Exited++
		s.fade(n, 0, FadeOut)
	}
	return st
}

// fade animates n's opacity to target, replacing any fade in flight. Only
// this node's opacity and state are touched.
func (s *Scene) fade(n *Node, target float64, d time.Duration) {
	owner := nodeOwner(n.ID)
	s.sched.CancelOwner(owner)
	from := n.Opacity
	id := n.ID
	s.sched.Tween(owner, d, anim.Linear, func(t float64) {
		n.Opacity = anim.Lerp(from, target, t)
	}, func() {
		if target > 0 {
			n.State = StateLive
			return
		}
		if cur, ok := s.nodes[id]; ok && cur == n {
			delete(s.nodes, id)
		}
	})
}

func (s *Scene) rendered(rings []domain.Ring) []RenderedRing {
	out := make([]RenderedRing, len(rings))
	for i, r := range rings {
		out[i] = RenderedRing{Ring: r, Displayed: r.Radius * s.factor}
	}
	return out
}

// Compensate rewrites every displayed radius from its stored base radius.
func (s *Scene) Compensate(factor float64) {
	s.factor = factor
	for _, n := range s.nodes {
		for i := range n.Rings {
			n.Rings[i].Displayed = n.Rings[i].Radius * factor
		}
	}
	if s.highlight != nil {
		s.highlight.compensate(factor)
	}
}

// Factor returns the compensation factor last applied.
func (s *Scene) Factor() float64 { return s.factor }

// Len counts nodes, including those fading out.
func (s *Scene) Len() int { return len(s.nodes) }

// Node returns a copy of the node for id.
func (s *Scene) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

func (n *Node) clone() Node {
	c := *n
	c.Rings = slices.Clone(n.Rings)
	return c
}

// Snapshot is a point-in-time copy of the scene, ordered by node ID.
type Snapshot struct {
	Nodes     []Node     `json:"nodes"`
	Highlight *Highlight `json:"highlight,omitempty"`
	Factor    float64    `json:"factor"`
}

// Snapshot copies the scene for drawing.
func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{Nodes: make([]Node, 0, len(s.nodes)), Factor: s.factor}
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, n.clone())
	}
	slices.SortFunc(snap.Nodes, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })
	if s.highlight != nil {
		h := *s.highlight
		snap.Highlight = &h
	}
	return snap
}
