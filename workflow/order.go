package workflow

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Ordering is the result of ordering a workflow.
type Ordering struct {
	Steps    []*Step
	Comments []*Comment
	// Levels groups the steps by dependency depth: a step only depends on
	// steps of earlier levels.
	Levels [][]*Step
}

// Order sorts steps so that every step comes after the steps feeding it.
//
// When every step has a position, independent steps are ordered by their
// distance from the top-left of the canvas, and positions are normalized so
// the top-left-most step or comment sits at the origin. Freehand comments
// then come first in their given order, followed by the other comments.
// Otherwise the input order breaks ties and comments keep their order.
//
// On success the OrderIndex of every step and comment is reassigned. On
// failure nothing is modified. A step depending on itself, or any other
// cycle, is reported as *CycleError.
func Order(steps []*Step, comments []*Comment) (*Ordering, error) {
	presorted := append([]*Step(nil), steps...)
	ordered := append([]*Comment(nil), comments...)

	var shift *Position
	if hasPositions(presorted) {
		freehand, sortable := splitComments(comments)
		shift = origin(presorted, sortable)
		byDistance(presorted, shift, func(s *Step) *Position { return s.Position })
		byDistance(sortable, shift, func(c *Comment) *Position { return c.Position })
		ordered = append(freehand, sortable...)
	}

	order, levels, err := sortGraph(presorted)
	if err != nil {
		return nil, err
	}

	ord := &Ordering{
		Steps:    make([]*Step, len(order)),
		Comments: ordered,
		Levels:   make([][]*Step, 0),
	}
	for i, idx := range order {
		s := presorted[idx]
		s.OrderIndex = i
		ord.Steps[i] = s
		for len(ord.Levels) <= levels[idx] {
			ord.Levels = append(ord.Levels, nil)
		}
		ord.Levels[levels[idx]] = append(ord.Levels[levels[idx]], s)
	}
	for i, c := range ord.Comments {
		c.OrderIndex = i
	}
	if shift != nil {
		for _, s := range ord.Steps {
			s.Position.Left -= shift.Left
			s.Position.Top -= shift.Top
		}
		for _, c := range ord.Comments {
			if c.Position == nil {
				continue
			}
			c.Position.Left -= shift.Left
			c.Position.Top -= shift.Top
		}
	}
	return ord, nil
}

// Levels groups steps by dependency depth without reordering or modifying
// them. Within a level steps keep their relative order.
func Levels(steps []*Step) ([][]*Step, error) {
	_, levels, err := sortGraph(steps)
	if err != nil {
		return nil, err
	}
	out := make([][]*Step, 0)
	for i, l := range levels {
		for len(out) <= l {
			out = append(out, nil)
		}
		out[l] = append(out[l], steps[i])
	}
	return out, nil
}

// OrderWorkflow orders a workflow in place, nested workflows first.
//
// A workflow whose steps form a cycle is marked with HasCycles and keeps its
// step order. A cycle in a nested workflow doesn't stop the parent from
// being ordered. The first error found is returned.
func OrderWorkflow(wf *Workflow) error {
	var first error
	for _, s := range wf.Steps {
		if s.Subworkflow == nil {
			continue
		}
		if err := OrderWorkflow(s.Subworkflow); err != nil && first == nil {
			first = err
		}
	}

	ord, err := Order(wf.Steps, wf.Comments)
	if err != nil {
		var cerr *CycleError
		if errors.As(err, &cerr) {
			wf.HasCycles = true
		}
		if first == nil {
			first = err
		}
		return first
	}
	wf.HasCycles = false
	wf.Steps = ord.Steps
	wf.Comments = ord.Comments
	return first
}

type edge struct {
	from, to int
}

// sortGraph topologically sorts steps, breaking ties by input position.
// It returns the sorted indexes of the steps and the level of each step.
func sortGraph(steps []*Step) ([]int, []int, error) {
	index := make(map[*Step]int, len(steps))
	for i, s := range steps {
		index[s] = i
	}

	edges := make([]edge, 0, len(steps))
	for i, s := range steps {
		// every step is a node, even without connections
		edges = append(edges, edge{i, i})
		for _, conn := range s.InputConnections {
			from, ok := index[conn.Output]
			if !ok {
				return nil, nil, fmt.Errorf("step %s consumes output of a step outside the workflow", s)
			}
			if from == i {
				return nil, nil, &CycleError{Steps: []string{s.ID}}
			}
			edges = append(edges, edge{from, i})
		}
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].from != edges[b].from {
			return edges[a].from < edges[b].from
		}
		return edges[a].to < edges[b].to
	})

	indegree := make([]int, len(steps))
	succ := make([][]int, len(steps))
	for _, e := range edges {
		if e.from == e.to {
			continue
		}
		indegree[e.to]++
		succ[e.from] = append(succ[e.from], e.to)
	}

	ready := &intHeap{}
	for i, d := range indegree {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	levels := make([]int, len(steps))
	order := make([]int, 0, len(steps))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		order = append(order, n)
		for _, m := range succ[n] {
			if levels[n]+1 > levels[m] {
				levels[m] = levels[n] + 1
			}
			indegree[m]--
			if indegree[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}

	if len(order) != len(steps) {
		var stuck []string
		for i, d := range indegree {
			if d > 0 {
				stuck = append(stuck, steps[i].ID)
			}
		}
		return nil, nil, &CycleError{Steps: stuck}
	}
	return order, levels, nil
}

func splitComments(comments []*Comment) (freehand, sortable []*Comment) {
	for _, c := range comments {
		if c.Freehand || c.Position == nil {
			freehand = append(freehand, c)
		} else {
			sortable = append(sortable, c)
		}
	}
	return freehand, sortable
}

func hasPositions(steps []*Step) bool {
	if len(steps) == 0 {
		return false
	}
	for _, s := range steps {
		if s.Position == nil {
			return false
		}
	}
	return true
}

// origin returns the top-left corner of the given steps and comments.
func origin(steps []*Step, comments []*Comment) *Position {
	o := &Position{Left: math.Inf(1), Top: math.Inf(1)}
	for _, s := range steps {
		o.Left = math.Min(o.Left, s.Position.Left)
		o.Top = math.Min(o.Top, s.Position.Top)
	}
	for _, c := range comments {
		o.Left = math.Min(o.Left, c.Position.Left)
		o.Top = math.Min(o.Top, c.Position.Top)
	}
	return o
}

// byDistance stable-sorts items by distance of their position from o.
func byDistance[T any](items []T, o *Position, pos func(T) *Position) {
	dist := make([]float64, len(items))
	idx := make([]int, len(items))
	for i, item := range items {
		p := pos(item)
		dist[i] = math.Hypot(p.Left-o.Left, p.Top-o.Top)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return dist[idx[a]] < dist[idx[b]] })

	sorted := make([]T, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}

// intHeap is a min-heap of step indexes.
type intHeap []int

func (h intHeap) Len() int            { return len(h) }
func (h intHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
