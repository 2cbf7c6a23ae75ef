package planner

import (
	"sort"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// tarjan holds the state of Tarjan's strongly connected components search
// over the selected-recipe graph.
type tarjan struct {
	choice     map[string]*fusion.Recipe
	index      int
	indices    map[string]int
	lowlinks   map[string]int
	onStack    map[string]bool
	stack      []string
	components [][]string
}

// FindCycles returns the cycles of the graph formed by each commodity's
// chosen recipe pointing at its two inputs. A cycle is a component with
// more than one member, or a single member whose recipe consumes itself.
func FindCycles(g *Graph, choice map[string]*fusion.Recipe) []fusion.Cycle {
	t := &tarjan{
		choice:   choice,
		indices:  make(map[string]int),
		lowlinks: make(map[string]int),
		onStack:  make(map[string]bool),
	}

	for _, id := range g.ids {
		if choice[id] == nil {
			continue
		}
		if _, seen := t.indices[id]; !seen {
			t.strongConnect(id)
		}
	}

	var cycles []fusion.Cycle
	for _, comp := range t.components {
		if len(comp) == 1 {
			r := choice[comp[0]]
			if r == nil || !r.Consumes(comp[0]) {
				continue
			}
		}
		cycles = append(cycles, orderSteps(comp, choice))
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Steps[0].Commodity < cycles[j].Steps[0].Commodity
	})
	return cycles
}

func (t *tarjan) strongConnect(id string) {
	t.indices[id] = t.index
	t.lowlinks[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	if r := t.choice[id]; r != nil {
		for _, next := range r.Inputs {
			if _, seen := t.indices[next]; !seen {
				t.strongConnect(next)
				t.lowlinks[id] = min(t.lowlinks[id], t.lowlinks[next])
			} else if t.onStack[next] {
				t.lowlinks[id] = min(t.lowlinks[id], t.indices[next])
			}
		}
	}

	if t.lowlinks[id] != t.indices[id] {
		return
	}

	var comp []string
	for {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[top] = false
		comp = append(comp, top)
		if top == id {
			break
		}
	}
	t.components = append(t.components, comp)
}

// orderSteps lays a component out as a loop: start at the smallest id and
// follow the first chosen input that is an unvisited member. Members the
// walk cannot reach are appended in id order.
func orderSteps(comp []string, choice map[string]*fusion.Recipe) fusion.Cycle {
	members := make(map[string]bool, len(comp))
	for _, id := range comp {
		members[id] = true
	}
	sorted := append([]string(nil), comp...)
	sort.Strings(sorted)

	visited := make(map[string]bool, len(comp))
	steps := make([]fusion.CycleStep, 0, len(comp))
	add := func(id string) {
		visited[id] = true
		steps = append(steps, fusion.CycleStep{Commodity: id, Recipe: *choice[id]})
	}

	cur := sorted[0]
	add(cur)
	for {
		next := ""
		for _, in := range choice[cur].Inputs {
			if members[in] && !visited[in] {
				next = in
				break
			}
		}
		if next == "" {
			break
		}
		add(next)
		cur = next
	}

	for _, id := range sorted {
		if !visited[id] {
			add(id)
		}
	}
	return fusion.Cycle{Steps: steps}
}
