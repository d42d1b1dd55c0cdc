package query

import (
	"codescope/internal/entity"
	"codescope/internal/store"
)

// Graph is the result of a call-graph traversal: every visited symbol and
// every traversed relation, including edges into already-visited nodes so
// cycles appear exactly once.
type Graph struct {
	Nodes []*entity.Symbol        `json:"nodes"`
	Edges []*store.StoredRelation `json:"edges"`
}

// CallGraph runs a bounded breadth-first traversal over relations of the
// given kind ("" means calls). direction store.DirectionSource follows
// callees, store.DirectionTarget callers, store.DirectionBoth (or "") both.
// A visited set guarantees termination on cyclic graphs. Returns nil if the
// starting symbol is unknown.
func (e *Engine) CallGraph(symbolID string, depth int, direction, kind string) (*Graph, error) {
	start, err := e.store.GetSymbolByID(symbolID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, nil
	}
	if kind == "" {
		kind = entity.RelCalls
	}

	type frontier struct {
		id    string
		depth int
	}
	g := &Graph{Nodes: []*entity.Symbol{start}}
	visited := map[string]bool{symbolID: true}
	edgeSeen := map[int64]bool{}
	queue := []frontier{{id: symbolID, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= depth {
			continue
		}

		rels, err := e.store.RelationsForSymbol(cur.id, kind, direction)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			if !edgeSeen[r.ID] {
				edgeSeen[r.ID] = true
				g.Edges = append(g.Edges, r)
			}
			other := r.TargetID
			if other == cur.id {
				other = r.SourceID
			}
			if visited[other] {
				continue
			}
			sym, err := e.store.GetSymbolByID(other)
			if err != nil {
				return nil, err
			}
			if sym == nil {
				continue
			}
			visited[other] = true
			g.Nodes = append(g.Nodes, sym)
			queue = append(queue, frontier{id: other, depth: cur.depth + 1})
		}
	}
	return g, nil
}

// Callers returns the symbols with a calls edge into the given symbol.
func (e *Engine) Callers(symbolID string) ([]*entity.Symbol, error) {
	return e.callNeighbors(symbolID, store.DirectionTarget)
}

// Callees returns the symbols the given symbol has calls edges to.
func (e *Engine) Callees(symbolID string) ([]*entity.Symbol, error) {
	return e.callNeighbors(symbolID, store.DirectionSource)
}

func (e *Engine) callNeighbors(symbolID, direction string) ([]*entity.Symbol, error) {
	rels, err := e.store.RelationsForSymbol(symbolID, entity.RelCalls, direction)
	if err != nil {
		return nil, err
	}
	var out []*entity.Symbol
	seen := map[string]bool{}
	for _, r := range rels {
		other := r.SourceID
		if direction == store.DirectionSource {
			other = r.TargetID
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		sym, err := e.store.GetSymbolByID(other)
		if err != nil {
			return nil, err
		}
		if sym != nil {
			out = append(out, sym)
		}
	}
	return out, nil
}
