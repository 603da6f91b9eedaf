package solver

import (
	"container/heap"
	"fmt"
	"iter"
	rand "math/rand/v2"
)

// State is a position of a two-player zero-sum game.
type State interface {
	// Key identifies the acting seat's information set.
	Key() string
	// Actor is the acting seat. Terminal states still report one, and
	// Utility is from its point of view.
	Actor() int
	Terminal() bool
	Utility() float64
	// NumActions must match the Actions of the state's Entry.
	NumActions() int
	// Child returns the state after the i-th abstract action.
	Child(i int) (State, error)
}

// Entry describes one enumerated information set.
type Entry struct {
	Key      string
	Actions  int
	Terminal bool
}

// Space is a game the solver can train on.
type Space interface {
	// Entries lists every information set, each after every entry it can
	// be reached from.
	Entries() iter.Seq[Entry]
	// Deal samples the chance outcomes of a fresh hand and returns its root.
	Deal(rng *rand.Rand) (State, error)
}

// SweepStats describes one training iteration.
type SweepStats struct {
	Visited  int `json:"visited"`
	Terminal int `json:"terminal"`
}

// NewNodes allocates one node per entry of the space.
func NewNodes(space Space) (*NodeTable, error) {
	nodes := NewNodeTable()
	for e := range space.Entries() {
		actions := e.Actions
		if e.Terminal {
			actions = 0
		}
		if _, err := nodes.Add(e.Key, actions, e.Terminal); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

type visit struct {
	node     *Node
	strategy []float64
	// children holds the decision node after each action, or nil when the
	// action ends the hand; utils then holds the payoff.
	children []*Node
	utils    []float64
	// flip marks children whose actor differs from the node's.
	flip []bool
}

// sweep runs one CFR iteration from root. The forward pass pops reached
// nodes in enumeration order, so every parent has pushed its reach before
// a child is expanded; decision states that share an infoset key share its
// node and the last state reached stands for all of them. Terminal
// children are never merged: each is scored from its own state when it is
// reached. The backward pass walks the visits in reverse, computing
// utilities and regrets.
func sweep(nodes *NodeTable, root State) (SweepStats, error) {
	var stats SweepStats
	rootNode, err := lookupNode(nodes, root)
	if err != nil {
		return stats, err
	}
	if root.Terminal() {
		stats.Visited, stats.Terminal = 1, 1
		return stats, nil
	}
	rootNode.Reach = [2]float64{1, 1}

	pending := map[int]State{rootNode.Index: root}
	frontier := &indexHeap{rootNode.Index}
	var visits []visit

	for frontier.Len() > 0 {
		idx := heap.Pop(frontier).(int)
		node, state := nodes.At(idx), pending[idx]
		stats.Visited++
		if n := state.NumActions(); n != node.Actions() {
			return stats, fmt.Errorf("infoset %s: state offers %d actions, node has %d", node.Key, n, node.Actions())
		}

		v := visit{node: node, strategy: node.visit()}
		for i, p := range v.strategy {
			child, err := state.Child(i)
			if err != nil {
				return stats, fmt.Errorf("infoset %s action %d: %w", node.Key, i, err)
			}
			cn, err := lookupNode(nodes, child)
			if err != nil {
				return stats, err
			}
			if cn.Index <= idx {
				return stats, fmt.Errorf("infoset %s reached from %s precedes it in the enumeration", cn.Key, node.Key)
			}
			flip := child.Actor() != state.Actor()
			v.flip = append(v.flip, flip)

			if child.Terminal() {
				stats.Visited++
				stats.Terminal++
				u := child.Utility()
				if flip {
					u = -u
				}
				v.children = append(v.children, nil)
				v.utils = append(v.utils, u)
				continue
			}

			if flip {
				cn.Reach[Self] += node.Reach[Opponent]
				cn.Reach[Opponent] += p * node.Reach[Self]
			} else {
				cn.Reach[Self] += p * node.Reach[Self]
				cn.Reach[Opponent] += node.Reach[Opponent]
			}
			if _, ok := pending[cn.Index]; !ok {
				heap.Push(frontier, cn.Index)
			}
			pending[cn.Index] = child
			v.children = append(v.children, cn)
			v.utils = append(v.utils, 0)
		}
		visits = append(visits, v)
	}

	for i := len(visits) - 1; i >= 0; i-- {
		v := visits[i]
		util := 0.0
		for j, c := range v.children {
			if c != nil {
				u := c.Util
				if v.flip[j] {
					u = -u
				}
				v.utils[j] = u
			}
			util += v.strategy[j] * v.utils[j]
		}
		v.node.Util = util
		v.node.addRegrets(v.utils, util)
		v.node.Reach = [2]float64{}
	}
	return stats, nil
}

func lookupNode(nodes *NodeTable, s State) (*Node, error) {
	key := s.Key()
	node, ok := nodes.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotEnumerated, key)
	}
	return node, nil
}

// indexHeap is a min-heap of enumeration indices.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
