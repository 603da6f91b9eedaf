package solver

import (
	"fmt"
	"sync"
)

// Reach slots of a node: the acting seat and its opponent.
const (
	Self     = 0
	Opponent = 1
)

// Node holds the solver state of one information set. RegretSum and
// StrategySum have one slot per abstract action available there. Util is
// the acting seat's value from the last sweep; terminal nodes keep none,
// their payoffs are read from each state.
type Node struct {
	Key      string
	Index    int
	Terminal bool

	mu          sync.Mutex
	RegretSum   []float64
	StrategySum []float64
	Reach       [2]float64
	Util        float64

	current []float64
}

func newNode(key string, index, actions int, terminal bool) *Node {
	return &Node{
		Key:         key,
		Index:       index,
		Terminal:    terminal,
		RegretSum:   make([]float64, actions),
		StrategySum: make([]float64, actions),
		current:     make([]float64, actions),
	}
}

// Actions returns the number of abstract actions at the node.
func (n *Node) Actions() int { return len(n.RegretSum) }

// Strategy returns the current regret-matching distribution: positive
// regrets renormalised, or uniform when none is positive.
func (n *Node) Strategy() []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]float64(nil), n.regretMatch()...)
}

// regretMatch fills and returns the scratch strategy. The caller holds mu.
func (n *Node) regretMatch() []float64 {
	total := 0.0
	for i, r := range n.RegretSum {
		n.current[i] = max(r, 0)
		total += n.current[i]
	}
	if total <= 0 {
		uniform := 1.0 / float64(len(n.current))
		for i := range n.current {
			n.current[i] = uniform
		}
		return n.current
	}
	for i := range n.current {
		n.current[i] /= total
	}
	return n.current
}

// visit computes the current strategy and accumulates it, weighted by
// the acting seat's reach, into the strategy sum. The returned slice is
// owned by the node and valid until the next visit.
func (n *Node) visit() []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	strat := n.regretMatch()
	for i, p := range strat {
		n.StrategySum[i] += n.Reach[Self] * p
	}
	return strat
}

// addRegrets accumulates counterfactual regrets weighted by the
// opponent's reach.
func (n *Node) addRegrets(childUtil []float64, nodeUtil float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, u := range childUtil {
		n.RegretSum[i] += (u - nodeUtil) * n.Reach[Opponent]
	}
}

// AverageStrategy returns the normalised strategy sum, the quantity that
// converges to equilibrium. It is uniform before the node is reached.
func (n *Node) AverageStrategy() []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	avg := make([]float64, len(n.StrategySum))
	total := 0.0
	for _, s := range n.StrategySum {
		total += s
	}
	if total <= 0 {
		for i := range avg {
			avg[i] = 1.0 / float64(len(avg))
		}
		return avg
	}
	for i, s := range n.StrategySum {
		avg[i] = s / total
	}
	return avg
}

func (n *Node) snapshot() nodeSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return nodeSnapshot{
		RegretSum:   append([]float64(nil), n.RegretSum...),
		StrategySum: append([]float64(nil), n.StrategySum...),
	}
}

func (n *Node) restore(snap nodeSnapshot) error {
	if len(snap.RegretSum) != n.Actions() || len(snap.StrategySum) != n.Actions() {
		return fmt.Errorf("infoset %s: checkpoint has %d actions, want %d", n.Key, len(snap.RegretSum), n.Actions())
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	copy(n.RegretSum, snap.RegretSum)
	copy(n.StrategySum, snap.StrategySum)
	return nil
}

const nodeTableShardCount = 64
const nodeTableShardMask = nodeTableShardCount - 1

type nodeShard struct {
	mu      sync.RWMutex
	entries map[string]*Node
}

// NodeTable stores one node per enumerated infoset in sharded maps and
// remembers the enumeration order, which the sweeps rely on.
type NodeTable struct {
	shards [nodeTableShardCount]nodeShard
	order  []*Node
}

// NewNodeTable returns an empty table.
func NewNodeTable() *NodeTable {
	table := &NodeTable{}
	for i := range table.shards {
		table.shards[i].entries = make(map[string]*Node)
	}
	return table
}

// Add appends a node for key. Keys must be unique and added in
// topological order.
func (t *NodeTable) Add(key string, actions int, terminal bool) (*Node, error) {
	shard := t.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if _, ok := shard.entries[key]; ok {
		return nil, fmt.Errorf("duplicate infoset %s", key)
	}
	node := newNode(key, len(t.order), actions, terminal)
	shard.entries[key] = node
	t.order = append(t.order, node)
	return node, nil
}

// Get returns the node for key.
func (t *NodeTable) Get(key string) (*Node, bool) {
	shard := t.shardFor(key)
	shard.mu.RLock()
	node, ok := shard.entries[key]
	shard.mu.RUnlock()
	return node, ok
}

// At returns the node at position i of the enumeration order.
func (t *NodeTable) At(i int) *Node { return t.order[i] }

// Len returns the number of nodes.
func (t *NodeTable) Len() int { return len(t.order) }

// All yields the nodes in enumeration order.
func (t *NodeTable) All() []*Node { return t.order }

func (t *NodeTable) shardFor(key string) *nodeShard {
	return &t.shards[hashKey(key)&nodeTableShardMask]
}

// hashKey is 32-bit FNV-1a.
func hashKey(key string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	var hash uint32 = offset32
	for i := 0; i < len(key); i++ {
		hash ^= uint32(key[i])
		hash *= prime32
	}
	return hash
}
