package neat

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrInvariant marks a broken structural invariant. It is a programming
// defect, never a condition the evolutionary loop recovers from.
var ErrInvariant = errors.New("genome invariant violated")

// connectionPair identifies a directed neuron pair regardless of innovation.
type connectionPair struct {
	From, To int
}

// Genome represents one evolvable network paired with the agent it controls.
// Neurons and Connections are kept in insertion order; every cross reference
// goes through neuron IDs.
type Genome struct {
	Key         int          // Population slot of this genome.
	Neurons     []Neuron     // Ordered by insertion; evaluation walks this order.
	Connections []Connection // Ordered by insertion.
	Fitness     float64      // Finalized once when the agent's episode ends.
	Alive       bool         // Episode status for the current generation.
	Birth       BirthState   // Reset target for Agent at every generation start.
	Agent       AgentState   // Live agent state.
	Config      *GenomeConfig

	neuronIndex    map[int]int            // neuron ID -> index into Neurons
	incoming       map[int][]int          // target neuron ID -> indices into Connections
	pairs          map[connectionPair]int // (from, to) -> index into Connections
	nextInnovation int
}

// NewGenome creates an empty Genome with the specified key and config reference.
func NewGenome(key int, config *GenomeConfig) *Genome {
	g := &Genome{
		Key:    key,
		Alive:  true,
		Config: config,
	}
	g.reindex()
	return g
}

// Assemble builds a genome from explicit neurons and connections and checks
// its invariants. Slices are copied.
func Assemble(key int, config *GenomeConfig, neurons []Neuron, connections []Connection) (*Genome, error) {
	g := NewGenome(key, config)
	g.Neurons = append([]Neuron(nil), neurons...)
	g.Connections = append([]Connection(nil), connections...)
	g.reindex()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// ConfigureNew initializes the minimal topology: input neurons 0..n-1, a
// single output neuron n, and a direct connection from every input to the
// output with a random weight. All biases start at zero.
func (g *Genome) ConfigureNew(rng *rand.Rand) {
	g.Neurons = g.Neurons[:0]
	g.Connections = g.Connections[:0]
	g.reindex()

	for i := 0; i < g.Config.NumInputs; i++ {
		g.appendNeuron(Neuron{ID: i, Kind: InputNeuron})
	}
	outputID := g.Config.NumInputs
	g.appendNeuron(Neuron{ID: outputID, Kind: OutputNeuron})

	for i := 0; i < g.Config.NumInputs; i++ {
		g.appendConnection(i, outputID, initWeight(rng, g.Config))
	}
}

// Reset prepares the genome for a new generation without touching its network.
func (g *Genome) Reset() {
	g.Agent.Reset(g.Birth)
	g.Alive = true
	g.Fitness = 0
}

// String returns a short summary of the genome.
func (g *Genome) String() string {
	return fmt.Sprintf("Genome(Key: %d, Neurons: %d, Connections: %d/%d enabled, Fitness: %.3f)",
		g.Key, len(g.Neurons), g.EnabledConnections(), len(g.Connections), g.Fitness)
}

// Neuron returns the neuron with the given ID.
func (g *Genome) Neuron(id int) (*Neuron, bool) {
	idx, ok := g.neuronIndex[id]
	if !ok {
		return nil, false
	}
	return &g.Neurons[idx], true
}

// Connection returns the connection with the given innovation id.
func (g *Genome) Connection(innovation int) (*Connection, bool) {
	for i := range g.Connections {
		if g.Connections[i].Innovation == innovation {
			return &g.Connections[i], true
		}
	}
	return nil, false
}

// Output returns the genome's single output neuron.
func (g *Genome) Output() *Neuron {
	for i := range g.Neurons {
		if g.Neurons[i].Kind == OutputNeuron {
			return &g.Neurons[i]
		}
	}
	return nil
}

// NumInputs counts the input neurons.
func (g *Genome) NumInputs() int {
	n := 0
	for _, neuron := range g.Neurons {
		if neuron.Kind == InputNeuron {
			n++
		}
	}
	return n
}

// Incoming returns the indices into Connections of every connection ending
// at the given neuron, enabled or not.
func (g *Genome) Incoming(id int) []int {
	return g.incoming[id]
}

// Connected reports whether a connection from -> to exists, enabled or not.
func (g *Genome) Connected(from, to int) bool {
	_, ok := g.pairs[connectionPair{from, to}]
	return ok
}

// EnabledConnections counts the connections taking part in evaluation.
func (g *Genome) EnabledConnections() int {
	n := 0
	for _, c := range g.Connections {
		if c.Enabled {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the genome that shares no state with g.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		Key:         g.Key,
		Neurons:     append([]Neuron(nil), g.Neurons...),
		Connections: append([]Connection(nil), g.Connections...),
		Fitness:     g.Fitness,
		Alive:       g.Alive,
		Birth:       g.Birth,
		Agent:       g.Agent,
		Config:      g.Config,
	}
	c.reindex()
	return c
}

// maxNeuronID returns the largest neuron ID in use, or -1 for an empty genome.
func (g *Genome) maxNeuronID() int {
	maxID := -1
	for _, n := range g.Neurons {
		maxID = max(maxID, n.ID)
	}
	return maxID
}

// appendNeuron adds a neuron and records it in the ID index.
func (g *Genome) appendNeuron(n Neuron) {
	g.neuronIndex[n.ID] = len(g.Neurons)
	g.Neurons = append(g.Neurons, n)
}

// appendConnection adds an enabled connection with a fresh innovation id.
func (g *Genome) appendConnection(from, to int, weight float64) int {
	innovation := g.nextInnovation
	g.nextInnovation++

	idx := len(g.Connections)
	g.Connections = append(g.Connections, Connection{
		Innovation: innovation,
		From:       from,
		To:         to,
		Weight:     weight,
		Enabled:    true,
	})
	g.incoming[to] = append(g.incoming[to], idx)
	g.pairs[connectionPair{from, to}] = idx
	return innovation
}

// reindex rebuilds every lookup table from the ordered slices.
func (g *Genome) reindex() {
	g.neuronIndex = make(map[int]int, len(g.Neurons))
	g.incoming = make(map[int][]int, len(g.Neurons))
	g.pairs = make(map[connectionPair]int, len(g.Connections))
	g.nextInnovation = 0

	for i, n := range g.Neurons {
		g.neuronIndex[n.ID] = i
	}
	for i, c := range g.Connections {
		g.incoming[c.To] = append(g.incoming[c.To], i)
		g.pairs[connectionPair{c.From, c.To}] = i
		g.nextInnovation = max(g.nextInnovation, c.Innovation+1)
	}
}

// Validate checks referential integrity and the structural invariants of
// the genome. Any error wraps ErrInvariant.
func (g *Genome) Validate() error {
	kinds := make(map[int]NeuronKind, len(g.Neurons))
	inputs, outputs := 0, 0
	for _, n := range g.Neurons {
		if _, dup := kinds[n.ID]; dup {
			return fmt.Errorf("%w: duplicate neuron id %d", ErrInvariant, n.ID)
		}
		kinds[n.ID] = n.Kind
		switch n.Kind {
		case InputNeuron:
			inputs++
		case OutputNeuron:
			outputs++
		case HiddenNeuron:
		default:
			return fmt.Errorf("%w: neuron %d has unknown kind %d", ErrInvariant, n.ID, int(n.Kind))
		}
	}
	if g.Config != nil && inputs != g.Config.NumInputs {
		return fmt.Errorf("%w: %d input neurons, want %d", ErrInvariant, inputs, g.Config.NumInputs)
	}
	if outputs != 1 {
		return fmt.Errorf("%w: %d output neurons, want exactly 1", ErrInvariant, outputs)
	}

	innovations := make(map[int]bool, len(g.Connections))
	pairs := make(map[connectionPair]int, len(g.Connections))
	for _, c := range g.Connections {
		if innovations[c.Innovation] {
			return fmt.Errorf("%w: duplicate innovation id %d", ErrInvariant, c.Innovation)
		}
		innovations[c.Innovation] = true
		if prev, dup := pairs[connectionPair{c.From, c.To}]; dup {
			return fmt.Errorf("%w: connections %d and %d both join %d -> %d", ErrInvariant, prev, c.Innovation, c.From, c.To)
		}
		pairs[connectionPair{c.From, c.To}] = c.Innovation

		fromKind, ok := kinds[c.From]
		if !ok {
			return fmt.Errorf("%w: connection %d references missing source neuron %d", ErrInvariant, c.Innovation, c.From)
		}
		toKind, ok := kinds[c.To]
		if !ok {
			return fmt.Errorf("%w: connection %d references missing target neuron %d", ErrInvariant, c.Innovation, c.To)
		}
		if c.From == c.To {
			return fmt.Errorf("%w: connection %d is a self-loop on neuron %d", ErrInvariant, c.Innovation, c.From)
		}
		if toKind == InputNeuron {
			return fmt.Errorf("%w: connection %d targets input neuron %d", ErrInvariant, c.Innovation, c.To)
		}
		if fromKind == OutputNeuron {
			return fmt.Errorf("%w: connection %d originates at output neuron %d", ErrInvariant, c.Innovation, c.From)
		}
	}
	return nil
}

// enabledGraph builds a directed graph of the neurons joined by enabled connections.
func (g *Genome) enabledGraph() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for _, n := range g.Neurons {
		dg.AddNode(simple.Node(n.ID))
	}
	for _, c := range g.Connections {
		if !c.Enabled || c.From == c.To {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(c.From), simple.Node(c.To)))
	}
	return dg
}

// Acyclic reports whether the enabled connections form a directed acyclic graph.
func (g *Genome) Acyclic() bool {
	_, err := topo.Sort(g.enabledGraph())
	return err == nil
}

// wouldCycle reports whether adding from -> to would close a cycle through
// the enabled connections.
func (g *Genome) wouldCycle(dg *simple.DirectedGraph, from, to int) bool {
	if from == to {
		return true
	}
	return topo.PathExistsIn(dg, simple.Node(to), simple.Node(from))
}
