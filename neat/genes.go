package neat

import (
	"fmt"
	"math/rand"
)

// NeuronKind is the closed set of roles a neuron can play in a genome.
type NeuronKind int

const (
	InputNeuron NeuronKind = iota
	HiddenNeuron
	OutputNeuron
)

// String returns the upper-case label used in genome snapshots.
func (k NeuronKind) String() string {
	switch k {
	case InputNeuron:
		return "INPUT"
	case HiddenNeuron:
		return "HIDDEN"
	case OutputNeuron:
		return "OUTPUT"
	default:
		return fmt.Sprintf("NeuronKind(%d)", int(k))
	}
}

// --------------------------- Neuron ---------------------------

// Neuron represents a node of the decision network.
type Neuron struct {
	ID    int // Unique within the owning genome, stable for its lifetime
	Kind  NeuronKind
	Bias  float64 // Never mutated for input neurons
	Value float64 // Transient, rewritten every tick
}

// String returns a string representation of the Neuron.
func (n Neuron) String() string {
	return fmt.Sprintf("Neuron(ID: %d, Kind: %s, Bias: %.3f, Value: %.3f)", n.ID, n.Kind, n.Bias, n.Value)
}

// --------------------------- Connection ---------------------------

// Connection represents a directed, weighted edge between two neurons of the same genome.
type Connection struct {
	Innovation int // Genome-local, monotonically assigned, never reused
	From       int // Source neuron ID
	To         int // Target neuron ID
	Weight     float64
	Enabled    bool // Disabled connections are kept for history but not evaluated
}

// String returns a string representation of the Connection.
func (c Connection) String() string {
	return fmt.Sprintf("Connection(Innovation: %d, %d -> %d, Weight: %.3f, Enabled: %t)",
		c.Innovation, c.From, c.To, c.Weight, c.Enabled)
}

// --- Attribute Helpers ---

// initWeight draws a connection weight uniformly from the configured range.
func initWeight(rng *rand.Rand, config *GenomeConfig) float64 {
	return uniform(rng, config.WeightInitMin, config.WeightInitMax)
}

// perturb adds a uniform offset in [-power, power] to value.
// A zero power returns value untouched.
func perturb(rng *rand.Rand, value, power float64) float64 {
	if power == 0 {
		return value
	}
	return value + uniform(rng, -power, power)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
