package neat

import (
	"log/slog"
	"math/rand"
)

// Mutator applies parametric and structural mutations at generation boundaries.
// It draws every random number from the single shared source it was given.
type Mutator struct {
	Config *GenomeConfig
	Rand   *rand.Rand
	Logger *slog.Logger
}

// MutationReport summarizes what Mutate changed in one genome.
type MutationReport struct {
	InheritanceGaps int  // Neurons/connections with no counterpart in the winner
	NeuronAdded     bool // Add-neuron fired and found a connection to split
	ConnectionAdded bool // Add-connection fired and found a free pair
}

// NewMutator creates a Mutator. A nil logger discards diagnostics.
func NewMutator(config *GenomeConfig, rng *rand.Rand, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mutator{Config: config, Rand: rng, Logger: logger}
}

// Mutate overwrites target's parameters from winner with perturbation and,
// when structural mutation is enabled, rolls add-neuron and add-connection
// independently. winner must not alias any genome being mutated in the same
// pass; callers hand in a clone.
func (m *Mutator) Mutate(target, winner *Genome) MutationReport {
	report := MutationReport{
		InheritanceGaps: m.Inherit(target, winner),
	}

	if !m.Config.StructuralMutation {
		return report
	}
	if m.Rand.Float64() < m.Config.NodeAddProb {
		report.NeuronAdded = m.AddNeuron(target)
	}
	if m.Rand.Float64() < m.Config.ConnAddProb {
		report.ConnectionAdded = m.AddConnection(target)
	}
	return report
}

// Inherit copies every bias and weight of target from the entity with the
// same neuron ID or innovation id in winner, adding a uniform perturbation in
// [-PerturbationPower, PerturbationPower]. Entities the winner lacks keep
// their value. Returns the number of such gaps.
func (m *Mutator) Inherit(target, winner *Genome) int {
	power := m.Config.PerturbationPower
	gaps := 0

	for i := range target.Neurons {
		n := &target.Neurons[i]
		if n.Kind == InputNeuron {
			continue
		}
		src, ok := winner.Neuron(n.ID)
		if !ok {
			gaps++
			m.Logger.Debug("inheritance gap", "genome", target.Key, "neuron", n.ID)
			continue
		}
		n.Bias = perturb(m.Rand, src.Bias, power)
	}

	weights := make(map[int]float64, len(winner.Connections))
	for _, c := range winner.Connections {
		weights[c.Innovation] = c.Weight
	}
	for i := range target.Connections {
		c := &target.Connections[i]
		w, ok := weights[c.Innovation]
		if !ok {
			gaps++
			m.Logger.Debug("inheritance gap", "genome", target.Key, "innovation", c.Innovation)
			continue
		}
		c.Weight = perturb(m.Rand, w, power)
	}
	return gaps
}

// AddNeuron splits a random enabled connection a -> b into a -> new -> b.
// The split connection is disabled, a -> new gets a random weight and
// new -> b inherits the old weight. Returns false when there is no enabled
// connection to split.
func (m *Mutator) AddNeuron(g *Genome) bool {
	enabled := make([]int, 0, len(g.Connections))
	for i, c := range g.Connections {
		if c.Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		m.Logger.Debug("add-neuron skipped: no enabled connection", "genome", g.Key)
		return false
	}

	// Copy out before appending; the slice may be reallocated.
	idx := enabled[m.Rand.Intn(len(enabled))]
	split := g.Connections[idx]
	g.Connections[idx].Enabled = false

	newID := g.maxNeuronID() + 1
	g.appendNeuron(Neuron{ID: newID, Kind: HiddenNeuron})
	g.appendConnection(split.From, newID, initWeight(m.Rand, m.Config))
	g.appendConnection(newID, split.To, split.Weight)

	m.Logger.Debug("added neuron", "genome", g.Key, "neuron", newID, "split", split.Innovation)
	return true
}

// AddConnection joins a random pair of not yet connected neurons. The source
// may not be the output neuron and the target may not be an input neuron.
// With FeedForward set, pairs that would close a cycle are skipped too.
// Returns false when no pair qualifies.
func (m *Mutator) AddConnection(g *Genome) bool {
	candidates := m.connectionCandidates(g)
	if len(candidates) == 0 {
		m.Logger.Debug("add-connection skipped: no free neuron pair", "genome", g.Key)
		return false
	}

	pair := candidates[m.Rand.Intn(len(candidates))]
	innovation := g.appendConnection(pair.From, pair.To, initWeight(m.Rand, m.Config))

	m.Logger.Debug("added connection", "genome", g.Key, "innovation", innovation, "from", pair.From, "to", pair.To)
	return true
}

// connectionCandidates lists every eligible (from, to) pair in genome order.
func (m *Mutator) connectionCandidates(g *Genome) []connectionPair {
	var candidates []connectionPair
	for _, a := range g.Neurons {
		if a.Kind == OutputNeuron {
			continue
		}
		for _, b := range g.Neurons {
			if b.Kind == InputNeuron || a.ID == b.ID || g.Connected(a.ID, b.ID) {
				continue
			}
			candidates = append(candidates, connectionPair{a.ID, b.ID})
		}
	}

	if !m.Config.FeedForward || len(candidates) == 0 {
		return candidates
	}
	dg := g.enabledGraph()
	acyclic := candidates[:0]
	for _, p := range candidates {
		if !g.wouldCycle(dg, p.From, p.To) {
			acyclic = append(acyclic, p)
		}
	}
	return acyclic
}
