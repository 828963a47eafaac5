// Package nn evaluates genomes as decision networks.
package nn

import (
	"errors"
	"fmt"

	"github.com/baldhumanity/neat-flappy/neat"
)

// DecisionThreshold is the output value at or above which the agent acts.
const DecisionThreshold = 0.5

// ErrInputArity is returned when the sensor vector does not match the
// genome's input neurons.
var ErrInputArity = errors.New("input arity mismatch")

// ErrNoOutput is returned for a genome without an output neuron.
var ErrNoOutput = errors.New("genome has no output neuron")

// Activate computes the genome's output for a given slice of sensor values.
//
// Neurons are visited once, in genome order. Input neurons take the next
// sensor value; every other neuron becomes sigmoid(bias + sum of
// weight*source.Value over its enabled incoming connections). Source values
// are read as currently stored, so a neuron fed by one that appears later in
// the order sees that neuron's value from the previous call. Values are
// written back into the genome.
func Activate(g *neat.Genome, inputs []float64) (float64, error) {
	if n := g.NumInputs(); len(inputs) != n {
		return 0, fmt.Errorf("%w: got %d sensor values for %d input neurons", ErrInputArity, len(inputs), n)
	}

	next := 0
	for i := range g.Neurons {
		neuron := &g.Neurons[i]
		if neuron.Kind == neat.InputNeuron {
			neuron.Value = inputs[next]
			next++
			continue
		}

		sum := neuron.Bias
		for _, ci := range g.Incoming(neuron.ID) {
			conn := g.Connections[ci]
			if !conn.Enabled {
				continue
			}
			src, ok := g.Neuron(conn.From)
			if !ok {
				return 0, fmt.Errorf("%w: connection %d has no source neuron %d", neat.ErrInvariant, conn.Innovation, conn.From)
			}
			sum += conn.Weight * src.Value
		}
		neuron.Value = neat.Sigmoid(sum)
	}

	out := g.Output()
	if out == nil {
		return 0, ErrNoOutput
	}
	return out.Value, nil
}

// Decide maps an output value to the agent's action: true means act.
func Decide(output float64) bool {
	return output >= DecisionThreshold
}

// Controller adapts Activate to the population's decision hook.
type Controller struct{}

// Act evaluates the genome and returns the action with the raw output.
func (Controller) Act(g *neat.Genome, inputs []float64) (bool, float64, error) {
	out, err := Activate(g, inputs)
	if err != nil {
		return false, 0, err
	}
	return Decide(out), out, nil
}
