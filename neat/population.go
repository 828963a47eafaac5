package neat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// ErrNoGenomes is returned when selection is attempted on an empty population.
var ErrNoGenomes = errors.New("population has no genomes")

// Scorer is implemented by environments that count cleared obstacles.
type Scorer interface {
	Score() int
}

// Controller turns a genome and a sensor vector into the agent's action.
type Controller interface {
	Act(g *Genome, inputs []float64) (act bool, output float64, err error)
}

// Phase is the population's position in the generation cycle.
type Phase int

const (
	Running Phase = iota
	SelectingAndReplicating
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case SelectingAndReplicating:
		return "selecting"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// TickResult describes the outcome of one simulation step.
type TickResult struct {
	Alive           int              // Genomes still alive after the tick
	GenerationEnded bool             // True when the tick triggered selection and replication
	Stats           *GenerationStats // Summary of the finished generation, when GenerationEnded
}

// Population holds the state of the evolutionary process. It exclusively
// owns its genomes; nothing outside it should keep a *Genome across a
// replication step. Use Winner for a stable copy.
type Population struct {
	Config     *Config
	Genomes    []*Genome // One per slot, reused every generation
	Generation int
	Phase      Phase
	Winner     *Genome // Clone of the most recent generation winner
	Mutator    *Mutator
	Controller Controller
	Reporters  *ReporterSet
	Logger     *slog.Logger

	ticks    int       // Ticks elapsed in the current generation
	genStart time.Time // Wall clock at generation start
}

// NewPopulation creates the fixed-size population with minimal genomes.
// rng is the run's single random source; the environment supplies each
// slot's birth state.
func NewPopulation(config *Config, env Environment, controller Controller, rng *rand.Rand, logger *slog.Logger) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	genomes := make([]*Genome, config.Neat.PopSize)
	for i := range genomes {
		g := NewGenome(i, &config.Genome)
		g.ConfigureNew(rng)
		g.Birth = env.Spawn(i)
		g.Reset()
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("failed to create genome %d: %w", i, err)
		}
		genomes[i] = g
	}

	p := &Population{
		Config:     config,
		Genomes:    genomes,
		Generation: 0,
		Phase:      Running,
		Mutator:    NewMutator(&config.Genome, rng, logger),
		Controller: controller,
		Reporters:  NewReporterSet(logger),
		Logger:     logger,
		genStart:   time.Now(),
	}
	return p, nil
}

// AliveCount returns the number of genomes whose episode is still running.
func (p *Population) AliveCount() int {
	n := 0
	for _, g := range p.Genomes {
		if g.Alive {
			n++
		}
	}
	return n
}

// Ticks returns the ticks elapsed in the current generation.
func (p *Population) Ticks() int {
	return p.ticks
}

// Tick runs one simulation step over every living genome and advances the
// shared environment once. When the last genome dies the winner is selected
// and the population is replicated before Tick returns.
func (p *Population) Tick(ctx context.Context, env Environment) (TickResult, error) {
	p.Phase = Running
	p.ticks++

	for _, g := range p.Genomes {
		if !g.Alive {
			continue
		}
		env.Integrate(&g.Agent)
		act, _, err := p.Controller.Act(g, env.Sense(&g.Agent))
		if err != nil {
			return TickResult{}, fmt.Errorf("failed to evaluate genome %d in generation %d: %w", g.Key, p.Generation, err)
		}
		env.Apply(&g.Agent, act)
		g.Agent.Ticks++

		if env.Terminated(&g.Agent) {
			p.finish(env, g)
		}
	}

	// Cap reached: end every remaining episode as if it had terminated.
	if p.Config.Neat.MaxTicks > 0 && p.ticks >= p.Config.Neat.MaxTicks {
		for _, g := range p.Genomes {
			if g.Alive {
				p.finish(env, g)
			}
		}
	}

	alive := p.AliveCount()
	if alive > 0 {
		env.Advance()
		return TickResult{Alive: alive}, nil
	}

	stats, err := p.replicate(ctx, env)
	if err != nil {
		return TickResult{}, err
	}
	return TickResult{Alive: len(p.Genomes), GenerationEnded: true, Stats: &stats}, nil
}

// RunGeneration ticks until the current generation ends or ctx is done.
// Cancellation is only observed between ticks.
func (p *Population) RunGeneration(ctx context.Context, env Environment) (GenerationStats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return GenerationStats{}, err
		}
		res, err := p.Tick(ctx, env)
		if err != nil {
			return GenerationStats{}, err
		}
		if res.GenerationEnded {
			return *res.Stats, nil
		}
	}
}

// finish ends a genome's episode and fixes its fitness.
func (p *Population) finish(env Environment, g *Genome) {
	g.Alive = false
	g.Fitness = env.Fitness(&g.Agent)
	p.Logger.Debug("agent terminated", "generation", p.Generation, "genome", g.Key,
		"ticks", g.Agent.Ticks, "fitness", g.Fitness)
}

// replicate selects the winner, rebirths every genome from it and resets
// the environment.
func (p *Population) replicate(ctx context.Context, env Environment) (GenerationStats, error) {
	p.Phase = SelectingAndReplicating

	winner, err := SelectWinner(p.Genomes)
	if err != nil {
		return GenerationStats{}, err
	}
	stats := p.collectStats(env, winner)

	// Every genome, the winner included, inherits from a frozen copy.
	template := winner.Clone()
	p.Winner = template
	stats.Winner = template

	for _, g := range p.Genomes {
		g.Reset()
		report := p.Mutator.Mutate(g, template)
		stats.InheritanceGaps += report.InheritanceGaps
		if report.NeuronAdded {
			stats.NeuronsAdded++
		}
		if report.ConnectionAdded {
			stats.ConnectionsAdded++
		}
		if err := g.Validate(); err != nil {
			return GenerationStats{}, fmt.Errorf("genome %d after mutation: %w", g.Key, err)
		}
	}

	env.Reset()
	p.Generation++
	p.ticks = 0
	p.genStart = time.Now()
	p.Phase = Running

	// A generation that finished is persisted even if the run is stopping.
	p.Reporters.GenerationEnd(context.WithoutCancel(ctx), stats)
	return stats, nil
}

// collectStats summarizes the finished generation before genomes are reset.
func (p *Population) collectStats(env Environment, winner *Genome) GenerationStats {
	fitnesses := make([]float64, len(p.Genomes))
	for i, g := range p.Genomes {
		fitnesses[i] = g.Fitness
	}
	score := 0
	if s, ok := env.(Scorer); ok {
		score = s.Score()
	}
	return GenerationStats{
		Score:       score,
		Generation:  p.Generation,
		BestFitness: winner.Fitness,
		MeanFitness: Mean(fitnesses),
		MinFitness:  MinFloat(fitnesses),
		Ticks:       p.ticks,
		Neurons:     len(winner.Neurons),
		Connections: winner.EnabledConnections(),
		Duration:    time.Since(p.genStart),
	}
}

// SelectWinner returns the genome with the highest fitness. Ties go to the
// first genome in order.
func SelectWinner(genomes []*Genome) (*Genome, error) {
	if len(genomes) == 0 {
		return nil, ErrNoGenomes
	}
	best := genomes[0]
	for _, g := range genomes[1:] {
		if g.Fitness > best.Fitness {
			best = g
		}
	}
	return best, nil
}
