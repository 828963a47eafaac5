// Package monitor exports evolution progress as Prometheus metrics.
package monitor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baldhumanity/neat-flappy/neat"
)

const namespace = "neatflappy"

// Reporter updates Prometheus collectors at the end of every generation.
type Reporter struct {
	generations     prometheus.Counter
	bestFitness     prometheus.Gauge
	meanFitness     prometheus.Gauge
	score           prometheus.Gauge
	winnerNeurons   prometheus.Gauge
	winnerConns     prometheus.Gauge
	generationTicks prometheus.Histogram
	mutations       *prometheus.CounterVec
	inheritanceGaps prometheus.Counter
}

// NewReporter creates the collectors and registers them with reg.
func NewReporter(reg prometheus.Registerer) (*Reporter, error) {
	r := &Reporter{
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generations completed",
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Fitness of the last generation winner",
		}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_fitness",
			Help:      "Mean fitness of the last generation",
		}),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Obstacles cleared in the last generation",
		}),
		winnerNeurons: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "winner_neurons",
			Help:      "Neuron count of the last generation winner",
		}),
		winnerConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "winner_enabled_connections",
			Help:      "Enabled connection count of the last generation winner",
		}),
		generationTicks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_ticks",
			Help:      "Simulation ticks per generation",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "structural_mutations_total",
			Help:      "Structural mutations applied, by kind",
		}, []string{"kind"}),
		inheritanceGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inheritance_gaps_total",
			Help:      "Neurons and connections with no counterpart in the winner",
		}),
	}

	for _, c := range []prometheus.Collector{
		r.generations, r.bestFitness, r.meanFitness, r.score, r.winnerNeurons,
		r.winnerConns, r.generationTicks, r.mutations, r.inheritanceGaps,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// GenerationEnd implements neat.Reporter.
func (r *Reporter) GenerationEnd(_ context.Context, s neat.GenerationStats) error {
	r.generations.Inc()
	r.bestFitness.Set(s.BestFitness)
	r.meanFitness.Set(s.MeanFitness)
	r.score.Set(float64(s.Score))
	r.winnerNeurons.Set(float64(s.Neurons))
	r.winnerConns.Set(float64(s.Connections))
	r.generationTicks.Observe(float64(s.Ticks))
	r.mutations.WithLabelValues("add_neuron").Add(float64(s.NeuronsAdded))
	r.mutations.WithLabelValues("add_connection").Add(float64(s.ConnectionsAdded))
	r.inheritanceGaps.Add(float64(s.InheritanceGaps))
	return nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ neat.Reporter = (*Reporter)(nil)
