// Package neat evolves small single-output decision networks with a
// simplified NeuroEvolution of Augmenting Topologies: no crossover and no
// species, one winner per generation.
//
// Every population slot owns one Genome for the whole run. A generation
// lasts until every agent has crashed; the fittest genome then becomes the
// template the whole population inherits its biases and weights from, with a
// small uniform perturbation, before structural mutations may add neurons
// and connections.
//
// Basic usage:
//
//	// Load configuration
//	config, err := neat.LoadConfig("configs/flappy.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a new population against an Environment
//	rng := rand.New(rand.NewSource(42))
//	pop, err := neat.NewPopulation(config, world, nn.Controller{}, rng, logger)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Run for 100 generations
//	for i := 0; i < 100; i++ {
//		stats, err := pop.RunGeneration(ctx, world)
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		fmt.Println(stats.BestFitness)
//	}
package neat
