package engine

import (
	"math/big"
	"math/rand"
	"sort"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// geneticSeed keeps plans reproducible: the same batch always yields the same plan.
const geneticSeed = 42

// maxScale bounds the common denominator used to pack in integer units.
const maxScale = 1 << 30

// GeneticConfig holds parameters for the genetic order search.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 40,
		Generations:    80,
		MutationRate:   0.2,
		TournamentSize: 3,
		EliteCount:     2,
	}
}

// chromosome is a candidate piece order; decoding it with first fit gives a packing.
type chromosome struct {
	order   []int
	fitness float64
}

// geneticOptimizer searches piece orders. Lengths are scaled to integers by
// their common denominator so each decode stays exact and allocation free.
type geneticOptimizer struct {
	config  GeneticConfig
	lengths []int64
	stock   int64
	kerf    int64
	rng     *rand.Rand
}

// searchOrder returns the piece order the search found best. pieces must
// already be sorted longest first; that order seeds the population, and
// elitism keeps it, so the result never uses more sticks than plain FFD.
func searchOrder(pieces []piece, stock, kerf measure.Measurement, config GeneticConfig, seed int64) []piece {
	if len(pieces) < 3 {
		return pieces
	}
	lengths, stockU, kerfU, ok := scaleToUnits(pieces, stock, kerf)
	if !ok {
		return pieces
	}

	if len(pieces) > 50 {
		config.Generations *= 2
		config.PopulationSize += config.PopulationSize / 2
	}

	g := &geneticOptimizer{
		config:  config,
		lengths: lengths,
		stock:   stockU,
		kerf:    kerfU,
		rng:     rand.New(rand.NewSource(seed)),
	}
	best := g.optimize()

	ordered := make([]piece, len(best.order))
	for i, idx := range best.order {
		ordered[i] = pieces[idx]
	}
	return ordered
}

// scaleToUnits expresses every length as an integer multiple of 1/lcm, where
// lcm is the least common multiple of all denominators.
func scaleToUnits(pieces []piece, stock, kerf measure.Measurement) ([]int64, int64, int64, bool) {
	lcm := big.NewInt(1)
	addDen := func(m measure.Measurement) bool {
		d := m.Denom()
		gcd := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, d.Div(d, gcd))
		return lcm.IsInt64() && lcm.Int64() <= maxScale
	}
	if !addDen(stock) || !addDen(kerf) {
		return nil, 0, 0, false
	}
	for _, p := range pieces {
		if !addDen(p.length) {
			return nil, 0, 0, false
		}
	}

	toUnits := func(m measure.Measurement) (int64, bool) {
		n := new(big.Int).Mul(m.Num(), lcm)
		n.Quo(n, m.Denom())
		return n.Int64(), n.IsInt64()
	}
	stockU, ok := toUnits(stock)
	if !ok {
		return nil, 0, 0, false
	}
	kerfU, _ := toUnits(kerf)
	lengths := make([]int64, len(pieces))
	for i, p := range pieces {
		lengths[i], _ = toUnits(p.length)
	}
	return lengths, stockU, kerfU, true
}

// optimize runs the genetic algorithm and returns the best individual.
func (g *geneticOptimizer) optimize() chromosome {
	population := g.initPopulation()
	for i := range population {
		population[i].fitness = g.evaluate(population[i].order)
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		// Sort by fitness descending (higher is better)
		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		// Elitism: carry over the best individuals unchanged
		eliteCount := g.config.EliteCount
		if eliteCount > len(population) {
			eliteCount = len(population)
		}
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, copyChromosome(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)

			child.fitness = g.evaluate(child.order)
			newPop = append(newPop, child)
		}

		population = newPop
	}

	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
	return population[0]
}

// initPopulation creates random orders plus the longest-first order at index 0.
func (g *geneticOptimizer) initPopulation() []chromosome {
	n := len(g.lengths)
	size := g.config.PopulationSize
	if size < 1 {
		size = 1
	}
	population := make([]chromosome, size)

	greedy := make([]int, n)
	for i := range greedy {
		greedy[i] = i
	}
	population[0] = chromosome{order: greedy}

	for i := 1; i < size; i++ {
		population[i] = chromosome{order: g.rng.Perm(n)}
	}
	return population
}

// evaluate decodes an order with first fit and scores it. Fewer sticks always
// wins; among equal stick counts, fuller sticks score higher, which favors one
// long reusable remnant over several short ones.
func (g *geneticOptimizer) evaluate(order []int) float64 {
	var used []int64
	var cuts []int
	for _, idx := range order {
		length := g.lengths[idx]
		placed := false
		for s := range used {
			need := length
			if cuts[s] > 0 {
				need += g.kerf
			}
			if g.stock-used[s] >= need {
				used[s] += need
				cuts[s]++
				placed = true
				break
			}
		}
		if !placed {
			used = append(used, length)
			cuts = append(cuts, 1)
		}
	}

	var fill float64
	for _, u := range used {
		f := float64(u) / float64(g.stock)
		fill += f * f
	}
	n := float64(len(used))
	return -n + fill/n
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
// It preserves the relative order of genes from both parents.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.order)
	if n <= 2 {
		return copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{order: make([]int, n)}

	inSegment := make([]bool, n)
	for i := point1; i <= point2; i++ {
		child.order[i] = parent1.order[i]
		inSegment[parent1.order[i]] = true
	}

	// Fill remaining positions with genes from parent2 in order
	childIdx := (point2 + 1) % n
	for _, gene := range parent2.order {
		if !inSegment[gene] {
			child.order[childIdx] = gene
			childIdx = (childIdx + 1) % n
		}
	}
	return child
}

// mutate applies swap and inversion mutations.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.order)
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.order[i], c.order[j] = c.order[j], c.order[i]
	}

	// Inversion mutation: reverse a segment (less frequent)
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.order[i], c.order[j] = c.order[j], c.order[i]
			i++
			j--
		}
	}
}

func copyChromosome(c chromosome) chromosome {
	order := make([]int, len(c.order))
	copy(order, c.order)
	return chromosome{order: order, fitness: c.fitness}
}
