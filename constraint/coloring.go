package constraint

// ColorSets partitions the constraints greedily into ordered, disjoint sets.
// Each sweep walks the unassigned constraints in order and adds a constraint to the
// current set when neither of its nodes is already used by that set.
// Within a set no node appears twice, so a set can be solved in parallel.
func ColorSets(constraints []Distance, nodeCount int) [][]int {
	assigned := make([]bool, len(constraints))
	// stamp[n] == color+1 when node n is used by the current color
	stamp := make([]int, nodeCount)
	remaining := len(constraints)

	var sets [][]int
	for color := 1; remaining > 0; color++ {
		var set []int
		for i := range constraints {
			if assigned[i] {
				continue
			}

			a, b := constraints[i].A, constraints[i].B
			if stamp[a] == color || stamp[b] == color {
				continue
			}

			stamp[a] = color
			stamp[b] = color
			assigned[i] = true
			set = append(set, i)
		}

		remaining -= len(set)
		sets = append(sets, set)
	}

	return sets
}

// MaxNodeCardinality returns the highest number of constraints sharing one node.
// It is a lower bound of the number of colors.
func MaxNodeCardinality(constraints []Distance, nodeCount int) int {
	counts := make([]int, nodeCount)
	maxCount := 0
	for i := range constraints {
		counts[constraints[i].A]++
		if constraints[i].B != constraints[i].A {
			counts[constraints[i].B]++
		}
	}
	for _, count := range counts {
		maxCount = max(maxCount, count)
	}

	return maxCount
}

// Coloring stores the constraints ordered by color:
// the constraints of set i are Constraints[Offsets[i]:Offsets[i+1]]
type Coloring struct {
	Constraints []Distance
	Offsets     []int
}

// Color partitions and reorders the constraints
func Color(constraints []Distance, nodeCount int) Coloring {
	sets := ColorSets(constraints, nodeCount)

	coloring := Coloring{
		Constraints: make([]Distance, 0, len(constraints)),
		Offsets:     make([]int, 1, len(sets)+1),
	}
	for _, set := range sets {
		for _, i := range set {
			coloring.Constraints = append(coloring.Constraints, constraints[i])
		}
		coloring.Offsets = append(coloring.Offsets, len(coloring.Constraints))
	}

	return coloring
}

// Len returns the number of color sets
func (c *Coloring) Len() int {
	if len(c.Offsets) == 0 {
		return 0
	}
	return len(c.Offsets) - 1
}

// Set returns the constraints of the set i
func (c *Coloring) Set(i int) []Distance {
	return c.Constraints[c.Offsets[i]:c.Offsets[i+1]]
}

// From returns the constraints of every set starting at set i
func (c *Coloring) From(i int) []Distance {
	if i >= c.Len() {
		return nil
	}
	return c.Constraints[c.Offsets[i]:]
}
