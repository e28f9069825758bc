package probe

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// sentinelSpace is the number of distinct #rrggbb sentinels.
const sentinelSpace = 0x1000000

// Assignment is the bijection between probed names and sentinel colors.
type Assignment struct {
	ByName  map[string]string `json:"byName"`
	ByColor map[string]string `json:"byColor"`
}

// NewAssignment returns an empty assignment.
func NewAssignment() Assignment {
	return Assignment{
		ByName:  make(map[string]string),
		ByColor: make(map[string]string),
	}
}

// Len returns the number of assigned names.
func (a Assignment) Len() int {
	return len(a.ByName)
}

// Put binds name to color. It fails when either side is already bound to
// something else.
func (a Assignment) Put(name, color string) error {
	color = strings.ToLower(color)
	if owner, ok := a.ByColor[color]; ok && owner != name {
		return fmt.Errorf("sentinel %s already assigned to %s", color, owner)
	}
	if prev, ok := a.ByName[name]; ok && prev != color {
		return fmt.Errorf("%s already assigned to %s", name, prev)
	}
	a.ByName[name] = color
	a.ByColor[color] = name
	return nil
}

// Assign gives every name a distinct random sentinel. Names already in
// reuse keep their sentinel. Each draw is checked against every sentinel
// handed out so far and rerolled on collision.
func Assign(names []string, rng *rand.Rand, reuse *Assignment) (Assignment, error) {
	if len(names) > sentinelSpace {
		return Assignment{}, fmt.Errorf("cannot assign %d sentinels from a space of %d", len(names), sentinelSpace)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	a := NewAssignment()
	if reuse != nil {
		for _, name := range names {
			if color, ok := reuse.ByName[name]; ok {
				if err := a.Put(name, color); err != nil {
					return Assignment{}, err
				}
			}
		}
	}

	for _, name := range names {
		if _, ok := a.ByName[name]; ok {
			continue
		}
		color := randomColor(rng)
		for _, taken := a.ByColor[color]; taken; _, taken = a.ByColor[color] {
			color = randomColor(rng)
		}
		a.ByName[name] = color
		a.ByColor[color] = name
	}

	return a, nil
}

func randomColor(rng *rand.Rand) string {
	return fmt.Sprintf("#%06x", rng.IntN(sentinelSpace))
}
