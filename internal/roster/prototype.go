package roster

import (
	"fmt"

	"github.com/shipmanifest/extension/pkg/core"
)

var (
	maleNames   = []string{"Adlan", "Bartdorf", "Corbo", "Dilsted", "Eribald", "Fredbert", "Gusmore", "Hanly", "Jedmund", "Kirbal"}
	femaleNames = []string{"Alvie", "Brenna", "Calla", "Delyra", "Elsamy", "Fiora", "Gwenlie", "Hallie", "Jenlyn", "Kathrie"}
	traits      = []string{core.TraitPilot, core.TraitEngineer, core.TraitScientist}
)

const surname = "Kerman"

// Prototype returns fields for a new member whose name is not yet taken.
func (r *Roster) Prototype() Buffer {
	b := Buffer{
		Trait:     traits[r.rng.IntN(len(traits))],
		Courage:   r.rng.Float64(),
		Stupidity: r.rng.Float64(),
		Badass:    r.rng.IntN(10) == 0,
	}
	pool := maleNames
	if r.rng.IntN(2) == 1 {
		b.Gender = core.Female
		pool = femaleNames
	}

	first := pool[r.rng.IntN(len(pool))]
	b.Name = first + " " + surname
	for i := 2; r.Exists(b.Name); i++ {
		b.Name = fmt.Sprintf("%s %s %d", first, surname, i)
	}
	return b
}
