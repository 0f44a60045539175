// location/location.go
//
// Read-only content pack of locations and their role lists. Every
// location carries at least game.MaxPlayers roles so positional role
// assignment never runs short.
package location

import (
	"math/rand"
)

// Location is one entry of the content pack.
type Location struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Pick selects one location uniformly at random and returns its name
// together with a fresh copy of the role list, so callers may shuffle
// in place without touching the catalog.
func Pick(rng *rand.Rand) (string, []string) {
	loc := catalog[rng.Intn(len(catalog))]
	roles := make([]string, len(loc.Roles))
	copy(roles, loc.Roles)
	return loc.Name, roles
}

// Count returns the catalog size.
func Count() int {
	return len(catalog)
}
