// Package ports fixes the listening port of each proxied hound instance.
// Profiles without a port are still generated but not reachable through the
// search proxy.
package ports

import "sort"

var ports = map[string]int{
	"search":     6080,
	"extensions": 6081,
	"skins":      6082,
	"things":     6083,
	"core":       6084,
	"ooui":       6085,
	"operations": 6086,
	"armchairgm": 6087,
	"milkshake":  6088,
	"bundled":    6089,
	"deployed":   6090,
	"pywikibot":  6091,
	"services":   6092,
}

// For returns the port assigned to a backend.
func For(backend string) (int, bool) {
	port, ok := ports[backend]
	return port, ok
}

// Backends returns the proxied backend names ordered by port.
func Backends() []string {
	names := make([]string, 0, len(ports))
	for name := range ports {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return ports[names[i]] < ports[names[j]] })
	return names
}
