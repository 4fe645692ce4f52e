// Package domain defines the catalog entities and their closed choice sets.
package domain

// Kind names one catalog entity kind.
type Kind string

const (
	// KindLifeSituation is the top-level catalog node.
	KindLifeSituation Kind = "life_situation"
	// KindService is the middle catalog node, owned by a life situation.
	KindService Kind = "service"
	// KindProcess is the leaf catalog node, owned by a service.
	KindProcess Kind = "process"
)

// Kinds returns all catalog entity kinds in tree order.
func Kinds() []Kind {
	return []Kind{KindLifeSituation, KindService, KindProcess}
}

// ParseKind resolves a kind from its wire name.
func ParseKind(value string) (Kind, bool) {
	switch Kind(value) {
	case KindLifeSituation, KindService, KindProcess:
		return Kind(value), true
	}
	return "", false
}
