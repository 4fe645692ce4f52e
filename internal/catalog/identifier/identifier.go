// Package identifier composes the organization-scoped hierarchical
// identifiers carried by catalog records.
//
// An identifier is the parent's identifier (or the organization code at the
// root level) followed by a 1-based ordinal, joined by dots:
//
//	MIN.1       first life situation of organization MIN
//	MIN.1.2     second service under MIN.1
//	MIN.1.2.3   third process under MIN.1.2
//
// Ordinal state lives in storage under a scope key and is monotonic: a
// deleted sibling never frees its ordinal. Composition here is pure; the
// count-then-insert step happens inside the store's create transaction and
// callers retry a bounded number of times on identifier conflicts.
package identifier

import "fmt"

// Separator joins identifier segments.
const Separator = "."

// MaxAllocationAttempts bounds the transparent retry loop around identifier
// conflicts under concurrent creation.
const MaxAllocationAttempts = 3

// Compose appends the ordinal to the parent prefix. The prefix is the
// organization code at the root level, otherwise the parent's identifier.
func Compose(prefix string, ordinal int64) string {
	return fmt.Sprintf("%s%s%d", prefix, Separator, ordinal)
}

// Scope keys name the parent under which sibling ordinals are counted. They
// are storage keys, never exposed to clients.

// OrganizationScope is the allocation scope for life situations.
func OrganizationScope(organizationID int64) string {
	return fmt.Sprintf("org:%d", organizationID)
}

// LifeSituationScope is the allocation scope for services.
func LifeSituationScope(lifeSituationID int64) string {
	return fmt.Sprintf("lifesituation:%d", lifeSituationID)
}

// ServiceScope is the allocation scope for processes.
func ServiceScope(serviceID int64) string {
	return fmt.Sprintf("service:%d", serviceID)
}
