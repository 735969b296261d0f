package rbac

import "time"

// Snapshot is what token issuance embeds: the resolved permission set, the
// role names it came from, and the emergency flag. It is copied into the
// token at issue time and never mutated afterwards.
type Snapshot struct {
	Permissions         PermissionSet
	Roles               []string
	CanTriggerEmergency bool
}

// Resolve derives a permission snapshot from a set of role assignments.
// Only effective assignments contribute; the result is the union of each
// role's tier bundle, so the outcome is independent of assignment order.
// Zero effective assignments yield an empty set with the emergency flag off.
func Resolve(assignments []Assignment, now time.Time) Snapshot {
	snap := Snapshot{
		Permissions: make(PermissionSet),
		Roles:       []string{},
	}

	for _, a := range assignments {
		if !a.Effective(now) {
			continue
		}
		snap.Permissions.Add(BundleFor(a.Role.AccessLevel)...)
		snap.Roles = append(snap.Roles, a.Role.Name)
		if a.Role.CanTriggerEmergency {
			snap.CanTriggerEmergency = true
		}
	}

	return snap
}
