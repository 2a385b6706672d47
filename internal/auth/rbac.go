package auth

import (
	"fmt"
	"sort"
)

// Role identifies a wallet session's permission context in the gallery.
type Role string

const (
	RoleCollector Role = "collector"
	RoleAdmin     Role = "admin"
)

// Permission represents an action that can be authorized.
type Permission string

const (
	PermissionViewGallery         Permission = "view_gallery"
	PermissionManageOwnProfile    Permission = "manage_own_profile"
	PermissionManageAnyProfile    Permission = "manage_any_profile"
	PermissionBackfillIdentifiers Permission = "backfill_identifiers"
	PermissionSeedGallery         Permission = "seed_gallery"
	PermissionViewAuditLogs       Permission = "view_audit_logs"
)

var permissionMatrix = map[Role]map[Permission]bool{
	RoleCollector: {
		PermissionViewGallery:      true,
		PermissionManageOwnProfile: true,
	},
	RoleAdmin: {
		PermissionViewGallery:         true,
		PermissionManageOwnProfile:    true,
		PermissionManageAnyProfile:    true,
		PermissionBackfillIdentifiers: true,
		PermissionSeedGallery:         true,
		PermissionViewAuditLogs:       true,
	},
}

func allPermissionsSet() map[Permission]struct{} {
	all := make(map[Permission]struct{})
	for _, rolePerms := range permissionMatrix {
		for permission := range rolePerms {
			all[permission] = struct{}{}
		}
	}
	return all
}

// Roles returns the list of known roles in stable order.
func Roles() []Role {
	return []Role{RoleCollector, RoleAdmin}
}

// Permissions returns all known permissions in stable order.
func Permissions() []Permission {
	all := make([]Permission, 0, len(allPermissionsSet()))
	for permission := range allPermissionsSet() {
		all = append(all, permission)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i] < all[j]
	})
	return all
}

func (r Role) String() string {
	return string(r)
}

func (p Permission) String() string {
	return string(p)
}

// IsAllowed checks a role/permission pair against the RBAC matrix.
func IsAllowed(role Role, permission Permission) bool {
	rolePerms, exists := permissionMatrix[role]
	if !exists {
		return false
	}
	return rolePerms[permission]
}

// MustBeAllowed validates and returns an error useful for API handlers.
func MustBeAllowed(role Role, permission Permission) error {
	if IsAllowed(role, permission) {
		return nil
	}
	return fmt.Errorf("rbac forbidden: role=%s permission=%s", role, permission)
}
