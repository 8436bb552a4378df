package profile

import (
	"github.com/medvault/medvault/internal/platform/auth"
)

// Kind is the closed set of role-profile variants. Adding a kind means
// extending the switches below; the compiler has no exhaustiveness check, so
// kindRoles is the single source of truth and every dispatch goes through it.
type Kind string

const (
	KindPatient    Kind = "patient"
	KindDoctor     Kind = "doctor"
	KindPharmacy   Kind = "pharmacy"
	KindLaboratory Kind = "laboratory"
	KindDataEntry  Kind = "dataentry"
)

var kindRoles = map[Kind]auth.Role{
	KindPatient:    auth.RolePatient,
	KindDoctor:     auth.RoleDoctor,
	KindPharmacy:   auth.RolePharmacy,
	KindLaboratory: auth.RoleLaboratory,
	KindDataEntry:  auth.RoleDataEntry,
}

// Kinds returns every profile kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindPatient, KindDoctor, KindPharmacy, KindLaboratory, KindDataEntry}
}

// Role returns the identity role a profile of this kind confers.
func (k Kind) Role() auth.Role {
	return kindRoles[k]
}

// Valid reports whether k is a member of the closed set.
func (k Kind) Valid() bool {
	_, ok := kindRoles[k]
	return ok
}

// KindForRole maps an identity role to its profile kind. Admin has no
// profile, so the second return is false for it.
func KindForRole(r auth.Role) (Kind, bool) {
	for k, role := range kindRoles {
		if role == r {
			return k, true
		}
	}
	return "", false
}
