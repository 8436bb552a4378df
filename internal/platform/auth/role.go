package auth

import "fmt"

// Role is the single access role carried by an identity. The set is closed;
// every identity has exactly one role at a time.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDoctor     Role = "doctor"
	RolePatient    Role = "patient"
	RolePharmacy   Role = "pharmacy"
	RoleLaboratory Role = "laboratory"
	RoleDataEntry  Role = "dataentry"
)

// Roles lists every valid role value.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDoctor, RolePatient, RolePharmacy, RoleLaboratory, RoleDataEntry}
}

// ParseRole validates a raw role string against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient, RolePharmacy, RoleLaboratory, RoleDataEntry:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
