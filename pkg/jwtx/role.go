package jwtx

import (
	"fmt"
	"strings"
)

// Role is a privilege level. The numeric value is the rank, higher ranks
// satisfy every check that asks for a lower one.
type Role int

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleInstructor
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleStudent:    "student",
	RoleInstructor: "instructor",
	RoleAdmin:      "admin",
}

// ParseRole maps a role name to its Role. Names are case-insensitive.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "instructor":
		return RoleInstructor, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// AtLeast reports whether r ranks at or above min. Unknown roles never
// satisfy anything.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r >= min
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Authorize checks that the identity holds at least the minimum role.
func Authorize(id Identity, min Role) error {
	if !id.Role.AtLeast(min) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientRole, id.Role, min)
	}
	return nil
}
