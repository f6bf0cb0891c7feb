package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role is the single exclusive tag carried by every authenticated user.
// It selects the default landing view and the set of navigable sections;
// it is not a permission bitset.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleInstructor Role = "INSTRUCTOR"
	RoleStudent    Role = "STUDENT"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleAdmin, RoleInstructor, RoleStudent}

// ParseRole normalizes s (trimmed, upper-cased) and reports whether it
// names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return r, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}

// User is the identity projection held by the session.  It mirrors the
// {id, email, name, role} shape returned by the auth endpoints.
type User struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// UserID is a backend numeric identifier.  Some endpoints serialize it as
// a JSON number, others (JWT subjects) as a string; both decode.
type UserID uint64

// UnmarshalJSON accepts 42, 42.0 and "42".
func (id *UserID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		*id = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			*id = 0
			return nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		*id = UserID(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("invalid user id %q", s)
	}
	*id = UserID(f)
	return nil
}

// String renders the id in base 10.
func (id UserID) String() string { return strconv.FormatUint(uint64(id), 10) }
