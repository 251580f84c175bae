// Package permissions implements the role-based access table attached to
// each document. It is pure logic with no I/O: the serialized table
// travels in the document row and callers decide when to consult it.
package permissions

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Permission string

const (
	Read  Permission = "read"
	Write Permission = "write"
	Admin Permission = "admin"
)

var ErrInvalidRole = errors.New("invalid role")

type RoleKind int

const (
	KindAny RoleKind = iota
	KindUser
	KindGroup
)

// Role identifies an access-control subject: the wildcard, a specific
// user, or a specific group.
type Role struct {
	Kind RoleKind
	ID   string
}

func Any() Role            { return Role{Kind: KindAny} }
func User(id string) Role  { return Role{Kind: KindUser, ID: id} }
func Group(id string) Role { return Role{Kind: KindGroup, ID: id} }

// ParseRole parses the storage/wire form: "any", "user:<id>" or
// "group:<id>".
func ParseRole(s string) (Role, error) {
	if s == "any" {
		return Any(), nil
	}
	if id, ok := strings.CutPrefix(s, "user:"); ok && id != "" {
		return User(id), nil
	}
	if id, ok := strings.CutPrefix(s, "group:"); ok && id != "" {
		return Group(id), nil
	}
	return Role{}, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func (r Role) String() string {
	switch r.Kind {
	case KindUser:
		return "user:" + r.ID
	case KindGroup:
		return "group:" + r.ID
	default:
		return "any"
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Subject is the authenticated caller a permission check runs against:
// a user id plus the ids of every group the user belongs to.
type Subject struct {
	ID     string
	Groups []string
}

func (s Subject) inGroup(id string) bool {
	for _, g := range s.Groups {
		if g == id {
			return true
		}
	}
	return false
}

// Table maps a permission to the roles that hold it. Role lists are
// deduplicated and order-insensitive.
type Table map[Permission][]Role

func NewTable() Table {
	return Table{}
}

// Add grants a role. Duplicate grants are ignored.
func (t Table) Add(p Permission, r Role) {
	for _, existing := range t[p] {
		if existing == r {
			return
		}
	}
	t[p] = append(t[p], r)
}

// Remove revokes a role. Removing an absent role is a no-op.
func (t Table) Remove(p Permission, r Role) {
	roles := t[p]
	for i, existing := range roles {
		if existing == r {
			t[p] = append(roles[:i], roles[i+1:]...)
			if len(t[p]) == 0 {
				delete(t, p)
			}
			return
		}
	}
}

// Allows reports whether the subject holds the permission: directly,
// through one of its groups, or via the wildcard role.
func (t Table) Allows(subject Subject, p Permission) bool {
	for _, role := range t[p] {
		switch role.Kind {
		case KindAny:
			return true
		case KindUser:
			if role.ID == subject.ID {
				return true
			}
		case KindGroup:
			if subject.inGroup(role.ID) {
				return true
			}
		}
	}
	return false
}

// Empty reports whether no roles are granted at all. An empty table is
// the default for new documents and means the document is unrestricted.
func (t Table) Empty() bool {
	return len(t) == 0
}

// Serialize encodes the table for the documents.permissions column.
// Role lists are sorted so equal tables serialize identically.
func (t Table) Serialize() (string, error) {
	out := make(map[Permission][]string, len(t))
	for p, roles := range t {
		ss := make([]string, len(roles))
		for i, r := range roles {
			ss[i] = r.String()
		}
		sort.Strings(ss)
		out[p] = ss
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func Deserialize(s string) (Table, error) {
	if s == "" {
		return NewTable(), nil
	}
	var raw map[Permission][]string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse permissions: %w", err)
	}
	t := NewTable()
	for p, roles := range raw {
		for _, rs := range roles {
			role, err := ParseRole(rs)
			if err != nil {
				return nil, err
			}
			t.Add(p, role)
		}
	}
	return t, nil
}
