package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("any")
	require.NoError(t, err)
	assert.Equal(t, Any(), role)

	role, err = ParseRole("user:alice")
	require.NoError(t, err)
	assert.Equal(t, User("alice"), role)

	role, err = ParseRole("group:editors")
	require.NoError(t, err)
	assert.Equal(t, Group("editors"), role)
}

func TestParseRole_Invalid(t *testing.T) {
	for _, input := range []string{"", "user:", "group:", "admin", "user alice"} {
		_, err := ParseRole(input)
		assert.ErrorIs(t, err, ErrInvalidRole, "input %q", input)
	}
}

func TestRole_String_RoundTrip(t *testing.T) {
	for _, role := range []Role{Any(), User("alice"), Group("editors")} {
		parsed, err := ParseRole(role.String())
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}
}

func TestTable_Add_Dedups(t *testing.T) {
	table := NewTable()
	table.Add(Read, User("alice"))
	table.Add(Read, User("alice"))
	table.Add(Read, Group("editors"))

	assert.Len(t, table[Read], 2)
}

func TestTable_Remove(t *testing.T) {
	table := NewTable()
	table.Add(Write, User("alice"))
	table.Add(Write, User("bob"))

	table.Remove(Write, User("alice"))
	assert.Equal(t, []Role{User("bob")}, table[Write])

	// Removing an absent role is a no-op.
	table.Remove(Write, User("carol"))
	assert.Len(t, table[Write], 1)

	table.Remove(Write, User("bob"))
	assert.True(t, table.Empty())
}

func TestTable_Allows_Any(t *testing.T) {
	table := NewTable()
	table.Add(Read, Any())

	assert.True(t, table.Allows(Subject{ID: "anyone"}, Read))
	assert.False(t, table.Allows(Subject{ID: "anyone"}, Write))
}

func TestTable_Allows_User(t *testing.T) {
	table := NewTable()
	table.Add(Write, User("alice"))

	// The user role must match on the id, not the full "user:alice" form.
	assert.True(t, table.Allows(Subject{ID: "alice"}, Write))
	assert.False(t, table.Allows(Subject{ID: "user:alice"}, Write))
	assert.False(t, table.Allows(Subject{ID: "bob"}, Write))
}

func TestTable_Allows_Group(t *testing.T) {
	table := NewTable()
	table.Add(Admin, Group("editors"))

	assert.True(t, table.Allows(Subject{ID: "alice", Groups: []string{"editors"}}, Admin))
	assert.False(t, table.Allows(Subject{ID: "alice", Groups: []string{"viewers"}}, Admin))
	assert.False(t, table.Allows(Subject{ID: "editors"}, Admin))
}

func TestTable_SerializeRoundTrip(t *testing.T) {
	table := NewTable()
	table.Add(Read, Any())
	table.Add(Write, User("alice"))
	table.Add(Write, Group("editors"))

	serialized, err := table.Serialize()
	require.NoError(t, err)

	restored, err := Deserialize(serialized)
	require.NoError(t, err)

	assert.True(t, restored.Allows(Subject{ID: "x"}, Read))
	assert.True(t, restored.Allows(Subject{ID: "alice"}, Write))
	assert.True(t, restored.Allows(Subject{ID: "bob", Groups: []string{"editors"}}, Write))
	assert.False(t, restored.Allows(Subject{ID: "bob"}, Write))
}

func TestTable_Serialize_Deterministic(t *testing.T) {
	a := NewTable()
	a.Add(Read, User("alice"))
	a.Add(Read, User("bob"))

	b := NewTable()
	b.Add(Read, User("bob"))
	b.Add(Read, User("alice"))

	sa, err := a.Serialize()
	require.NoError(t, err)
	sb, err := b.Serialize()
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}

func TestDeserialize_Empty(t *testing.T) {
	table, err := Deserialize("")
	require.NoError(t, err)
	assert.True(t, table.Empty())

	table, err = Deserialize("{}")
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestDeserialize_BadRole(t *testing.T) {
	_, err := Deserialize(`{"read":["wizard:gandalf"]}`)
	assert.ErrorIs(t, err, ErrInvalidRole)
}
