package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/querybind/internal/expr"
	"github.com/atlekbai/querybind/internal/schema"
)

func TestIsPathAvailable(t *testing.T) {
	users := testUsersObj(testAddressesObj())

	open := NewBindings()
	assert.True(t, open.IsPathAvailable("firstname", users))
	assert.True(t, open.IsPathAvailable("address.city", users))
	assert.False(t, open.IsPathAvailable("middlename", users))
	assert.False(t, open.IsPathAvailable("", users))

	excluding := NewBindings().Excluding("password", "address")
	assert.False(t, excluding.IsPathAvailable("password", users))
	assert.False(t, excluding.IsPathAvailable("address.city", users), "descendants of excluded paths are hidden")
	assert.True(t, excluding.IsPathAvailable("firstname", users))

	including := NewBindings().Including("firstname", "address")
	assert.True(t, including.IsPathAvailable("firstname", users))
	assert.True(t, including.IsPathAvailable("address.city", users))
	assert.False(t, including.IsPathAvailable("lastname", users))

	unlisted := NewBindings().
		ExcludeUnlisted().
		Including("firstname").
		BindOperation("lastname", Like).
		BindNode("inceptionYear", expr.NewNode("inceptionYear", expr.Orderable)).
		Alias("city", "address.city")
	assert.True(t, unlisted.IsPathAvailable("firstname", users))
	assert.True(t, unlisted.IsPathAvailable("lastname", users))
	assert.True(t, unlisted.IsPathAvailable("inceptionYear", users))
	assert.True(t, unlisted.IsPathAvailable("city", users))
	assert.False(t, unlisted.IsPathAvailable("nickNames", users))
	assert.False(t, unlisted.IsPathAvailable("address.city", users))

	aliasOfHidden := NewBindings().Excluding("address").Alias("city", "address.city")
	assert.False(t, aliasOfHidden.IsPathAvailable("city", users))
}

func TestPropertyPathFollowsAliases(t *testing.T) {
	addresses := testAddressesObj()
	users := testUsersObj(addresses)
	cat := schema.NewCacheFromObjects(users, addresses)
	b := NewBindings().Alias("city", "address.city")

	rp, err := b.PropertyPath(cat, "city", users)
	require.NoError(t, err)
	assert.Equal(t, schema.PropertyPath{Root: users.ID, Path: "address.city"}, rp.Path)
	assert.Same(t, addresses, rp.Owner)

	_, err = b.PropertyPath(cat, "town", users)
	assert.ErrorIs(t, err, schema.ErrUnknownField)
}

func TestLoadBindingsYAML(t *testing.T) {
	doc := `
users:
  exclude: [password]
  aliases:
    city: address.city
  operations:
    firstname: LIKE
addresses:
  include: [city]
  exclude_unlisted: true
`
	all, err := LoadBindingsYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, all, 2)

	users := testUsersObj(testAddressesObj())
	b := all["users"]
	assert.False(t, b.IsPathAvailable("password", users))
	assert.True(t, b.IsPathAvailable("city", users))

	fn, ok := b.BindingFor(schema.PropertyPath{Path: "firstname"})
	require.True(t, ok)
	p, err := fn(firstname, []any{"nyn"})
	require.NoError(t, err)
	assertPredicate(t, expr.LikeIgnoreCase(firstname, "%nyn%"), p)

	addresses := testAddressesObj()
	assert.True(t, all["addresses"].IsPathAvailable("city", addresses))
	assert.False(t, all["addresses"].IsPathAvailable("zip", addresses))
}

func TestLoadBindingsYAMLRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown operation": "users:\n  operations: {firstname: between}",
		"empty alias":       "users:\n  aliases: {city: ''}",
		"empty exclude":     "users:\n  exclude: ['']",
		"not a map":         "- users",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBindingsYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}
