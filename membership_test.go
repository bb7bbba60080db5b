package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticResolver(members map[string][]string) func(string) ([]string, error) {
	return func(group string) ([]string, error) {
		m, ok := members[group]
		if !ok {
			return nil, errors.New("no such group: " + group)
		}
		return m, nil
	}
}

func TestBuildMembershipIndexScenario(t *testing.T) {
	index, err := BuildMembershipIndex([]string{"Finance", "IT"}, staticResolver(map[string][]string{
		"Finance": {"alice"},
		"IT":      {"bob", "alice"},
	}))
	require.NoError(t, err)

	users := []UserRecord{
		{SAMAccountName: "alice"},
		{SAMAccountName: "bob"},
		{SAMAccountName: "carol"},
	}
	augmented := AugmentUsers(users, index)
	require.Len(t, augmented, 3)

	assert.Equal(t, map[string]bool{"Finance": true, "IT": true}, augmented[0].Groups)
	assert.Equal(t, map[string]bool{"Finance": false, "IT": true}, augmented[1].Groups)
	assert.Equal(t, map[string]bool{"Finance": false, "IT": false}, augmented[2].Groups)
}

func TestBuildMembershipIndexDeduplicatesGroups(t *testing.T) {
	lookups := 0
	index, err := BuildMembershipIndex([]string{"Finance", "Finance", "Finance"}, func(group string) ([]string, error) {
		lookups++
		return []string{"alice"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, lookups)
	assert.Equal(t, []string{"Finance"}, index.GroupNames())
}

func TestBuildMembershipIndexEmptyGroup(t *testing.T) {
	index, err := BuildMembershipIndex([]string{"Empty"}, staticResolver(map[string][]string{
		"Empty": {},
	}))
	require.NoError(t, err)

	flags := index.Flags("alice")
	require.Contains(t, flags, "Empty")
	assert.False(t, flags["Empty"])
}

func TestBuildMembershipIndexLookupFailure(t *testing.T) {
	index, err := BuildMembershipIndex([]string{"Finance", "Broken"}, staticResolver(map[string][]string{
		"Finance": {"alice"},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
	assert.Nil(t, index)
}

func TestMembershipIndexAddAccumulates(t *testing.T) {
	index := make(MembershipIndex)
	index.Add("Finance", []string{"alice"})
	index.Add("Finance", []string{"bob"})

	assert.True(t, index.Flags("alice")["Finance"])
	assert.True(t, index.Flags("bob")["Finance"])
	assert.Equal(t, []string{"Finance"}, index.GroupNames())
}

func TestMembershipIsCaseSensitive(t *testing.T) {
	index := make(MembershipIndex)
	index.Add("Finance", []string{"alice"})

	assert.True(t, index.Flags("alice")["Finance"])
	assert.False(t, index.Flags("Alice")["Finance"])
}

func TestAugmentUsersRowPreserving(t *testing.T) {
	index := make(MembershipIndex)
	index.Add("Finance", []string{"u1"})

	for _, count := range []int{0, 1, 7} {
		users := make([]UserRecord, count)
		assert.Len(t, AugmentUsers(users, index), count)
	}
}

func TestAugmentUserKeepsAttributes(t *testing.T) {
	index := make(MembershipIndex)
	index.Add("IT", []string{"bob"})

	user := UserRecord{
		SAMAccountName: "bob",
		DisplayName:    "Bob Jones",
		ProxyAddresses: []string{"smtp:bob@example.com", "smtp:bjones@example.com"},
	}
	augmented := AugmentUser(user, index)
	assert.Equal(t, user, augmented.UserRecord)
	assert.True(t, augmented.Groups["IT"])
}
