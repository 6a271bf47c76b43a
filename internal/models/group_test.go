package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupRecipientsUnion(t *testing.T) {
	g := &Group{
		Members: []string{"u1", "u2"},
		Admins:  []string{"u1", "u3"},
	}
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, g.Recipients())
}

func TestGroupRecipientsEmpty(t *testing.T) {
	g := &Group{}
	assert.Empty(t, g.Recipients())
}

func TestGroupRoles(t *testing.T) {
	g := &Group{
		Members: []string{"u2"},
		Admins:  []string{"u1"},
	}
	assert.True(t, g.IsAdmin("u1"))
	assert.False(t, g.IsAdmin("u2"))
	assert.True(t, g.IsMember("u2"))
	// admins count as members even when absent from the member list
	assert.True(t, g.IsMember("u1"))
	assert.False(t, g.IsMember("u4"))
}
