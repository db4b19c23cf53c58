package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMembers(t *testing.T) {
	ids, err := parseMembers(" 11111111-1111-4111-8111-111111111111, ,22222222-2222-4222-8222-222222222222,")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"11111111-1111-4111-8111-111111111111",
		"22222222-2222-4222-8222-222222222222",
	}, ids)

	ids, err = parseMembers("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseMembers("alice")
	assert.Error(t, err)
}
