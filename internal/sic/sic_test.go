package sic

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptionFor(t *testing.T) {
	assert.Equal(t, "Manufacture of rubber tyres and tubes", DescriptionFor("22110"))
	assert.Equal(t, "Unknown", DescriptionFor("00000"))
}

func TestAllSortedAndComplete(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	assert.Len(t, all, len(descriptions))
	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool { return all[i].Code < all[j].Code }))
	for _, c := range all {
		require.Len(t, c.Code, 5)
		require.NotEmpty(t, c.Description)
	}
}
