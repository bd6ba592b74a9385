package assembly

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hejaii/BidGenerate/internal/types"
)

func TestAssemble_ReordersByOrderIndex(t *testing.T) {
	fragments := []types.Fragment{
		{RequirementID: "c", OrderIndex: 2, Title: "Third", Content: "cc"},
		{RequirementID: "a", OrderIndex: 0, Title: "First", Content: "aa"},
		{RequirementID: "b", OrderIndex: 1, Title: "Second", Content: "bb"},
	}

	body, err := Assemble(fragments)
	require.NoError(t, err)

	require.Len(t, body.Fragments, 3)
	assert.Equal(t, "a", body.Fragments[0].RequirementID)
	assert.Equal(t, "b", body.Fragments[1].RequirementID)
	assert.Equal(t, "c", body.Fragments[2].RequirementID)

	first := strings.Index(body.Text, "# First")
	second := strings.Index(body.Text, "# Second")
	third := strings.Index(body.Text, "# Third")
	assert.True(t, first < second && second < third)
}

func TestAssemble_PageBreakBetweenPageHintGroups(t *testing.T) {
	fragments := []types.Fragment{
		{RequirementID: "a", OrderIndex: 0, PageHint: 1, Title: "A", Content: "aa"},
		{RequirementID: "b", OrderIndex: 1, PageHint: 1, Title: "B", Content: "bb"},
		{RequirementID: "c", OrderIndex: 2, PageHint: 2, Title: "C", Content: "cc"},
	}

	body, err := Assemble(fragments)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(body.Text, PageBreakMarker))
	breakPos := strings.Index(body.Text, PageBreakMarker)
	assert.Greater(t, breakPos, strings.Index(body.Text, "# B"))
	assert.Less(t, breakPos, strings.Index(body.Text, "# C"))
}

func TestAssemble_DuplicateOrderIndexFails(t *testing.T) {
	fragments := []types.Fragment{
		{RequirementID: "a", OrderIndex: 0, Title: "A", Content: "aa"},
		{RequirementID: "b", OrderIndex: 0, Title: "B", Content: "bb"},
	}

	_, err := Assemble(fragments)
	require.Error(t, err)

	var violation *ContractViolationError
	require.ErrorAs(t, err, &violation)
	assert.Contains(t, violation.Message, "duplicate order_index 0")
}

func TestAssemble_NeverDropsFragments(t *testing.T) {
	fragments := []types.Fragment{
		{RequirementID: "a", OrderIndex: 0, Title: "A", Content: "aa"},
		{RequirementID: "b", OrderIndex: 1, Title: "B", Content: "", Placeholder: true},
	}

	body, err := Assemble(fragments)
	require.NoError(t, err)
	assert.Len(t, body.Fragments, 2)
	assert.Contains(t, body.Text, "# B")
	assert.Equal(t, 1, body.PlaceholderCount())
}

func TestAssemble_Empty(t *testing.T) {
	body, err := Assemble(nil)
	require.NoError(t, err)
	assert.Empty(t, body.Fragments)
	assert.Empty(t, body.Text)
}
