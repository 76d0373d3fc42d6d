package synthesize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/concord/internal/report"
)

func TestHeadingCategoriesFiltersGeneric(t *testing.T) {
	reviews := []string{
		"## Overview\nsome intro\n## Security\nbad things\n### Error Handling\nmissing checks",
		"## Security\nrepeat\n## Conclusion\nbye\n## " +
			"This heading is far too long to plausibly be the name of a review category at all\nx",
	}
	cats, err := headingCategories{}.Extract(context.Background(), reviews)
	require.NoError(t, err)

	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Security", "Error Handling"}, names)
}

func TestHeadingCategoriesEmptyInput(t *testing.T) {
	cats, err := headingCategories{}.Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestDefaultCategoriesTaxonomy(t *testing.T) {
	cats, err := defaultCategories{}.Extract(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, cats, 5)
	assert.Equal(t, "Code Quality", cats[0].Name)
	assert.Equal(t, "Security", cats[4].Name)
}

func TestExtractCategoriesFallsThrough(t *testing.T) {
	// No client and no headings in the text: the default taxonomy wins.
	cats := ExtractCategories(context.Background(),
		CategoryStrategies(nil, fastOpts()),
		[]string{"plain prose with no headings at all"}, nil)
	require.Len(t, cats, 5)
	assert.Equal(t, "category_0_code-quality", cats[0].ID)
}

func TestResolveCategory(t *testing.T) {
	cats := []report.Category{
		{ID: "category_0_security", Name: "Security"},
		{ID: "category_1_performance", Name: "Performance"},
	}

	got, matched := resolveCategory("PERFORMANCE", cats)
	assert.True(t, matched)
	assert.Equal(t, "category_1_performance", got.ID)

	got, matched = resolveCategory("Styling", cats)
	assert.False(t, matched)
	assert.Equal(t, "category_0_security", got.ID)

	got, matched = resolveCategory("Styling", nil)
	assert.False(t, matched)
	assert.Equal(t, "Styling", got.Name)
	assert.NotEmpty(t, got.ID)
}
