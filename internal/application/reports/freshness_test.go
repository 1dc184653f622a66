package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

func findChange(changes []pkgmodels.BrandChange, field string) (pkgmodels.BrandChange, bool) {
	for _, c := range changes {
		if c.Field == field {
			return c, true
		}
	}
	return pkgmodels.BrandChange{}, false
}

func TestDiffBrand_NoChanges(t *testing.T) {
	brand := map[string]any{"name": "Acme", "social": map[string]any{"twitter": "@acme"}}
	changes, err := diffBrand(brand, brand, []string{"Globex"}, []string{"Globex"})

	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDiffBrand_NestedLeafChanged(t *testing.T) {
	oldBrand := map[string]any{"name": "Acme", "social": map[string]any{"twitter": "@acme"}}
	newBrand := map[string]any{"name": "Acme", "social": map[string]any{"twitter": "@acme_official"}}

	changes, err := diffBrand(oldBrand, newBrand, nil, nil)
	require.NoError(t, err)

	change, ok := findChange(changes, "brand.social.twitter")
	require.True(t, ok, "expected a change for brand.social.twitter, got %+v", changes)
	assert.Equal(t, "@acme", change.OldValue)
	assert.Equal(t, "@acme_official", change.NewValue)
}

func TestDiffBrand_FieldAdded(t *testing.T) {
	oldBrand := map[string]any{"name": "Acme"}
	newBrand := map[string]any{"name": "Acme", "tagline": "Quality first"}

	changes, err := diffBrand(oldBrand, newBrand, nil, nil)
	require.NoError(t, err)

	change, ok := findChange(changes, "brand.tagline")
	require.True(t, ok)
	assert.Nil(t, change.OldValue)
	assert.Equal(t, "Quality first", change.NewValue)
}

func TestDiffBrand_FieldRemoved(t *testing.T) {
	oldBrand := map[string]any{"name": "Acme", "tagline": "Quality first"}
	newBrand := map[string]any{"name": "Acme"}

	changes, err := diffBrand(oldBrand, newBrand, nil, nil)
	require.NoError(t, err)

	change, ok := findChange(changes, "brand.tagline")
	require.True(t, ok)
	assert.Equal(t, "Quality first", change.OldValue)
	assert.Nil(t, change.NewValue)
}

func TestDiffBrand_CompetitorsChanged(t *testing.T) {
	changes, err := diffBrand(nil, nil, []string{"Globex"}, []string{"Globex", "Initech"})
	require.NoError(t, err)

	change, ok := findChange(changes, "competitors")
	require.True(t, ok)
	assert.Equal(t, []string{"Globex"}, change.OldValue)
	assert.Equal(t, []string{"Globex", "Initech"}, change.NewValue)
}

func TestDiffBrand_CompetitorsOrderIgnored(t *testing.T) {
	changes, err := diffBrand(nil, nil, []string{"Globex", "Initech"}, []string{"Initech", "Globex"})
	require.NoError(t, err)

	_, ok := findChange(changes, "competitors")
	assert.False(t, ok, "reordering competitors should not be reported as a change")
}

func TestDiffBrand_EmptyBrands(t *testing.T) {
	changes, err := diffBrand(nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
