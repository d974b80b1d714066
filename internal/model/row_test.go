package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		want       Category
		experience int
	}{
		{experience: 0, want: CategoryWeak},
		{experience: 49, want: CategoryWeak},
		{experience: 50, want: CategoryMedium},
		{experience: 100, want: CategoryMedium},
		{experience: 101, want: CategoryStrong},
		{experience: 608, want: CategoryStrong},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryFor(tt.experience), "experience %d", tt.experience)
	}
}

func TestRawRecord_Decode(t *testing.T) {
	payload := `{
		"id": 25,
		"name": "pikachu",
		"base_experience": 112,
		"height": 4,
		"types": [{"slot": 1, "type": {"name": "electric", "url": "x"}}],
		"stats": [
			{"base_stat": 35, "effort": 0, "stat": {"name": "hp"}},
			{"base_stat": 55, "effort": 0, "stat": {"name": "attack"}},
			{"base_stat": 40, "effort": 0, "stat": {"name": "defense"}}
		]
	}`

	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))

	assert.Equal(t, 25, rec.ID)
	require.NotNil(t, rec.BaseExperience)
	assert.Equal(t, 112, *rec.BaseExperience)
	assert.Equal(t, []string{"electric"}, rec.TypeNames())

	hp, ok := rec.Stat(StatHP)
	assert.True(t, ok)
	assert.Equal(t, 35, hp)

	_, ok = rec.Stat("speed")
	assert.False(t, ok)
}

func TestRawRecord_NullExperience(t *testing.T) {
	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "base_experience": null}`), &rec))
	assert.Nil(t, rec.BaseExperience)
	assert.Empty(t, rec.TypeNames())
}
