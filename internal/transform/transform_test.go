package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

func intPtr(v int) *int { return &v }

func raw(id int, name string, exp *int, types []string, hp, atk, def int) model.RawRecord {
	rec := model.RawRecord{ID: id, Name: name, BaseExperience: exp}
	for i, t := range types {
		rec.Types = append(rec.Types, model.TypeSlot{Slot: i + 1, Type: model.NamedResource{Name: t}})
	}
	rec.Stats = []model.StatEntry{
		{Stat: model.NamedResource{Name: model.StatHP}, BaseStat: hp},
		{Stat: model.NamedResource{Name: model.StatAttack}, BaseStat: atk},
		{Stat: model.NamedResource{Name: model.StatDefense}, BaseStat: def},
	}
	return rec
}

func TestTransform(t *testing.T) {
	records := []model.RawRecord{
		raw(1, "bulbasaur", intPtr(64), []string{"grass", "poison"}, 45, 49, 49),
		raw(6, "CHARIZARD", intPtr(267), []string{"fire", "flying"}, 78, 84, 78),
		raw(10, "caterpie", intPtr(39), []string{"bug"}, 45, 30, 35),
		{ID: 99},
	}

	table := Transform(records)
	require.Len(t, table, 4)

	assert.Equal(t, model.Row{
		ID: 1, Name: "Bulbasaur", Types: "grass, poison", BaseExperience: 64,
		HP: 45, Attack: 49, Defense: 49, Category: model.CategoryMedium,
	}, table[0])
	assert.Equal(t, "Charizard", table[1].Name)
	assert.Equal(t, model.CategoryStrong, table[1].Category)
	assert.Equal(t, model.CategoryWeak, table[2].Category)

	empty := table[3]
	assert.Equal(t, 99, empty.ID)
	assert.Equal(t, MissingName, empty.Name)
	assert.Equal(t, "", empty.Types)
	assert.Zero(t, empty.BaseExperience)
	assert.Zero(t, empty.HP)
	assert.Equal(t, model.CategoryWeak, empty.Category)
}

func TestTransform_PreservesOrderAndCategoryInvariant(t *testing.T) {
	var records []model.RawRecord
	for i, exp := range []int{120, 10, 75, 50, 101, 100, 49} {
		records = append(records, raw(len(records)+10-i, "x", intPtr(exp), []string{"normal"}, 1, 1, 1))
	}

	table := Transform(records)
	require.Len(t, table, len(records))
	for i, row := range table {
		assert.Equal(t, records[i].ID, row.ID)
		assert.Equal(t, model.CategoryFor(row.BaseExperience), row.Category)
	}
}

func TestGroupCounts(t *testing.T) {
	table := model.Table{
		{Types: "grass, poison"},
		{Types: "fire"},
		{Types: "grass"},
		{Types: "poison, flying"},
		{Types: ""},
	}

	counts := GroupCounts(table)

	assert.Equal(t, []model.TypeCount{
		{Type: "grass", Count: 2},
		{Type: "poison", Count: 2},
		{Type: "fire", Count: 1},
		{Type: "flying", Count: 1},
	}, counts)

	total := 0
	for _, c := range counts {
		total += c.Count
	}
	tokens := 0
	for _, row := range table {
		tokens += len(SplitTypes(row.Types))
	}
	assert.Equal(t, tokens, total)
}

func TestGroupAverages(t *testing.T) {
	table := model.Table{
		{Types: "grass, poison", HP: 45, Attack: 49, Defense: 49},
		{Types: "grass", HP: 60, Attack: 62, Defense: 63},
		{Types: "fire", HP: 39, Attack: 52, Defense: 43},
		{Types: "grass", HP: 80, Attack: 82, Defense: 83},
	}

	averages := GroupAverages(table)

	require.Len(t, averages, 3)
	assert.Equal(t, "fire", averages[0].Type)
	assert.Equal(t, "grass", averages[1].Type)
	assert.Equal(t, "poison", averages[2].Type)

	assert.InDelta(t, 61.7, averages[1].HP, 1e-9)
	assert.InDelta(t, 64.3, averages[1].Attack, 1e-9)
	assert.InDelta(t, 65.0, averages[1].Defense, 1e-9)
	assert.InDelta(t, 45.0, averages[2].HP, 1e-9)
}

func TestTopNByExperience(t *testing.T) {
	table := model.Table{
		{ID: 1, BaseExperience: 64},
		{ID: 2, BaseExperience: 142},
		{ID: 3, BaseExperience: 142},
		{ID: 4, BaseExperience: 39},
		{ID: 5, BaseExperience: 236},
		{ID: 6, BaseExperience: 64},
		{ID: 7, BaseExperience: 10},
	}

	top := TopNByExperience(table, 5)

	require.Len(t, top, 5)
	got := make([]int, len(top))
	for i, r := range top {
		got[i] = r.ID
	}
	assert.Equal(t, []int{5, 2, 3, 1, 6}, got)
	assert.Equal(t, 1, table[0].ID, "input must not be reordered")

	assert.Len(t, TopNByExperience(table[:2], 5), 2)
	assert.Empty(t, TopNByExperience(table, 0))
}

func TestEmptyInputs(t *testing.T) {
	assert.Empty(t, Transform(nil))
	assert.Empty(t, GroupCounts(nil))
	assert.Empty(t, GroupAverages(nil))
	assert.Empty(t, TopNByExperience(nil, 5))
}
