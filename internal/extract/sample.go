package extract

import (
	"fmt"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

// SampleRecords builds count synthetic records with ids 1..count. Every record
// shares one grass/poison template and carries no base experience.
func SampleRecords(count int) []model.RawRecord {
	if count <= 0 {
		return []model.RawRecord{}
	}

	records := make([]model.RawRecord, count)
	for i := range records {
		records[i] = model.RawRecord{
			ID:   i + 1,
			Name: fmt.Sprintf("pokemon_%d", i+1),
			Types: []model.TypeSlot{
				{Slot: 1, Type: model.NamedResource{Name: "grass"}},
				{Slot: 2, Type: model.NamedResource{Name: "poison"}},
			},
			Stats: []model.StatEntry{
				{Stat: model.NamedResource{Name: model.StatHP}, BaseStat: 45},
				{Stat: model.NamedResource{Name: model.StatAttack}, BaseStat: 49},
				{Stat: model.NamedResource{Name: model.StatDefense}, BaseStat: 49},
			},
		}
	}
	return records
}
