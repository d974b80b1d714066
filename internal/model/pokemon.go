// Package model contains the domain types shared by the pipeline stages.
package model

// NamedResource is the {name, url} pair the upstream API uses for references.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// TypeSlot is one entry of a record's type list.
type TypeSlot struct {
	Type NamedResource `json:"type"`
	Slot int           `json:"slot"`
}

// StatEntry is one entry of a record's stat list.
type StatEntry struct {
	Stat     NamedResource `json:"stat"`
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort,omitempty"`
}

// RawRecord is a creature record as returned by the upstream API. Only the
// fields the pipeline reads are decoded; absent fields keep their zero value.
type RawRecord struct {
	BaseExperience *int        `json:"base_experience"`
	Name           string      `json:"name"`
	Types          []TypeSlot  `json:"types"`
	Stats          []StatEntry `json:"stats"`
	ID             int         `json:"id"`
}

// Stat names as published by the upstream API.
const (
	StatHP      = "hp"
	StatAttack  = "attack"
	StatDefense = "defense"
)

// Stat returns the base value of the named stat and whether it was present.
func (r RawRecord) Stat(name string) (int, bool) {
	for _, s := range r.Stats {
		if s.Stat.Name == name {
			return s.BaseStat, true
		}
	}
	return 0, false
}

// TypeNames returns the type names in upstream order.
func (r RawRecord) TypeNames() []string {
	names := make([]string, 0, len(r.Types))
	for _, t := range r.Types {
		if t.Type.Name != "" {
			names = append(names, t.Type.Name)
		}
	}
	return names
}
