package model

// Category buckets a record by its base experience.
type Category string

// Category values.
const (
	CategoryStrong Category = "Strong"
	CategoryMedium Category = "Medium"
	CategoryWeak   Category = "Weak"
)

// Experience thresholds used by CategoryFor.
const (
	StrongAbove   = 100
	MediumAtLeast = 50
)

// CategoryFor classifies a base experience value. Values above 100 are
// Strong, 50 through 100 are Medium and anything lower is Weak.
func CategoryFor(baseExperience int) Category {
	switch {
	case baseExperience > StrongAbove:
		return CategoryStrong
	case baseExperience >= MediumAtLeast:
		return CategoryMedium
	default:
		return CategoryWeak
	}
}

// Row is a normalized record of the working table.
type Row struct {
	Name           string
	Types          string
	Category       Category
	ID             int
	BaseExperience int
	HP             int
	Attack         int
	Defense        int
}

// Table is the ordered working table built by the transformer.
type Table []Row
