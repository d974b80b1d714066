package model

// TypeCount is the number of records carrying a type.
type TypeCount struct {
	Type  string
	Count int
}

// TypeAverage holds the per-type means of the three base stats, rounded to
// one decimal place.
type TypeAverage struct {
	Type    string
	HP      float64
	Attack  float64
	Defense float64
}
