package irs

type Category string

const (
	CategorySafe     Category = "safe"
	CategoryModerate Category = "moderate"
	CategoryCritical Category = "critical"
)

const (
	ModerateThreshold = 30.0
	CriticalThreshold = 60.0
)

// Categorize depends on the index alone.
func Categorize(index float64) Category {
	switch {
	case index < ModerateThreshold:
		return CategorySafe
	case index < CriticalThreshold:
		return CategoryModerate
	default:
		return CategoryCritical
	}
}

// Label is the user-facing Spanish name of the category.
func (c Category) Label() string {
	switch c {
	case CategorySafe:
		return "Seguro"
	case CategoryModerate:
		return "Moderado"
	case CategoryCritical:
		return "Crítico"
	default:
		return ""
	}
}
