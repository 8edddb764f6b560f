package constants

// Category is the report bucket a file lands in once its processing resolves.
type Category string

const (
	CategoryProcessed        Category = "processed"
	CategoryDuplicates       Category = "duplicates"
	CategoryErrors           Category = "errors"
	CategoryAlreadyProcessed Category = "already_processed"
)

var allCategories = []Category{
	CategoryProcessed,
	CategoryDuplicates,
	CategoryErrors,
	CategoryAlreadyProcessed,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Label is the Spanish wording used in the spreadsheet "Resultado" column.
func (c Category) Label() string {
	switch c {
	case CategoryProcessed:
		return "PROCESADO"
	case CategoryDuplicates:
		return "DUPLICADO"
	case CategoryErrors:
		return "ERROR"
	case CategoryAlreadyProcessed:
		return "YA PROCESADO"
	default:
		return string(c)
	}
}
