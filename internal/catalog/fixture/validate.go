package fixture

import "fmt"

// ValidationError 검증 실패 (로딩 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the structural constraints of a fixture document.
// Requirement codes are parsed later, when masks are built.
func Validate(file *File) error {
	families := make(map[string]struct{}, len(file.Families))
	for i, f := range file.Families {
		if f.Code == "" {
			return ValidationError{fmt.Sprintf("families[%d].code", i), "required"}
		}
		if _, dup := families[f.Code]; dup {
			return ValidationError{fmt.Sprintf("families[%d].code", i), "duplicate family " + f.Code}
		}
		families[f.Code] = struct{}{}

		for j, r := range f.Requirements {
			if r.Channel == "" {
				return ValidationError{fmt.Sprintf("families[%d].requirements[%d].channel", i, j), "required"}
			}
			if r.Locale == "" {
				return ValidationError{fmt.Sprintf("families[%d].requirements[%d].locale", i, j), "required"}
			}
		}
	}

	ids := make(map[int64]struct{}, len(file.Products))
	identifiers := make(map[string]struct{}, len(file.Products))
	for i, p := range file.Products {
		if p.ID <= 0 {
			return ValidationError{fmt.Sprintf("products[%d].id", i), "must be > 0"}
		}
		if _, dup := ids[p.ID]; dup {
			return ValidationError{fmt.Sprintf("products[%d].id", i), fmt.Sprintf("duplicate id %d", p.ID)}
		}
		ids[p.ID] = struct{}{}

		if p.Identifier == "" {
			return ValidationError{fmt.Sprintf("products[%d].identifier", i), "required"}
		}
		if _, dup := identifiers[p.Identifier]; dup {
			return ValidationError{fmt.Sprintf("products[%d].identifier", i), "duplicate identifier " + p.Identifier}
		}
		identifiers[p.Identifier] = struct{}{}
	}

	return nil
}
