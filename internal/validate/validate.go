// Package validate implements a small declarative entity validator.
//
// Each persistable entity declares a Schema: an ordered list of field rules
// (maximum length, required). Check walks the rules in order and reports the
// first violation, matching the synchronous pre-persistence semantics the
// store relies on.
package validate

import "fmt"

// Field is a single validation rule for one named entity field.
type Field struct {
	Name     string
	Value    string
	Max      int
	Required bool
}

// Schema is the ordered rule set for one entity. Order matters: the first
// violated rule wins.
type Schema []Field

// Check evaluates the schema and returns the first violation, or nil.
func (s Schema) Check() error {
	for _, f := range s {
		if f.Required && f.Value == "" {
			return fmt.Errorf("%s has not been set", f.Name)
		}
		if f.Max > 0 && len(f.Value) > f.Max {
			return fmt.Errorf("%s cannot have string length greater than %d", f.Name, f.Max)
		}
	}
	return nil
}
