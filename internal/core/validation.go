package core

import (
	"fmt"
	"strings"
)

// ValidationError describes one column the destination will not accept.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateColumns checks a remapped table against def before upload. Every
// column must be declared by a FieldSpec, otherwise the sink rejects each
// batch that carries it. extra names columns the uploader adds itself, such
// as the row hash. Pass-through definitions accept any column.
func ValidateColumns(t *Table, def TableDefinition, extra ...string) []ValidationError {
	if def.Passthrough || len(def.FieldSpecs) == 0 {
		return nil
	}

	var errs []ValidationError
	for _, c := range t.Columns {
		if _, ok := def.Spec(c.Name); ok || containsFold(extra, c.Name) {
			continue
		}
		errs = append(errs, ValidationError{
			Field:   c.Name,
			Message: fmt.Sprintf("column is not defined for %s", def.Info.Key),
		})
	}
	return errs
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
