package core

import (
	"fmt"
	"strings"
)

// Remap shapes a consolidated table for the destination described by def. It works
// on a copy:
//
//  1. columns whose name contains def.DropPattern are removed;
//  2. merge groups are applied in order;
//  3. one-to-one renames are applied;
//  4. columns with a FieldSpec are coerced to its type;
//  5. NaN and infinities anywhere become null.
//
// Pass-through definitions only run the last step.
func Remap(t *Table, def TableDefinition) (*Table, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("remap %s: %w", def.Info.Key, err)
	}
	out := t.Clone()

	if !def.Passthrough {
		if def.DropPattern != "" {
			out.DropColumns(func(name string) bool {
				return strings.Contains(name, def.DropPattern)
			})
		}
		for _, g := range def.MergeGroups {
			applyMerge(out, g)
		}
		for i := range out.Columns {
			if to, ok := def.Renames[out.Columns[i].Name]; ok {
				out.Columns[i].Name = to
			}
		}
		for i := range out.Columns {
			spec, ok := def.Spec(out.Columns[i].Name)
			if !ok {
				continue
			}
			vals := out.Columns[i].Values
			for j, v := range vals {
				vals[j] = Coerce(v, spec.Type)
			}
		}
	}

	for i := range out.Columns {
		vals := out.Columns[i].Values
		for j, v := range vals {
			vals[j] = Scrub(v)
		}
	}

	return out, nil
}

// applyMerge collapses the sources of g that exist in t into g.Target.
func applyMerge(t *Table, g MergeGroup) {
	var present []int
	for _, src := range g.Sources {
		if i := t.Index(src); i >= 0 {
			present = append(present, i)
		}
	}

	switch len(present) {
	case 0:
		return
	case 1:
		t.Columns[present[0]].Name = g.Target
		return
	}

	n := t.RowCount()
	merged := make([]Value, n)
	for r := 0; r < n; r++ {
		for _, ci := range present {
			if v := t.Columns[ci].Values[r]; !v.IsNull() {
				merged[r] = v
				break
			}
		}
	}

	drop := make(map[string]bool, len(g.Sources)+1)
	for _, ci := range present {
		drop[t.Columns[ci].Name] = true
	}
	// A pre-existing target column is replaced by the merged one.
	drop[g.Target] = true
	t.DropColumns(func(name string) bool { return drop[name] })
	t.Columns = append(t.Columns, Column{Name: g.Target, Values: merged})
}
