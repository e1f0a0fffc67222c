package core

import "strconv"

// DedupeColumns renames repeated column names so every name in t is unique. The
// first occurrence keeps its name; later ones get "_1", "_2", ... with the suffix
// incremented until it does not clash with any name already in the table.
func DedupeColumns(t *Table) {
	taken := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		taken[c.Name] = true
	}

	seen := make(map[string]bool, len(t.Columns))
	for i := range t.Columns {
		name := t.Columns[i].Name
		if !seen[name] {
			seen[name] = true
			continue
		}
		j := 1
		candidate := name + "_" + strconv.Itoa(j)
		for taken[candidate] {
			j++
			candidate = name + "_" + strconv.Itoa(j)
		}
		t.Columns[i].Name = candidate
		taken[candidate] = true
		seen[candidate] = true
	}
}

// Consolidate stacks tables vertically. The result has the union of all column
// names in first-seen order; rows keep input order and cells a table lacks are
// null. Each input is deduplicated first, so inputs may be renamed in place.
func Consolidate(tables []*Table) *Table {
	out := &Table{}
	index := make(map[string]int)
	total := 0

	for _, t := range tables {
		if t == nil {
			continue
		}
		DedupeColumns(t)
		n := t.RowCount()

		for _, c := range t.Columns {
			if _, ok := index[c.Name]; ok {
				continue
			}
			index[c.Name] = len(out.Columns)
			out.Columns = append(out.Columns, Column{
				Name:   c.Name,
				Values: make([]Value, total),
			})
		}

		for ci := range out.Columns {
			col := &out.Columns[ci]
			if src, ok := t.Column(col.Name); ok {
				col.Values = append(col.Values, src.Values...)
			} else {
				col.Values = append(col.Values, make([]Value, n)...)
			}
		}
		total += n
	}

	return out
}
