package validator

import "strings"

// project returns the value stored under the column's InputName.
// Array columns are split on commas with each piece trimmed.
func project(cell Cell, col *ColumnSchema) any {
	if !col.IsArray {
		return cell.Value()
	}

	parts := strings.Split(cell.String(), ",")
	items := make([]string, len(parts))
	for i, p := range parts {
		items[i] = strings.TrimSpace(p)
	}
	return items
}
