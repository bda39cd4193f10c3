package validator

// rowOutcome is what a single row contributes to the Result.
type rowOutcome struct {
	findings []Finding
	record   Record
}

// validateRow applies the column rules to one row and projects its cells.
//
// index is the 0-based position of the row in the input. skip marks cells
// already consumed as header names; it may be nil.
func validateRow(row Row, index int, cfg *Config, skip []bool) rowOutcome {
	var out rowOutcome

	if index != 0 && len(row) != len(cfg.Headers) {
		out.findings = append(out.findings, Finding{
			RowIndex: index,
			Kind:     FindingFieldCount,
			Message:  fieldCountError(len(cfg.Headers), len(row), index),
		})
	}

	clean := normalizeRow(row)
	rowNum := index + 1

	for i, cell := range clean {
		if i >= len(cfg.Headers) {
			break
		}
		if skip != nil && skip[i] {
			continue
		}
		col := &cfg.Headers[i]

		if f, ok := checkCell(cell, clean, col, rowNum, cfg.columnLabel(i)); ok {
			out.findings = append(out.findings, f)
		}

		if out.record == nil {
			out.record = make(Record)
		}
		out.record[col.InputName] = project(cell, col)
	}

	return out
}

// checkCell evaluates required, validate and dependent validate in that
// order. Only the first failing rule yields a finding.
func checkCell(cell Cell, row Row, col *ColumnSchema, rowNum int, label string) (Finding, bool) {
	f := Finding{RowIndex: rowNum, ColumnIndex: label}

	switch {
	case col.Required && cell.IsEmpty():
		f.Kind = FindingRequired
		if col.RequiredError != nil {
			f.Message = col.RequiredError(col.Name, rowNum, label)
		} else {
			f.Message = defaultRequiredError(col.Name, rowNum, label)
		}

	case col.Validate != nil && !col.Validate(cell):
		f.Kind = FindingValidate
		if col.ValidateError != nil {
			f.Message = col.ValidateError(col.Name, rowNum, label)
		} else {
			f.Message = defaultValidateError(col.Name, rowNum, label)
		}

	case col.DependentValidate != nil && !col.DependentValidate(cell, row):
		f.Kind = FindingDependent
		if col.ValidateError != nil {
			f.Message = col.ValidateError(col.Name, rowNum, label)
		} else {
			f.Message = defaultDependentError(col.Name, rowNum, label)
		}

	default:
		return Finding{}, false
	}

	return f, true
}
