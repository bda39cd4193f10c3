package validator

// matchHeader checks row 0 against the configured column names.
//
// In strict mode every mismatch is a finding and the row never reaches the
// projector. In header-optional mode the cells that match are marked as
// consumed; the caller validates the remaining cells as data.
func matchHeader(row Row, cfg *Config) (findings []Finding, consumed []bool) {
	consumed = make([]bool, len(row))

	if !cfg.IsHeaderNameOptional && len(row) != len(cfg.Headers) {
		for i, col := range cfg.Headers {
			if i < len(row) && Normalize(row[i]).String() == col.Name {
				continue
			}
			findings = append(findings, Finding{
				Kind:    FindingHeaderCount,
				Message: defaultHeaderCountError(col.Name),
			})
		}
	}

	for i, cell := range row {
		if i >= len(cfg.Headers) {
			break
		}
		col := &cfg.Headers[i]
		value := Normalize(cell).String()

		if cfg.IsHeaderNameOptional {
			consumed[i] = value == col.Name
			continue
		}

		consumed[i] = true
		if value == col.Name {
			continue
		}

		label := cfg.columnLabel(i)
		msg := defaultHeaderError(value, col.Name, 1, label)
		if col.HeaderError != nil {
			msg = col.HeaderError(value, col.Name, 1, label)
		}
		findings = append(findings, Finding{
			RowIndex:    1,
			ColumnIndex: label,
			Kind:        FindingHeader,
			Message:     msg,
		})
	}

	return findings, consumed
}
