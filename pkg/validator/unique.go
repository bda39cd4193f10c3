package validator

import (
	"fmt"
	"strings"
)

// checkUnique flags repeated values in unique columns.
//
// rows[i] is the 1-based input row that produced data[i]. The first
// occurrence of a value is never flagged; every later repeat is.
func checkUnique(data []Record, rows []int, cfg *Config) []Finding {
	if len(data) == 0 {
		return nil
	}

	var findings []Finding
	for i := range cfg.Headers {
		col := &cfg.Headers[i]
		if !col.Unique {
			continue
		}

		seen := make(map[string]struct{}, len(data))
		for j, rec := range data {
			key := "missing:"
			if v, ok := rec[col.InputName]; ok {
				key = uniqueKey(v)
			}
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				continue
			}

			msg := defaultUniqueError(col.Name, rows[j])
			if col.UniqueError != nil {
				msg = col.UniqueError(col.Name, rows[j])
			}
			findings = append(findings, Finding{
				RowIndex: rows[j],
				Kind:     FindingUnique,
				Message:  msg,
			})
		}
	}

	return findings
}

// uniqueKey renders a projected value so that equal values share a key and
// values of different kinds never collide. A key absent from a short row is
// keyed separately by checkUnique, so it never matches an explicit nil.
func uniqueKey(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil:"
	case string:
		return "s:" + val
	case []string:
		return "a:" + strings.Join(val, "\x1f")
	default:
		return fmt.Sprintf("%T:%v", val, val)
	}
}
