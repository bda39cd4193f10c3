package xlsxparser

import (
	"context"
	"fmt"
	"io"

	"github.com/ginjaninja78/csv-file-validator/pkg/csvparser"
	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
	"github.com/xuri/excelize/v2"
)

// Tokenizer reads one worksheet of an XLSX workbook as rows. It implements
// validator.Tokenizer.
type Tokenizer struct {
	// Sheet is the worksheet to read. Empty selects the first sheet.
	Sheet string

	// DynamicTyping converts cells the same way the CSV tokenizer does.
	DynamicTyping bool
}

// Tokenize reads the worksheet. Rows without any content are skipped; the
// trailing empty cells of a row are dropped by the workbook reader.
func (t Tokenizer) Tokenize(ctx context.Context, r io.Reader) ([]validator.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return nil, fmt.Errorf("workbook has no sheet %q", sheet)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	defer rows.Close()

	var out []validator.Row
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if isRowEmpty(cols) {
			continue
		}

		out = append(out, t.toRow(cols))
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return out, nil
}

func (t Tokenizer) toRow(cols []string) validator.Row {
	row := make(validator.Row, len(cols))
	for i, value := range cols {
		if t.DynamicTyping {
			row[i] = csvparser.TypedCell(value)
		} else {
			row[i] = validator.Text(value)
		}
	}
	return row
}
