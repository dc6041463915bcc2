package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/address-classifier/app/models"
)

const (
	SheetName = "Classified"
	TableName = "Classified"

	tableStyle   = "TableStyleMedium5"
	addressWidth = 70
	incomplete   = "#FF0000"
	complete     = "#00B050"
)

// DefaultHeader cột đầu vào khi bản ghi không mang theo cột gốc
var DefaultHeader = []string{"person_address", "person_ctry_code"}

// Input dữ liệu cho report: header gốc, vị trí cột địa chỉ và kết quả theo thứ tự đầu vào
type Input struct {
	Header       []string
	AddressIndex int
	Results      []models.ClassificationResult
}

// Build tạo workbook: cột đầu vào, sau đó complete, street, house, postal_code, city.
// Mỗi dòng được tô đỏ khi complete=0 và xanh khi complete=1.
func Build(in Input) (*excelize.File, error) {
	header := in.Header
	if len(header) == 0 {
		header = DefaultHeader
		in.AddressIndex = 0
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	columns := uniqueHeader(append(append([]string{}, header...), models.ResultColumns...))
	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, name)
	}

	for r, result := range in.Results {
		row := r + 2
		values := inputValues(result.Record, len(header))
		tuple := result.Resolved.Tuple()

		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(SheetName, cell, v)
		}
		offset := len(header)
		for i, v := range []interface{}{tuple.Complete, tuple.Street, tuple.HouseNumber, tuple.PostalCode, tuple.City} {
			cell, _ := excelize.CoordinatesToCellName(offset+i+1, row)
			f.SetCellValue(SheetName, cell, v)
		}
	}

	lastRow := len(in.Results) + 1
	if lastRow < 2 {
		lastRow = 2
	}
	lastCell, _ := excelize.CoordinatesToCellName(len(columns), lastRow)

	if err := f.AddTable(SheetName, &excelize.Table{
		Range:     "A1:" + lastCell,
		Name:      TableName,
		StyleName: tableStyle,
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to add table: %w", err)
	}

	if in.AddressIndex >= 0 && in.AddressIndex < len(header) {
		col, _ := excelize.ColumnNumberToName(in.AddressIndex + 1)
		f.SetColWidth(SheetName, col, col, addressWidth)
	}

	if len(in.Results) > 0 {
		if err := highlightRows(f, len(header)+1, len(columns), lastRow); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// Write ghi workbook ra w
func Write(w io.Writer, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile ghi workbook ra file .xlsx
func WriteFile(path string, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func highlightRows(f *excelize.File, completeCol, lastCol, lastRow int) error {
	red, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{incomplete}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	green, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{complete}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	col, _ := excelize.ColumnNumberToName(completeCol)
	end, _ := excelize.CoordinatesToCellName(lastCol, lastRow)
	err = f.SetConditionalFormat(SheetName, "A2:"+end, []excelize.ConditionalFormatOptions{
		{Type: "formula", Criteria: fmt.Sprintf("$%s2=0", col), Format: &red},
		{Type: "formula", Criteria: fmt.Sprintf("$%s2=1", col), Format: &green},
	})
	if err != nil {
		return fmt.Errorf("failed to set conditional format: %w", err)
	}
	return nil
}

func inputValues(record models.AddressRecord, width int) []string {
	values := make([]string, width)
	if len(record.Columns) > 0 {
		copy(values, record.Columns)
		return values
	}
	if width > 0 {
		values[0] = record.RawAddress
	}
	if width > 1 {
		values[1] = record.CountryCode
	}
	return values
}

// uniqueHeader table header phải khác nhau và không rỗng
func uniqueHeader(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, len(columns))
	for i, name := range columns {
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		candidate := name
		for n := 2; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}
