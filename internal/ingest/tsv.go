package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/address-classifier/app/models"
)

// ErrMissingColumn header không có cột địa chỉ hoặc cột quốc gia
var ErrMissingColumn = errors.New("missing column")

const (
	DefaultAddressColumn = "person_address"
	DefaultCountryColumn = "person_ctry_code"
)

// Options cấu hình đọc file
type Options struct {
	AddressColumn string
	CountryColumn string
	Comma         rune
}

func (o Options) withDefaults() Options {
	if o.AddressColumn == "" {
		o.AddressColumn = DefaultAddressColumn
	}
	if o.CountryColumn == "" {
		o.CountryColumn = DefaultCountryColumn
	}
	if o.Comma == 0 {
		o.Comma = '\t'
	}
	return o
}

// Dataset các bản ghi đọc được cùng header gốc
type Dataset struct {
	Header       []string
	AddressIndex int
	CountryIndex int
	Records      []models.AddressRecord
}

// ReadFile đọc file tab-delimited có header
func ReadFile(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read đọc records từ r. Giá trị thiếu được coi là chuỗi rỗng; mọi cột được giữ lại trong Columns.
func Read(r io.Reader, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.Comma = opts.Comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	ds := &Dataset{
		Header:       header,
		AddressIndex: indexOf(header, opts.AddressColumn),
		CountryIndex: indexOf(header, opts.CountryColumn),
	}
	if ds.AddressIndex < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.AddressColumn)
	}
	if ds.CountryIndex < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.CountryColumn)
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		columns := make([]string, len(header))
		copy(columns, row)
		ds.Records = append(ds.Records, models.AddressRecord{
			RawAddress:  columns[ds.AddressIndex],
			CountryCode: strings.TrimSpace(columns[ds.CountryIndex]),
			Columns:     columns,
		})
	}

	return ds, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
