package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	input := "id\tperson_address\tperson_ctry_code\n" +
		"1\t6-29, Nishiki 3-chome Naka-ku, Nagoya-shi, Aichi 4608625\tJP\n" +
		"2\tHauptstrasse 12, 10115 Berlin\t DE \n" +
		"3\t\n"

	ds, err := Read(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "person_address", "person_ctry_code"}, ds.Header)
	assert.Equal(t, 1, ds.AddressIndex)
	require.Len(t, ds.Records, 3)

	assert.Equal(t, "6-29, Nishiki 3-chome Naka-ku, Nagoya-shi, Aichi 4608625", ds.Records[0].RawAddress)
	assert.Equal(t, "JP", ds.Records[0].CountryCode)
	assert.Equal(t, "DE", ds.Records[1].CountryCode)
	assert.Equal(t, []string{"2", "Hauptstrasse 12, 10115 Berlin", " DE "}, ds.Records[1].Columns)

	assert.Equal(t, "", ds.Records[2].RawAddress)
	assert.Equal(t, "", ds.Records[2].CountryCode)
	assert.Len(t, ds.Records[2].Columns, 3)
}

func TestRead_CustomColumns(t *testing.T) {
	input := "addr;cc\n\"Rue de Rivoli 1; Paris\";FR\n"

	ds, err := Read(strings.NewReader(input), Options{AddressColumn: "addr", CountryColumn: "cc", Comma: ';'})
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "Rue de Rivoli 1; Paris", ds.Records[0].RawAddress)
}

func TestRead_MissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("id\tperson_address\n1\tx\n"), Options{})
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = Read(strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.tsv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffperson_address\tperson_ctry_code\nHauptstrasse 12, 10115 Berlin\tDE\n"), 0o644))

	ds, err := ReadFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "DE", ds.Records[0].CountryCode)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.tsv"), Options{})
	assert.Error(t, err)
}
