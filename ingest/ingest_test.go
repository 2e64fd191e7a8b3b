package ingest_test

import (
	"strings"
	"testing"

	"github.com/pipeintel/ilialign/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkbook struct {
	sheets map[string][][]interface{}
	order  []string
}

func (f fakeWorkbook) SheetList() []string { return f.order }

func (f fakeWorkbook) Rows(sheet string) ([][]interface{}, error) {
	return f.sheets[sheet], nil
}

func TestParseWorkbook_YearSheetsAscendingWithSummary(t *testing.T) {
	wb := fakeWorkbook{
		order: []string{"Summary", "2022", "2015"},
		sheets: map[string][][]interface{}{
			"Summary": {
				{"vendor", "tool", "date", "start", "end"}, // header, skipped
				{"Rosen", "MFL", "2015-06-01", 0.0, 1000.0},
				{"Baker Hughes", "UT", "2022-07-01", 0.0, 1000.0},
			},
			"2015": {
				{"Joint Number", "Distance"},
				{"1", "10"},
			},
			"2022": {
				{"Joint Number", "Distance"},
				{"1", "10"},
			},
		},
	}

	runs, err := ingest.ParseWorkbook(wb)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, 2015, runs[0].Year)
	assert.Equal(t, "Rosen", runs[0].Vendor)
	assert.Equal(t, "MFL", runs[0].ToolTypeRaw)
	assert.Equal(t, 1000.0, runs[0].EndOdometerFt)

	assert.Equal(t, 2022, runs[1].Year)
	assert.Equal(t, "Baker Hughes", runs[1].Vendor)
}

func TestParseWorkbook_NoSummarySheet(t *testing.T) {
	wb := fakeWorkbook{
		order: []string{"2019"},
		sheets: map[string][][]interface{}{
			"2019": {
				{"Joint Number", "Distance"},
				{"1", "10"},
			},
		},
	}
	runs, err := ingest.ParseWorkbook(wb)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "", runs[0].Vendor)
	assert.Len(t, runs[0].Rows, 1)
}

func TestParseWorkbook_IgnoresNonYearSheets(t *testing.T) {
	wb := fakeWorkbook{
		order: []string{"Notes", "2019"},
		sheets: map[string][][]interface{}{
			"Notes": {{"free text"}},
			"2019":  {{"h"}, {"v"}},
		},
	}
	runs, err := ingest.ParseWorkbook(wb)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2019, runs[0].Year)
}

func TestParseCSV_HeaderFirst(t *testing.T) {
	csvBody := "Joint Number,Event,Distance\n1,GIRTH WELD,10\n2,METAL LOSS,15\n"
	run, err := ingest.ParseCSV(strings.NewReader(csvBody), 2024)
	require.NoError(t, err)
	assert.Equal(t, 2024, run.Year)
	assert.Equal(t, []string{"Joint Number", "Event", "Distance"}, run.Headers)
	assert.Len(t, run.Rows, 2)
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ingest.ParseCSV(strings.NewReader(""), 2024)
	assert.ErrorIs(t, err, ingest.ErrEmptySheet)
}
