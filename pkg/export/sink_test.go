package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/nicktill/healthexport/pkg/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeRow(hour, minute, second int, bpm float64) *health.Row {
	row := health.NewRow(health.Key{Year: 24, DayOfYear: 60, DayOfWeek: 3, Hour: hour, Minute: minute, Second: second})
	row.Set(health.BPM, bpm)
	row.Set(health.Movement, 0)
	row.Set(health.PI, 1.25)
	row.Set(health.SpO2, 98)
	return row
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func calendarSchema(t *testing.T) health.Schema {
	t.Helper()
	schema, err := health.SchemaFor(health.VariantCalendar)
	require.NoError(t, err)
	return schema
}

func TestSink_CreatesWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewSink(path, calendarSchema(t), ModeAppend)

	n, err := sink.Write([]*health.Row{completeRow(1, 2, 3, 60)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, sink.Schema.Columns, records[0])
	assert.Equal(t, []string{"24", "60", "3", "1", "2", "3", "60", "0", "1.25", "98"}, records[1])
}

func TestSink_AppendsWithoutSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewSink(path, calendarSchema(t), ModeAppend)

	_, err := sink.Write([]*health.Row{completeRow(1, 0, 0, 60)})
	require.NoError(t, err)
	_, err = sink.Write([]*health.Row{completeRow(2, 0, 0, 61), completeRow(3, 0, 0, 62)})
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, "year", records[0][0])
	assert.Equal(t, "60", records[1][6])
	assert.Equal(t, "61", records[2][6])
	assert.Equal(t, "62", records[3][6])
}

func TestSink_DropsIncompleteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewSink(path, calendarSchema(t), ModeAppend)

	partial := health.NewRow(health.Key{Hour: 4})
	partial.Set(health.BPM, 70)
	partial.Set(health.SpO2, 96)

	n, err := sink.Write([]*health.Row{partial, completeRow(5, 0, 0, 65)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records := readCSV(t, path)
	require.Len(t, records, 2)
	for _, record := range records[1:] {
		assert.Len(t, record, len(sink.Schema.Columns))
		assert.NotContains(t, record, health.Missing)
	}
}

func TestSink_EmptyWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewSink(path, calendarSchema(t), ModeAppend)

	n, err := sink.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSink_CreateModeTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	schema, err := health.SchemaFor(health.VariantTimeOfDay)
	require.NoError(t, err)
	sink := NewSink(path, schema, ModeCreate)

	_, err = sink.Write([]*health.Row{completeRow(6, 7, 8, 70)})
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"hour", "minute", "second", "bpm", "movement", "pi", "spo2"}, records[0])
	assert.Equal(t, []string{"6", "7", "8", "70", "0", "1.25", "98"}, records[1])
}

func TestSink_OpenError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.csv")
	sink := NewSink(path, calendarSchema(t), ModeAppend)

	_, err := sink.Write([]*health.Row{completeRow(1, 0, 0, 60)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
