package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFor(t *testing.T) {
	cal, err := SchemaFor(VariantCalendar)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "day_of_year", "day_of_week", "hour", "minute", "second", "bpm", "movement", "pi", "spo2"}, cal.Columns)

	tod, err := SchemaFor(VariantTimeOfDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"hour", "minute", "second", "bpm", "movement", "pi", "spo2"}, tod.Columns)

	_, err = SchemaFor("weekly")
	require.Error(t, err)
}

func TestSchemaRecord_Complete(t *testing.T) {
	schema, err := SchemaFor(VariantCalendar)
	require.NoError(t, err)

	row := NewRow(Key{Year: 24, DayOfYear: 32, DayOfWeek: 3, Hour: 7, Minute: 5, Second: 9})
	row.Set(BPM, 61)
	row.Set(Movement, 0)
	row.Set(PI, 2.5)
	row.Set(SpO2, 97)

	record, complete := schema.Record(row)
	assert.True(t, complete)
	assert.Equal(t, []string{"24", "32", "3", "7", "5", "9", "61", "0", "2.5", "97"}, record)
	assert.Len(t, record, len(schema.Columns))
}

func TestSchemaRecord_Missing(t *testing.T) {
	schema, err := SchemaFor(VariantTimeOfDay)
	require.NoError(t, err)

	row := NewRow(Key{Hour: 1})
	row.Set(BPM, 70)

	record, complete := schema.Record(row)
	assert.False(t, complete)
	assert.Equal(t, []string{"1", "0", "0", "70", Missing, Missing, Missing}, record)
}

func TestValid(t *testing.T) {
	assert.False(t, Valid(BPM, 0))
	assert.False(t, Valid(SpO2, -1))
	assert.True(t, Valid(SpO2, 95))
	assert.True(t, Valid(Movement, -3))
	assert.True(t, Valid(PI, 0))
}

func TestRowSetIgnoresUnknownField(t *testing.T) {
	row := NewRow(Key{})
	row.Set("temperature", 36.6)
	assert.False(t, row.Complete())
	for _, f := range Fields {
		row.Set(f, 1)
	}
	assert.True(t, row.Complete())
}
