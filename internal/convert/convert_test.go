package convert

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/querybind/internal/schema"
)

func field(t schema.FieldType) *schema.FieldDef {
	return &schema.FieldDef{APIName: "f", Type: t}
}

func TestConvert(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	cases := []struct {
		typ  schema.FieldType
		raw  string
		want any
	}{
		{schema.FieldText, "tam", "tam"},
		{schema.FieldChoice, "open", "open"},
		{schema.FieldMultichoice, "dragon reborn", "dragon reborn"},
		{schema.FieldNumber, "1978", int64(1978)},
		{schema.FieldNumber, "010", int64(10)},
		{schema.FieldNumber, " 2.5 ", 2.5},
		{schema.FieldCurrency, "10", 10.0},
		{schema.FieldPercentage, "0.25", 0.25},
		{schema.FieldBoolean, "true", true},
		{schema.FieldBoolean, "0", false},
		{schema.FieldDate, "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{schema.FieldDatetime, "2024-03-01T10:30:00Z", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{schema.FieldDatetime, "2024-03-01 10:30:00", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{schema.FieldLookup, id.String(), id},
		{schema.FieldEmail, "tam@tworivers.example", "tam@tworivers.example"},
		{schema.FieldEmail, "gmail", "gmail"},
		{schema.FieldURL, "https://example.com/a", "https://example.com/a"},
		{schema.FieldURL, "example", "example"},
		{schema.FieldPhone, "555", "555"},
		{schema.FieldFormula, "anything", "anything"},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ)+"/"+tc.raw, func(t *testing.T) {
			got, err := r.Convert(tc.raw, field(tc.typ))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConvertFailures(t *testing.T) {
	r := NewRegistry()
	for typ, raw := range map[schema.FieldType]string{
		schema.FieldNumber:   "nineteen",
		schema.FieldCurrency: "ten",
		schema.FieldBoolean:  "maybe",
		schema.FieldDate:     "yesterday",
		schema.FieldLookup:   "not-a-uuid",
	} {
		_, err := r.Convert(raw, field(typ))
		assert.Error(t, err, "%s %q", typ, raw)
	}
}

func TestRegisterOverrides(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.CanConvert(schema.FieldPhone))
	assert.False(t, r.CanConvert(schema.FieldEmail))

	boom := errors.New("boom")
	r.Register(schema.FieldPhone, func(string) (any, error) { return nil, boom })
	assert.True(t, r.CanConvert(schema.FieldPhone))

	_, err := r.Convert("555", field(schema.FieldPhone))
	assert.ErrorIs(t, err, boom)
}

func TestIsBlank(t *testing.T) {
	for _, raw := range [][]string{nil, {}, {""}, {"  "}} {
		assert.True(t, IsBlank(raw), "%q", raw)
	}
	assert.False(t, IsBlank([]string{"1"}))
	assert.False(t, IsBlank([]string{"", ""}))
}
