package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citylab/crimetab/internal/table"
)

func TestNormalize_CanonicalTypes(t *testing.T) {
	header := []string{ColIncidentNumber, ColOffenseCode, ColReportingArea, ColDistrict}
	rows := [][]string{
		{"I0042-00", "724", "330", "B3"},
		{"0192200001", "3115", "", "C11"},
	}

	tbl, err := Normalize(2019, header, rows, nil)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	// Incident numbers stay textual so leading zeros survive.
	assert.Equal(t, table.KindString, tbl.Value(1, ColIncidentNumber).Kind())
	assert.Equal(t, "0192200001", tbl.Value(1, ColIncidentNumber).Text())

	code, ok := tbl.Value(0, ColOffenseCode).IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(724), code)

	// Empty field is present-but-null, not missing.
	assert.Equal(t, table.KindNull, tbl.Value(1, ColReportingArea).Kind())
}

func TestNormalize_UnparseableIsMarkedNotDropped(t *testing.T) {
	header := []string{ColOffenseCode}
	rows := [][]string{{"not-a-code"}}

	tbl, err := Normalize(2020, header, rows, nil)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	v := tbl.Value(0, ColOffenseCode)
	assert.Equal(t, table.KindUnparseable, v.Kind())
	assert.Equal(t, "not-a-code", v.Raw())
}

func TestNormalize_FloatEncodedInt(t *testing.T) {
	tbl, err := Normalize(2021, []string{ColOffenseCode}, [][]string{{"724.0"}}, nil)
	require.NoError(t, err)
	n, ok := tbl.Value(0, ColOffenseCode).IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(724), n)
}

func TestNormalize_ShootingFlagForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind table.Kind
		text string
	}{
		{"letter form", "Y", table.KindString, "Y"},
		{"lowercase letter", "y", table.KindString, "Y"},
		{"numeric one", "1", table.KindInt, "1"},
		{"numeric zero", "0", table.KindInt, "0"},
		{"blank", "", table.KindNull, "[null]"},
		{"junk", "maybe", table.KindUnparseable, "[unparseable]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Normalize(2018, []string{ColShooting}, [][]string{{tt.raw}}, nil)
			require.NoError(t, err)
			v := tbl.Value(0, ColShooting)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.text, v.Text())
		})
	}
}

func TestNormalize_UnrecognizedColumnsPassThrough(t *testing.T) {
	header := []string{"Lat", "Long"}
	tbl, err := Normalize(2022, header, [][]string{{"42.3", "-71.1"}}, nil)
	require.NoError(t, err)

	assert.True(t, tbl.HasColumn("Lat"))
	assert.Equal(t, table.KindString, tbl.Value(0, "Lat").Kind())
}

func TestNormalize_RecognitionIsCaseSensitive(t *testing.T) {
	// "district" is not the canonical "DISTRICT": passes through
	// untouched as an extra column rather than being coerced.
	tbl, err := Normalize(2022, []string{"district"}, [][]string{{"B3"}}, nil)
	require.NoError(t, err)
	assert.True(t, tbl.HasColumn("district"))
	assert.False(t, tbl.HasColumn(ColDistrict))
}

func TestNormalize_ShortRowReadsNull(t *testing.T) {
	header := []string{ColIncidentNumber, ColDistrict}
	tbl, err := Normalize(2018, header, [][]string{{"I-1"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, table.KindNull, tbl.Value(0, ColDistrict).Kind())
}

func TestNormalize_AliasMapsHeaderToCanonical(t *testing.T) {
	aliases := Aliases{"Incident Number": ColIncidentNumber}
	tbl, err := Normalize(2018, []string{"Incident Number"}, [][]string{{"I-9"}}, aliases)
	require.NoError(t, err)
	assert.True(t, tbl.HasColumn(ColIncidentNumber))
	assert.Equal(t, "I-9", tbl.Value(0, ColIncidentNumber).Text())
}
