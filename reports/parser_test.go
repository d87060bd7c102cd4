package reports

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gewnthar/gaslines/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `1	Main_St	-71.0589	42.3601	0	10-14-21	60	Steel
1	Main_St	-71.0580	42.3610	0	10-14-21	60	Steel

2  Elm_St   -71.0600  42.3500  0  10-14-21  45  PE   trailing  columns
`

func TestParseReport(t *testing.T) {
	records, err := ParseReport(strings.NewReader(sampleReport))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.ReportRecord{
		GroupID: "1", Name: "Main_St", X: -71.0589, Y: 42.3601,
		Date: "10-14-21", PSI: "60", Material: "Steel", Line: 1,
	}, records[0])

	// blank line 3 is skipped, extra columns are dropped
	assert.Equal(t, "2", records[2].GroupID)
	assert.Equal(t, "PE", records[2].Material)
	assert.Equal(t, 4, records[2].Line)
}

func TestParseReport_Empty(t *testing.T) {
	records, err := ParseReport(strings.NewReader("\n  \n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseReport_Malformed(t *testing.T) {
	t.Run("too few fields", func(t *testing.T) {
		_, err := ParseReport(strings.NewReader("1 a 1 2 0 d 60 Steel\n1 a 1 2\n"))
		require.ErrorIs(t, err, ErrMalformedRecord)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("non numeric coordinate", func(t *testing.T) {
		_, err := ParseReport(strings.NewReader("1 a east 2 0 d 60 Steel\n"))
		require.ErrorIs(t, err, ErrMalformedRecord)
		assert.Contains(t, err.Error(), "line 1")
	})
}

func TestParseReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "10-14-21.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0o644))

	records, err := ParseReportFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, err = ParseReportFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
