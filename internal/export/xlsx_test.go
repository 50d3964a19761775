package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/bondmaster/backend/internal/contracts"
)

func TestWriteXLSX(t *testing.T) {
	bonds := []contracts.Bond{
		{Code: "113001", Name: "Alpha CB", Price: 101.5, PremiumRatePct: 12.3, DoubleLow: 113.8, TotalScore: contracts.Float(2.25)},
		{Code: "128001", Name: "Beta CB", Price: 120, DoubleLow: 120},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, bonds))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])

	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "113001", rows[1][1])
	assert.Equal(t, "Alpha CB", rows[1][2])
	assert.Equal(t, "113.8", rows[1][6])
	assert.Equal(t, "2.25", rows[1][len(Columns)-1])

	assert.Equal(t, "Beta CB", rows[2][2])
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
