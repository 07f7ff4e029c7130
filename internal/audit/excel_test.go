package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportExcel(t *testing.T) {
	entries := []Entry{
		{
			ReservationID: "res-1",
			ActorID:       "cust-1",
			Action:        ActionCreated,
			Details:       "2 people",
			CreatedAt:     time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		},
		{
			ReservationID: "res-1",
			ActorID:       "owner-1",
			Action:        ActionConfirmed,
			CreatedAt:     time.Date(2026, 3, 10, 10, 5, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportExcel(&buf, "Trattoria Roma", entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trattoria Roma")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, reportColumns, rows[0])
	assert.Equal(t, "created", rows[1][1])
	assert.Equal(t, "res-1", rows[1][2])
	assert.Equal(t, "confirmed", rows[2][1])
}

func TestExportExcel_SheetNameTruncated(t *testing.T) {
	longName := strings.Repeat("a", 40)

	var buf bytes.Buffer
	require.NoError(t, ExportExcel(&buf, longName, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.GetRows(longName[:31])
	assert.NoError(t, err)
}

func TestExportExcel_EmptyName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportExcel(&buf, "", nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
