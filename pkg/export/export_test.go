package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Unit-1 / 10-A Math",
		Headers: []string{"Roll No", "Student", "Marks"},
		Rows: []map[string]string{
			{"Roll No": "1", "Student": "Ayu", "Marks": "45"},
			{"Roll No": "2", "Student": "Budi"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, []string{"Roll No,Student,Marks", "1,Ayu,45", "2,Budi,"}, lines)
}

func TestRenderRequiresHeaders(t *testing.T) {
	for _, r := range []Renderer{NewCSVExporter(), NewPDFExporter(), NewXLSXExporter()} {
		_, err := r.Render(Dataset{})
		assert.Error(t, err, r.Extension())
	}
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	sheet := "Unit-1  10-A Math"
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Roll No", "Student", "Marks"}, rows[0])
	assert.Equal(t, []string{"1", "Ayu", "45"}, rows[1])
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, "csv", r.Extension())

	r, err = ForFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", r.Extension())

	_, err = ForFormat("docx")
	assert.Error(t, err)
}
