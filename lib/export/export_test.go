package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"ucampus-grades/lib/gradereport"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testRecord = gradereport.StudentRecord{
	StudentName: "Ana Pérez",
	Courses: map[string]gradereport.CourseEntry{
		"habilidades": {Course: "Habilidades", Attendance: "92%", Grades: "55, 61"},
	},
}

func readCsv(t testing.TB, path string) [][]string {
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestPersistCsv(t *testing.T) {
	layout := gradereport.DefaultLayout()
	path := filepath.Join(t.TempDir(), "out", "datos_ucampus.csv")

	written, err := Persist(context.Background(), testRecord, layout, path)
	require.NoError(t, err)
	require.True(t, written)

	require.Equal(t, [][]string{
		layout.Header(),
		{"Ana Pérez", "Habilidades", "92%", "55, 61", "", "", ""},
	}, readCsv(t, path))

	second := gradereport.StudentRecord{
		StudentName: "Ana Pérez",
		Courses: map[string]gradereport.CourseEntry{
			"electivo": {Course: "Electivo de Especialidad I", Attendance: "N/A", Grades: ""},
		},
	}
	written, err = Persist(context.Background(), second, layout, path)
	require.NoError(t, err)
	require.True(t, written)

	rows := readCsv(t, path)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"Ana Pérez", "", "", "", "Electivo de Especialidad I", "N/A", ""}, rows[1])

	// no temporary files are left next to the output
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPersistEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datos_ucampus.csv")

	written, err := Persist(context.Background(), gradereport.StudentRecord{StudentName: "Ana"}, gradereport.DefaultLayout(), path)
	require.NoError(t, err)
	require.False(t, written)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestPersistXlsx(t *testing.T) {
	layout := gradereport.DefaultLayout()
	path := filepath.Join(t.TempDir(), "datos_ucampus.xlsx")

	written, err := Persist(context.Background(), testRecord, layout, path)
	require.NoError(t, err)
	require.True(t, written)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, layout.Header(), rows[0])
	// trailing empty cells are not returned by GetRows
	require.Equal(t, []string{"Ana Pérez", "Habilidades", "92%", "55, 61"}, rows[1])
}

func TestPersistWriteError(t *testing.T) {
	dir := t.TempDir()
	// the destination is a non-empty directory, the rename cannot replace it
	path := filepath.Join(dir, "datos_ucampus.csv")
	err := os.MkdirAll(filepath.Join(path, "child"), 0755)
	require.NoError(t, err)

	written, err := Persist(context.Background(), testRecord, gradereport.DefaultLayout(), path)
	require.ErrorIs(t, err, ErrWrite)
	require.False(t, written)
}
