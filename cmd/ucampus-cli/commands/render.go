package commands

import (
	"os"
	"ucampus-grades/lib/gradereport"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderRecord(layout gradereport.Layout, record gradereport.StudentRecord) {
	t := newTable()
	t.SetTitle(record.StudentName)
	t.AppendHeader(table.Row{"Categoría", "Curso", "Asistencia", "Notas"})
	for _, c := range layout.Categories {
		entry, ok := record.Courses[c.ID]
		if !ok {
			t.AppendRow(table.Row{c.ID, "-", "-", "-"})
			continue
		}
		t.AppendRow(table.Row{c.ID, entry.Course, entry.Attendance, entry.Grades})
	}
	t.Render()
}
