package commands

import (
	"os"
	"strings"
	"ucampus-grades/lib/platforms/ucampus"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var extractFlags struct {
	name     string
	category string
}

func init() {
	extractCmd.Flags().StringVar(&extractFlags.name, "name", "", "Course name to label the result with.")
	extractCmd.Flags().StringVar(&extractFlags.category, "category", "", "Category to label the result with.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <grades.html> <attendance.html>",
	Short: "Runs the extractor on saved grade and attendance pages.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		grades, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		attendance, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		course := ucampus.CourseSpec{
			Name:     extractFlags.name,
			Category: extractFlags.category,
		}
		result := ucampus.Extract(cmd.Context(), course, ucampus.Pages{
			Grades:     string(grades),
			Attendance: string(attendance),
		})

		t := newTable()
		t.AppendHeader(table.Row{"Nombre", "Curso", "Asistencia", "Notas"})
		t.AppendRow(table.Row{
			result.Name,
			result.Record.Course,
			result.Record.Attendance,
			strings.Join(result.Record.Grades, ", "),
		})
		t.Render()
		return nil
	},
}
