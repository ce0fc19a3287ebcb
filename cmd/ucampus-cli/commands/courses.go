package commands

import (
	"fmt"
	"strconv"
	"strings"
	"ucampus-grades/lib/timezone"
	"ucampus-grades/services/gradesync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(coursesCmd)
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Prints the configured courses and the category each one lands in.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := gradesync.LoadConfig(configPath)
		if err != nil {
			return err
		}
		layout := config.Layout()

		t := newTable()
		t.SetTitle(fmt.Sprintf("periodo %s", config.ResolveTerm(timezone.Now())))
		t.AppendHeader(table.Row{"Código", "Sección", "Alternativas", "Curso", "Categoría"})
		for _, course := range config.Courses {
			fallback := make([]string, len(course.FallbackSections))
			for i, s := range course.FallbackSections {
				fallback[i] = strconv.Itoa(s)
			}
			category, ok := layout.Classify(course.Category, course.Name)
			if !ok {
				category = "(sin categoría)"
			} else if course.Category == "" {
				category += " (por nombre)"
			}
			t.AppendRow(table.Row{
				course.Code,
				course.Section,
				strings.Join(fallback, ", "),
				course.Name,
				category,
			})
		}
		t.Render()
		return nil
	},
}
