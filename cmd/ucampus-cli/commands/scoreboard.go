package commands

import (
	"fmt"
	"time"
	"ucampus-grades/lib/scoreboard"
	"ucampus-grades/services/gradesync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scoreboardCmd)
}

var scoreboardCmd = &cobra.Command{
	Use:   "scoreboard",
	Short: "Prints the latest synced record of every student.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := gradesync.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if !config.Scoreboard.Enabled() {
			return fmt.Errorf("no scoreboard configured, set scoreboard.file or scoreboard.url in %s", configPath)
		}
		db, err := config.Scoreboard.OpenDB()
		if err != nil {
			return err
		}
		defer db.Close()

		store := scoreboard.NewStore(db)
		err = store.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		entries, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		layout := config.Layout()
		header := table.Row{"Nombre", "Actualizado"}
		for _, c := range layout.Categories {
			header = append(header, "Asistencia "+c.ID, "Notas "+c.ID)
		}

		t := newTable()
		t.AppendHeader(header)
		for _, e := range entries {
			row := table.Row{e.StudentName, e.UpdatedAt.Format(time.DateTime)}
			for _, c := range layout.Categories {
				entry := e.Record.Courses[c.ID]
				row = append(row, entry.Attendance, entry.Grades)
			}
			t.AppendRow(row)
		}
		t.Render()
		return nil
	},
}
