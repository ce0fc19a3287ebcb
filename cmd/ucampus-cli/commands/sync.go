package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"ucampus-grades/lib/platforms/ucampus"
	"ucampus-grades/lib/restyutil"
	"ucampus-grades/lib/scoreboard"
	"ucampus-grades/services/gradesync"

	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"
)

var syncFlags struct {
	username string
	password string
	output   string
	dumpHttp string
}

func init() {
	syncCmd.Flags().StringVarP(&syncFlags.username, "username", "u", "", "Portal username, falls back to $UCAMPUS_USERNAME or a prompt.")
	syncCmd.Flags().StringVarP(&syncFlags.password, "password", "p", "", "Portal password, falls back to $UCAMPUS_PASSWORD or a prompt.")
	syncCmd.Flags().StringVarP(&syncFlags.output, "output", "o", "", "Overrides the output file, .xlsx writes a spreadsheet.")
	syncCmd.Flags().StringVar(&syncFlags.dumpHttp, "dump-http", "", "Directory to write every http message into (ex. <dev_state>/http).")
	rootCmd.AddCommand(syncCmd)
}

func readCredentials() (ucampus.Credentials, error) {
	creds := ucampus.Credentials{
		Username: syncFlags.username,
		Password: syncFlags.password,
	}
	if creds.Username == "" {
		creds.Username = os.Getenv("UCAMPUS_USERNAME")
	}
	if creds.Password == "" {
		creds.Password = os.Getenv("UCAMPUS_PASSWORD")
	}

	ui := input.DefaultUI()
	var err error
	if creds.Username == "" {
		creds.Username, err = ui.Ask("usuario:", &input.Options{
			Required:  true,
			Loop:      true,
			HideOrder: true,
		})
		if err != nil {
			return ucampus.Credentials{}, err
		}
	}
	if creds.Password == "" {
		creds.Password, err = ui.Ask("contraseña:", &input.Options{
			Required:  true,
			Loop:      true,
			Mask:      true,
			HideOrder: true,
		})
		if err != nil {
			return ucampus.Credentials{}, err
		}
	}
	return creds, nil
}

func openScoreboard(cmd *cobra.Command, config gradesync.Config) (*scoreboard.Store, *sql.DB, error) {
	if !config.Scoreboard.Enabled() {
		return nil, nil, nil
	}
	db, err := config.Scoreboard.OpenDB()
	if err != nil {
		return nil, nil, fmt.Errorf("open scoreboard: %w", err)
	}
	store := scoreboard.NewStore(db)
	err = store.Migrate(cmd.Context())
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate scoreboard: %w", err)
	}
	return &store, db, nil
}

var syncCmd = &cobra.Command{
	Use:   "sync [-u <username>] [-o <path/to/output.csv>]",
	Short: "Logs into U-Campus, reads every configured course and writes the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := gradesync.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if syncFlags.output != "" {
			config.Output = syncFlags.output
		}

		var dump restyutil.InstrumentOutput
		if syncFlags.dumpHttp != "" {
			out, err := restyutil.NewFilesystemOutput(syncFlags.dumpHttp)
			if err != nil {
				return err
			}
			dump = out
		}

		store, db, err := openScoreboard(cmd, config)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		service, err := gradesync.NewService(gradesync.Options{
			Config:           config,
			Scoreboard:       store,
			InstrumentOutput: dump,
		})
		if err != nil {
			return err
		}

		creds, err := readCredentials()
		if err != nil {
			return err
		}

		result, err := service.Run(cmd.Context(), creds)
		if errors.Is(err, ucampus.ErrRejected) {
			return fmt.Errorf("no se pudo iniciar sesión, revisa tu usuario y contraseña: %w", err)
		}
		if err != nil {
			return err
		}

		renderRecord(config.Layout(), result.Record)
		for _, course := range result.Failed {
			fmt.Fprintf(os.Stderr, "no se pudo obtener %s (%s)\n", course.Name, course.String())
		}
		if !result.Saved {
			fmt.Println("No se obtuvieron datos de ningún curso, no se escribió nada.")
			return nil
		}
		fmt.Printf("Datos guardados en %s\n", result.Output)
		return nil
	},
}
