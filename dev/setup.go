package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	devenv "ucampus-grades/dev/env"
	configlibsql "ucampus-grades/lib/configutil/libsql"
	"ucampus-grades/lib/scoreboard"

	"github.com/tcnksm/go-input"
)

const (
	portalConfigFile = "portal_config.json5"
	scoreboardFile   = "<dev_state>/scoreboard.db"
)

// SetupPortalTests asks for the credentials the live portal tests log in
// with, an empty username skips them.
func SetupPortalTests() error {
	path, err := devenv.GetStateFilePath(portalConfigFile)
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		slog.Info("portal credentials have already been provided", "path", path)
		return nil
	}

	ui := input.DefaultUI()
	username, err := ui.Ask("u-campus username (empty to skip live tests):", &input.Options{
		HideOrder: true,
	})
	if err != nil {
		return err
	}
	if username == "" {
		slog.Info("skipping portal credentials, live tests will be skipped")
		return nil
	}
	password, err := ui.Ask("u-campus password:", &input.Options{
		Required:  true,
		Loop:      true,
		Mask:      true,
		HideOrder: true,
	})
	if err != nil {
		return err
	}

	cached, err := json.MarshalIndent(devenv.PortalTestConfig{
		Username: username,
		Password: password,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, cached, 0600)
}

func CreateScoreboardDB() error {
	config := configlibsql.Struct{File: scoreboardFile}
	db, err := config.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("creating scoreboard at", scoreboardFile)
	return scoreboard.NewStore(db).Migrate(context.Background())
}

func PrintConfigLocations() {
	slog.Info(
		"point the cli at the dev scoreboard by adding `scoreboard: { file: \"<dev_state>/scoreboard.db\" }` to config.local.json5, live tests read dev/.state/portal_config.json5.",
	)
}
