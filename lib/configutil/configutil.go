package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalPath returns the path of the local override file for `name`,
// ex. config.json5 -> config.local.json5
func LocalPath(name string) string {
	prefixname, ext := splitExt(filepath.Base(name))
	if ext == "" {
		return filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local", prefixname))
	}
	return filepath.Join(
		filepath.Dir(name),
		fmt.Sprintf("%s.local.%s", prefixname, ext),
	)
}

// reads a configuration file, `name` should come with a file extension,
// it will automatically be lopped off to produce the other extensions.
// this function will merge the following files, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
func ReadConfig[T any](name string) (T, error) {
	var out T
	err := MergeConfig(&out, name)
	return out, err
}

// MergeConfig is ReadConfig except the files are merged on top of the
// values already present in `out`, this is how defaults are provided.
func MergeConfig[T any](out *T, name string) error {
	allNotFound := true

	for _, path := range []string{name, LocalPath(name)} {
		contents, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		if len(contents) == 0 {
			continue
		}

		var override T
		err = json5.Unmarshal(contents, &override)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		err = mergo.Merge(out, override, mergo.WithOverride)
		if err != nil {
			return err
		}
		if path != name {
			slog.Info("merging config with local overrides", "local", path)
		}
		allNotFound = false
	}

	if allNotFound {
		return os.ErrNotExist
	}
	return nil
}

// ReadConfig but it recursively goes up the filesystem until the root
// to find a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var defaultOut T

	root, err := filepath.Abs("/")
	if err != nil {
		return defaultOut, err
	}
	current, err := os.Getwd()
	if err != nil {
		return defaultOut, err
	}

	for current != root {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if os.IsNotExist(err) {
			current = filepath.Join(current, "..")
			continue
		}
		if err != nil {
			return defaultOut, err
		}

		return config, nil
	}

	return defaultOut, os.ErrNotExist
}
