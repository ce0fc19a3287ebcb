package gradesync

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"ucampus-grades/lib/configutil"
	configlibsql "ucampus-grades/lib/configutil/libsql"
	"ucampus-grades/lib/gradereport"
	"ucampus-grades/lib/platforms/ucampus"
	"ucampus-grades/lib/timezone"
)

// TermAuto derives the academic term from the current date.
const TermAuto = "auto"

type Config struct {
	PortalURL     string `json:"portal_url"`
	CourseBaseURL string `json:"course_base_url"`
	// Term is the "<year>/<semester>" path segment or TermAuto.
	Term             string `json:"term"`
	UserAgent        string `json:"user_agent"`
	Timeout          string `json:"timeout"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	Output           string `json:"output"`

	Categories []gradereport.Category `json:"categories"`
	Courses    []ucampus.CourseSpec   `json:"courses"`

	Scoreboard configlibsql.Struct `json:"scoreboard"`
}

func DefaultConfig() Config {
	return Config{
		PortalURL:     ucampus.DefaultPortalURL,
		CourseBaseURL: ucampus.DefaultCourseBaseURL,
		Term:          ucampus.DefaultTerm,
		UserAgent:     ucampus.DefaultUserAgent,
		Timeout:       "30s",
		Output:        "datos_ucampus.csv",
		Categories:    gradereport.DefaultLayout().Categories,
		Courses: []ucampus.CourseSpec{
			{
				Code:     "CSI0168",
				Section:  2,
				Name:     "Electivo de Especialidad I",
				Category: "electivo",
			},
			{
				Code:     "CSI0169",
				Section:  1,
				Name:     "Habilidades",
				Category: "habilidades",
			},
		},
	}
}

// LoadConfig reads `path` (and its .local override) over DefaultConfig, a
// missing file leaves the defaults as they are.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	err := configutil.MergeConfig(&config, path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file found, using defaults", "path", path)
	} else if err != nil {
		return Config{}, err
	}
	err = config.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c Config) Layout() gradereport.Layout {
	return gradereport.Layout{Categories: c.Categories}
}

func (c Config) ParsedTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return timeout, nil
}

// ResolveTerm returns the configured term, deriving it from `now` when it
// is TermAuto.
func (c Config) ResolveTerm(now time.Time) string {
	if strings.EqualFold(c.Term, TermAuto) {
		return timezone.AcademicTerm(now.In(timezone.Location))
	}
	return c.Term
}

func (c Config) Validate() error {
	_, err := c.ParsedTimeout()
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output path is empty")
	}
	if strings.TrimSpace(c.Term) == "" {
		return fmt.Errorf("term is empty")
	}

	layout := c.Layout()
	err = layout.Validate()
	if err != nil {
		return err
	}

	if len(c.Courses) == 0 {
		return fmt.Errorf("no courses configured")
	}
	for i, course := range c.Courses {
		if strings.TrimSpace(course.Code) == "" {
			return fmt.Errorf("course %d has no code", i)
		}
		if course.Section <= 0 {
			return fmt.Errorf("course %s: section must be positive", course.Code)
		}
		for _, section := range course.FallbackSections {
			if section <= 0 {
				return fmt.Errorf("course %s: fallback section must be positive", course.Code)
			}
		}
		if course.Category == "" {
			category, ok := layout.Classify("", course.Name)
			if !ok {
				slog.Warn(
					"course has no category and its name matches no keyword, it will be left out of the output",
					"course", course.Code,
					"name", course.Name,
				)
				continue
			}
			slog.Debug("course classified by keyword", "course", course.Code, "category", category)
			continue
		}
		err = layout.CheckCategory(course.Category)
		if err != nil {
			return fmt.Errorf("course %s: %w", course.Code, err)
		}
	}
	return nil
}
