package gradereport

import (
	"errors"
	"fmt"
	"strings"
	"ucampus-grades/lib/textutil"

	"github.com/antzucaro/matchr"
)

var ErrUnknownCategory = errors.New("unknown category")

// Category is one group of output columns, a course lands in it either by
// declaring its ID or, failing that, by its name containing a keyword.
type Category struct {
	ID       string   `json:"id"`
	Keywords []string `json:"keywords"`
}

// Layout is the ordered list of categories, its order is the column order of
// the output.
type Layout struct {
	Categories []Category `json:"categories"`
}

func DefaultLayout() Layout {
	return Layout{
		Categories: []Category{
			{ID: "habilidades", Keywords: []string{"Habilidades"}},
			{ID: "electivo", Keywords: []string{"Electivo"}},
		},
	}
}

func (l Layout) Validate() error {
	if len(l.Categories) == 0 {
		return fmt.Errorf("layout has no categories")
	}
	seen := map[string]struct{}{}
	for i, c := range l.Categories {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("category %d has no id", i)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("category %q is declared twice", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

func (l Layout) Has(id string) bool {
	for _, c := range l.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// CheckCategory returns ErrUnknownCategory with the closest known id
// suggested when `id` is not part of the layout.
func (l Layout) CheckCategory(id string) error {
	if l.Has(id) {
		return nil
	}

	var closest string
	var mostSimilarity float64
	for _, c := range l.Categories {
		similarity := matchr.JaroWinkler(strings.ToLower(id), strings.ToLower(c.ID), false)
		if similarity > mostSimilarity {
			mostSimilarity = similarity
			closest = c.ID
		}
	}
	if closest == "" {
		return fmt.Errorf("%w %q", ErrUnknownCategory, id)
	}
	return fmt.Errorf("%w %q, did you mean %q?", ErrUnknownCategory, id, closest)
}

// Classify returns the category a course belongs to. A declared category
// is used as is when the layout knows it, otherwise the course name is
// matched against each category's keywords in layout order.
func (l Layout) Classify(declared, courseName string) (string, bool) {
	if declared != "" {
		return declared, l.Has(declared)
	}
	for _, c := range l.Categories {
		if textutil.MatchName(courseName, c.Keywords) {
			return c.ID, true
		}
	}
	return "", false
}

// Header returns the column names: the student name, then course,
// attendance and grades for every category.
func (l Layout) Header() []string {
	header := []string{"Nombre"}
	for _, c := range l.Categories {
		header = append(
			header,
			"Curso "+c.ID,
			"Asistencia "+c.ID,
			"Notas "+c.ID,
		)
	}
	return header
}

// Row lines `record` up with Header, absent categories are left blank.
func (l Layout) Row(record StudentRecord) []string {
	row := []string{record.StudentName}
	for _, c := range l.Categories {
		entry := record.Courses[c.ID]
		row = append(row, entry.Course, entry.Attendance, entry.Grades)
	}
	return row
}
