package gradereport

import (
	"context"
	"log/slog"
	"strings"
	"ucampus-grades/lib/platforms/ucampus"
)

const GradeSeparator = ", "

type CourseEntry struct {
	Course     string `json:"course"`
	Attendance string `json:"attendance"`
	Grades     string `json:"grades"`
}

// StudentRecord is the single output row of a run, keyed by category id.
type StudentRecord struct {
	StudentName string                 `json:"student_name"`
	Courses     map[string]CourseEntry `json:"courses"`
}

// Empty reports whether no course landed in any category.
func (r StudentRecord) Empty() bool {
	return len(r.Courses) == 0
}

type Aggregator struct {
	layout Layout
}

func NewAggregator(layout Layout) Aggregator {
	return Aggregator{layout: layout}
}

func (a Aggregator) Layout() Layout {
	return a.layout
}

// Aggregate folds the records into one StudentRecord. When two records share
// a category the later one wins, records that fit no category are left out.
// The result only depends on the arguments.
func (a Aggregator) Aggregate(ctx context.Context, studentName string, records []ucampus.GradeRecord) StudentRecord {
	out := StudentRecord{
		StudentName: studentName,
		Courses:     map[string]CourseEntry{},
	}
	for _, r := range records {
		category, ok := a.layout.Classify(r.Category, r.Course)
		if !ok {
			slog.WarnContext(
				ctx, "course does not fit any category, leaving it out",
				"course", r.Course,
				"category", r.Category,
			)
			continue
		}
		if _, taken := out.Courses[category]; taken {
			slog.WarnContext(ctx, "category already filled, overwriting", "category", category, "course", r.Course)
		}
		out.Courses[category] = CourseEntry{
			Course:     r.Course,
			Attendance: r.Attendance,
			Grades:     strings.Join(r.Grades, GradeSeparator),
		}
	}
	return out
}
