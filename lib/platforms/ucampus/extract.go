package ucampus

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"ucampus-grades/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html/atom"
)

// AttendanceUnknown is reported whenever the attendance figure could not be
// located on the page.
const AttendanceUnknown = "N/A"

const gradeSelector = "h1.strong > span"

var (
	aliasRegex            = regexp.MustCompile(`alias:\s*'([^']*)'`)
	digitsRegex           = regexp.MustCompile(`\d+`)
	attendanceHeaderRegex = regexp.MustCompile(`(?i)\basistencia\b`)
)

// GradeRecord is what could be read from one course's pages.
type GradeRecord struct {
	Course     string   `json:"course"`
	Category   string   `json:"category"`
	Grades     []string `json:"grades"`
	Attendance string   `json:"attendance"`
}

type Extraction struct {
	// Name is the student's display name, empty when it was not found.
	Name   string
	Record GradeRecord
}

// ExtractName reads the student's display name from the inline script
// configuration on the grades page.
func ExtractName(markup string) string {
	match := aliasRegex.FindStringSubmatch(markup)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// ExtractGrades returns the text of every grade heading in document order,
// it never returns nil.
func ExtractGrades(doc *goquery.Document) []string {
	grades := []string{}
	doc.Find(gradeSelector).Each(func(_ int, s *goquery.Selection) {
		grades = append(grades, htmlutil.NormalizeText(s.Text()))
	})
	return grades
}

// ExtractAttendance finds the first table header mentioning "asistencia"
// and reads the first number of the heading that follows it,
// ex. "85 %" -> "85%".
func ExtractAttendance(doc *goquery.Document) string {
	header := doc.Find("th").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return attendanceHeaderRegex.MatchString(htmlutil.NormalizeText(s.Text()))
	}).First()
	if header.Length() == 0 {
		return AttendanceUnknown
	}

	heading := htmlutil.NextElement(header.Get(0), atom.H1)
	if heading == nil {
		return AttendanceUnknown
	}
	digits := digitsRegex.FindString(htmlutil.GetText(heading))
	if digits == "" {
		return AttendanceUnknown
	}
	return digits + "%"
}

type pageReader struct {
	grades     func(doc *goquery.Document) []string
	attendance func(doc *goquery.Document) string
}

var defaultReader = pageReader{
	grades:     ExtractGrades,
	attendance: ExtractAttendance,
}

// Extract reads the student name, grades and attendance out of a course's
// pages. It never fails, anything that cannot be read falls back to an
// empty grade list and AttendanceUnknown.
func Extract(ctx context.Context, course CourseSpec, pages Pages) Extraction {
	return defaultReader.extract(ctx, course, pages)
}

func (r pageReader) extract(ctx context.Context, course CourseSpec, pages Pages) (out Extraction) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()
	span.SetAttributes(attribute.String("course", course.String()))

	out = Extraction{
		Record: GradeRecord{
			Course:     course.Name,
			Category:   course.Category,
			Grades:     []string{},
			Attendance: AttendanceUnknown,
		},
	}

	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		err := fmt.Errorf("extract %s: %v", course.Code, recovered)
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction panicked")
		slog.ErrorContext(ctx, "failed to extract course", "course", course.Code, "err", err)

		out.Record.Grades = []string{}
		out.Record.Attendance = AttendanceUnknown
	}()

	out.Name = ExtractName(pages.Grades)

	gradesDoc, err := goquery.NewDocumentFromReader(strings.NewReader(pages.Grades))
	if err != nil {
		slog.WarnContext(ctx, "failed to parse grades page", "course", course.Code, "err", err)
		return out
	}
	attendanceDoc, err := goquery.NewDocumentFromReader(strings.NewReader(pages.Attendance))
	if err != nil {
		slog.WarnContext(ctx, "failed to parse attendance page", "course", course.Code, "err", err)
		return out
	}

	grades := r.grades(gradesDoc)
	attendance := r.attendance(attendanceDoc)
	out.Record.Grades = grades
	out.Record.Attendance = attendance

	span.SetAttributes(
		attribute.Int("grades", len(grades)),
		attribute.String("attendance", attendance),
	)
	return out
}
