package ucampus

import (
	"context"
	"strings"
	"testing"

	_ "embed"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/grades.html
var gradesPage string

//go:embed testdata/attendance.html
var attendancePage string

//go:embed testdata/attendance_missing.html
var attendanceMissingPage string

func parse(t testing.TB, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractName(t *testing.T) {
	testCases := []struct {
		markup   string
		expected string
	}{
		{markup: gradesPage, expected: "Ana Pérez"},
		{markup: `alias:'X'`, expected: "X"},
		{markup: `alias:   ''`, expected: ""},
		{markup: `<html><body>nothing here</body></html>`, expected: ""},
		{markup: `alias: "double quoted"`, expected: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, ExtractName(test.markup), test.markup)
	}
}

func TestExtractGrades(t *testing.T) {
	require.Equal(t, []string{"5,5", "6,0", "4,8"}, ExtractGrades(parse(t, gradesPage)))

	grades := ExtractGrades(parse(t, "<html><body><h1><span>7,0</span></h1></body></html>"))
	require.NotNil(t, grades)
	require.Empty(t, grades)
}

func TestExtractAttendance(t *testing.T) {
	testCases := []struct {
		name     string
		markup   string
		expected string
	}{
		{name: "fixture", markup: attendancePage, expected: "85%"},
		{name: "no header", markup: attendanceMissingPage, expected: AttendanceUnknown},
		{
			name:     "header without heading",
			markup:   `<table><tr><th>Asistencia</th><td>85</td></tr></table>`,
			expected: AttendanceUnknown,
		},
		{
			name:     "heading without digits",
			markup:   `<table><tr><th>Asistencia</th><td><h1>sin datos</h1></td></tr></table>`,
			expected: AttendanceUnknown,
		},
		{
			name:     "case and whitespace",
			markup:   `<table><tr><th>  ASISTENCIA </th></tr></table><div><h1>Total: 100</h1></div>`,
			expected: "100%",
		},
		{
			name:     "first number only",
			markup:   `<table><tr><th>asistencia</th><td><h1>12 de 14</h1></td></tr></table>`,
			expected: "12%",
		},
		{
			name:     "heading before header is ignored",
			markup:   `<h1>3</h1><table><tr><th>Asistencia</th></tr></table>`,
			expected: AttendanceUnknown,
		},
		{
			name:     "header with trailing text",
			markup:   `<table><tr><th>Asistencia mínima</th><td><h1>75</h1></td></tr></table>`,
			expected: "75%",
		},
		{
			name:     "header with unit suffix",
			markup:   `<table><tr><th>Asistencia (%)</th><td><h1>80%</h1></td></tr></table>`,
			expected: "80%",
		},
		{
			name:     "header with unit prefix",
			markup:   `<table><tr><th>% Asistencia</th><td><h1>80%</h1></td></tr></table>`,
			expected: "80%",
		},
		{
			name:     "absences header is not attendance",
			markup:   `<table><tr><th>Inasistencias</th><td><h1>2</h1></td></tr></table>`,
			expected: AttendanceUnknown,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, ExtractAttendance(parse(t, test.markup)))
		})
	}
}

func TestExtract(t *testing.T) {
	course := CourseSpec{
		Code:     "CSI0169",
		Section:  1,
		Name:     "Habilidades",
		Category: "habilidades",
	}

	out := Extract(context.Background(), course, Pages{
		Section:    1,
		Grades:     gradesPage,
		Attendance: attendancePage,
	})
	require.Equal(t, Extraction{
		Name: "Ana Pérez",
		Record: GradeRecord{
			Course:     "Habilidades",
			Category:   "habilidades",
			Grades:     []string{"5,5", "6,0", "4,8"},
			Attendance: "85%",
		},
	}, out)

	out = Extract(context.Background(), course, Pages{})
	require.Equal(t, Extraction{
		Record: GradeRecord{
			Course:     "Habilidades",
			Category:   "habilidades",
			Grades:     []string{},
			Attendance: AttendanceUnknown,
		},
	}, out)
}

func TestExtractRecoversFromPanic(t *testing.T) {
	course := CourseSpec{Code: "CSI0169", Section: 1, Name: "Habilidades"}
	reader := pageReader{
		grades: ExtractGrades,
		attendance: func(*goquery.Document) string {
			panic("unexpected markup")
		},
	}

	out := reader.extract(context.Background(), course, Pages{
		Section:    1,
		Grades:     gradesPage,
		Attendance: attendancePage,
	})
	require.Equal(t, Extraction{
		Name: "Ana Pérez",
		Record: GradeRecord{
			Course:     "Habilidades",
			Grades:     []string{},
			Attendance: AttendanceUnknown,
		},
	}, out)
}
