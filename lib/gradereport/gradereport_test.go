package gradereport

import (
	"context"
	"encoding/json"
	"testing"
	"ucampus-grades/lib/platforms/ucampus"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	require.Equal(t, []string{
		"Nombre",
		"Curso habilidades",
		"Asistencia habilidades",
		"Notas habilidades",
		"Curso electivo",
		"Asistencia electivo",
		"Notas electivo",
	}, DefaultLayout().Header())
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultLayout().Validate())
	require.Error(t, Layout{}.Validate())
	require.Error(t, Layout{Categories: []Category{{ID: " "}}}.Validate())
	require.Error(t, Layout{Categories: []Category{{ID: "a"}, {ID: "a"}}}.Validate())
}

func TestCheckCategory(t *testing.T) {
	layout := DefaultLayout()
	require.NoError(t, layout.CheckCategory("electivo"))

	err := layout.CheckCategory("electivos")
	require.ErrorIs(t, err, ErrUnknownCategory)
	require.Contains(t, err.Error(), `did you mean "electivo"?`)

	err = layout.CheckCategory("Habilidad")
	require.ErrorIs(t, err, ErrUnknownCategory)
	require.Contains(t, err.Error(), `did you mean "habilidades"?`)
}

func TestClassify(t *testing.T) {
	layout := DefaultLayout()

	testCases := []struct {
		declared string
		name     string
		expected string
		ok       bool
	}{
		{name: "Electivo de Especialidad I", expected: "electivo", ok: true},
		{name: "Habilidades", expected: "habilidades", ok: true},
		{name: "taller de HABILIDADES comunicativas", expected: "habilidades", ok: true},
		{name: "Cálculo II", ok: false},
		{declared: "electivo", name: "Cálculo II", expected: "electivo", ok: true},
		{declared: "habilidades", name: "Electivo de Especialidad I", expected: "habilidades", ok: true},
		{declared: "deportes", name: "Habilidades", expected: "deportes", ok: false},
	}

	for _, test := range testCases {
		category, ok := layout.Classify(test.declared, test.name)
		require.Equal(t, test.ok, ok, test.name)
		require.Equal(t, test.expected, category, test.name)
	}
}

func TestAggregate(t *testing.T) {
	aggregator := NewAggregator(DefaultLayout())

	records := []ucampus.GradeRecord{
		{Course: "Electivo de Especialidad I", Grades: []string{"5,5", "6,1"}, Attendance: "92%"},
		{Course: "Habilidades", Grades: []string{}, Attendance: ucampus.AttendanceUnknown},
		{Course: "Cálculo II", Grades: []string{"7,0"}, Attendance: "100%"},
	}

	record := aggregator.Aggregate(context.Background(), "Ana Pérez", records)
	expected := StudentRecord{
		StudentName: "Ana Pérez",
		Courses: map[string]CourseEntry{
			"electivo": {
				Course:     "Electivo de Especialidad I",
				Attendance: "92%",
				Grades:     "5,5, 6,1",
			},
			"habilidades": {
				Course:     "Habilidades",
				Attendance: "N/A",
				Grades:     "",
			},
		},
	}
	if diff := cmp.Diff(expected, record); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, []string{
		"Ana Pérez",
		"Habilidades", "N/A", "",
		"Electivo de Especialidad I", "92%", "5,5, 6,1",
	}, aggregator.Layout().Row(record))
}

func TestAggregateIdempotent(t *testing.T) {
	aggregator := NewAggregator(DefaultLayout())
	records := []ucampus.GradeRecord{
		{Course: "Habilidades", Grades: []string{"55", "61"}, Attendance: "92%"},
		{Course: "Electivo de Especialidad I", Category: "electivo", Grades: []string{"40"}, Attendance: "80%"},
	}

	first, err := json.Marshal(aggregator.Aggregate(context.Background(), "Ana", records))
	require.NoError(t, err)
	second, err := json.Marshal(aggregator.Aggregate(context.Background(), "Ana", records))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAggregateLastWriteWins(t *testing.T) {
	aggregator := NewAggregator(DefaultLayout())
	record := aggregator.Aggregate(context.Background(), "Ana", []ucampus.GradeRecord{
		{Course: "Electivo A", Grades: []string{"1"}, Attendance: "10%"},
		{Course: "Electivo B", Grades: []string{"2"}, Attendance: "20%"},
	})
	require.Equal(t, CourseEntry{Course: "Electivo B", Attendance: "20%", Grades: "2"}, record.Courses["electivo"])
	require.Len(t, record.Courses, 1)
}

func TestAggregateEmpty(t *testing.T) {
	aggregator := NewAggregator(DefaultLayout())

	record := aggregator.Aggregate(context.Background(), "", nil)
	require.True(t, record.Empty())

	record = aggregator.Aggregate(context.Background(), "Ana", []ucampus.GradeRecord{
		{Course: "Cálculo II", Grades: []string{"7,0"}, Attendance: "100%"},
	})
	require.True(t, record.Empty())
	require.Equal(t, []string{"Ana", "", "", "", "", "", ""}, DefaultLayout().Row(record))
}
