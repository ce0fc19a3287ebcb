package scoreboard

import (
	"context"
	"testing"
	"time"
	"ucampus-grades/lib/gradereport"
	"ucampus-grades/lib/scoreboard/db"
	"ucampus-grades/lib/testutil"
	"ucampus-grades/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "scoreboard",
		DbSchema: db.Schema,
	})
	defer cleanup()

	store := NewStore(res.DB)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	// the schema is already applied, migrating again is a no-op
	require.NoError(t, store.Migrate(ctx))

	{
		entries, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 0)

		_, err = store.Get(ctx, "Ana")
		require.ErrorIs(t, err, ErrNotFound)
	}

	first := time.Date(2025, time.April, 2, 10, 0, 0, 0, timezone.Location)
	ana := gradereport.StudentRecord{
		StudentName: "Ana",
		Courses: map[string]gradereport.CourseEntry{
			"habilidades": {Course: "Habilidades", Attendance: "92%", Grades: "55, 61"},
		},
	}
	bruno := gradereport.StudentRecord{
		StudentName: "Bruno",
		Courses: map[string]gradereport.CourseEntry{
			"electivo": {Course: "Electivo de Especialidad I", Attendance: "N/A"},
		},
	}

	require.NoError(t, store.Put(ctx, "run-1", first, ana))
	require.NoError(t, store.Put(ctx, "run-2", first.Add(time.Hour), bruno))

	{
		entries, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "Bruno", entries[0].StudentName)
		require.Equal(t, "Ana", entries[1].StudentName)
		require.Equal(t, ana, entries[1].Record)
		require.True(t, first.Equal(entries[1].UpdatedAt))
	}

	// a later sync of the same student replaces the entry
	ana.Courses["habilidades"] = gradereport.CourseEntry{Course: "Habilidades", Attendance: "95%", Grades: "55, 61, 70"}
	require.NoError(t, store.Put(ctx, "run-3", first.Add(2*time.Hour), ana))

	{
		entries, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "Ana", entries[0].StudentName)

		entry, err := store.Get(ctx, "Ana")
		require.NoError(t, err)
		require.Equal(t, "run-3", entry.RunID)
		require.Equal(t, "95%", entry.Record.Courses["habilidades"].Attendance)
	}
}
