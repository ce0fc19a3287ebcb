package timezone

import (
	"fmt"
	"time"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Santiago")
	if err != nil {
		panic(err)
	}
}

// the portal lives in Chile, dates that decide the academic term
// must be read in its timezone and not in the server's
func Now() time.Time {
	return time.Now().In(Location)
}

// AcademicTerm returns the "<year>/<semester>" path segment the portal uses
// for the term that contains `now`. The first semester runs from March to
// July, the second from August to the following February.
func AcademicTerm(now time.Time) string {
	year := now.Year()
	switch month := now.Month(); {
	case month >= time.March && month <= time.July:
		return fmt.Sprintf("%d/1", year)
	case month >= time.August:
		return fmt.Sprintf("%d/2", year)
	default:
		return fmt.Sprintf("%d/2", year-1)
	}
}
