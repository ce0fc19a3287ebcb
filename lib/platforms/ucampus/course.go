package ucampus

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultCourseBaseURL = DefaultPortalURL + "/uah"
	DefaultTerm          = "2025/1"

	// permissionDenied is shown instead of the course page when the
	// student is not enrolled in the requested section.
	permissionDenied = "No tienes permisos para ver esta"
)

// CourseSpec identifies one course section the student is enrolled in.
type CourseSpec struct {
	Code     string `json:"code"`
	Section  int    `json:"section"`
	Name     string `json:"name"`
	Category string `json:"category"`
	// FallbackSections are tried in order when the portal denies access
	// to Section.
	FallbackSections []int `json:"fallback_sections,omitempty"`
}

func (c CourseSpec) String() string {
	return fmt.Sprintf("%s-%d", c.Code, c.Section)
}

// Pages holds the raw markup of a course's grade and attendance pages.
type Pages struct {
	Section    int
	Grades     string
	Attendance string
}

type CourseFetcher struct {
	base string
	term string
}

func NewCourseFetcher(baseUrl, term string) (CourseFetcher, error) {
	if baseUrl == "" {
		baseUrl = DefaultCourseBaseURL
	}
	if term == "" {
		term = DefaultTerm
	}
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return CourseFetcher{}, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return CourseFetcher{}, fmt.Errorf("course base url must be absolute: %q", baseUrl)
	}
	return CourseFetcher{
		base: strings.TrimSuffix(baseUrl, "/"),
		term: strings.Trim(term, "/"),
	}, nil
}

func (f CourseFetcher) Term() string {
	return f.term
}

func (f CourseFetcher) coursePath(c CourseSpec, section int) string {
	return fmt.Sprintf("%s/%s/%s/%d", f.base, f.term, url.PathEscape(c.Code), section)
}

func (f CourseFetcher) GradesURL(c CourseSpec, section int) string {
	return f.coursePath(c, section) + "/notas/alumno"
}

func (f CourseFetcher) AttendanceURL(c CourseSpec, section int) string {
	return f.coursePath(c, section) + "/asistencias2/"
}

// FetchPages downloads the grade page and then the attendance page of a
// course. When the portal denies access to the configured section the
// fallback sections are tried in order, the last denial is returned as is.
func (f CourseFetcher) FetchPages(ctx context.Context, session *Session, course CourseSpec) (Pages, error) {
	ctx, span := tracer.Start(ctx, "CourseFetcher:FetchPages")
	defer span.End()
	span.SetAttributes(attribute.String("course", course.String()))

	if session == nil {
		span.SetStatus(codes.Error, ErrNotAuthenticated.Error())
		return Pages{}, ErrNotAuthenticated
	}

	sections := append([]int{course.Section}, course.FallbackSections...)
	for i, section := range sections {
		grades, err := session.get(ctx, f.GradesURL(course, section))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch grades page")
			return Pages{}, err
		}
		if strings.Contains(grades, permissionDenied) && i < len(sections)-1 {
			slog.WarnContext(
				ctx, "no access to course section, trying next",
				"course", course.Code,
				"section", section,
				"next", sections[i+1],
			)
			continue
		}

		attendance, err := session.get(ctx, f.AttendanceURL(course, section))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch attendance page")
			return Pages{}, err
		}

		span.SetAttributes(attribute.Int("section", section))
		return Pages{
			Section:    section,
			Grades:     grades,
			Attendance: attendance,
		}, nil
	}

	// unreachable, sections always has at least one element
	return Pages{}, fmt.Errorf("no sections to fetch for %s", course.Code)
}
