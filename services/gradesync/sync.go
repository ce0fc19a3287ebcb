package gradesync

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"ucampus-grades/lib/export"
	"ucampus-grades/lib/gradereport"
	"ucampus-grades/lib/platforms/ucampus"
	"ucampus-grades/lib/restyutil"
	"ucampus-grades/lib/scoreboard"
	"ucampus-grades/lib/telemetry"
	"ucampus-grades/lib/timezone"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = telemetry.Tracer("ucampus.services.gradesync")
	meter  = otel.Meter("ucampus.services.gradesync")
)

const (
	outcomeOk          = "ok"
	outcomeFetchFailed = "fetch_failed"
	outcomePartial     = "partial"
)

type Options struct {
	Config Config
	// Telemetry defaults to telemetry.SlogAPI.
	Telemetry telemetry.API
	// Scoreboard is optional, successful runs are recorded into it.
	Scoreboard       *scoreboard.Store
	InstrumentOutput restyutil.InstrumentOutput
	// Now defaults to timezone.Now.
	Now func() time.Time
}

// Service runs the whole pipeline for one student at a time.
type Service struct {
	auth       *ucampus.Authenticator
	fetcher    ucampus.CourseFetcher
	aggregator gradereport.Aggregator
	courses    []ucampus.CourseSpec
	output     string
	tel        telemetry.API
	scoreboard *scoreboard.Store
	now        func() time.Time
	courseRuns metric.Int64Counter
}

func NewService(opts Options) (Service, error) {
	config := opts.Config
	err := config.Validate()
	if err != nil {
		return Service{}, err
	}
	timeout, err := config.ParsedTimeout()
	if err != nil {
		return Service{}, err
	}

	now := opts.Now
	if now == nil {
		now = timezone.Now
	}
	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}

	auth, err := ucampus.NewAuthenticator(ucampus.Options{
		PortalURL:        config.PortalURL,
		UserAgent:        config.UserAgent,
		Timeout:          timeout,
		CloudflareBypass: config.CloudflareBypass,
		InstrumentOutput: opts.InstrumentOutput,
	})
	if err != nil {
		return Service{}, err
	}
	fetcher, err := ucampus.NewCourseFetcher(config.CourseBaseURL, config.ResolveTerm(now()))
	if err != nil {
		return Service{}, err
	}

	courseRuns, err := meter.Int64Counter(
		"gradesync.courses",
		metric.WithDescription("Courses processed, by outcome."),
	)
	if err != nil {
		return Service{}, err
	}

	return Service{
		auth:       auth,
		fetcher:    fetcher,
		aggregator: gradereport.NewAggregator(config.Layout()),
		courses:    config.Courses,
		output:     config.Output,
		tel:        telemetry.NewScopedAPI("gradesync", tel),
		scoreboard: opts.Scoreboard,
		now:        now,
		courseRuns: courseRuns,
	}, nil
}

func (s Service) Term() string {
	return s.fetcher.Term()
}

type Result struct {
	RunID       string
	StudentName string
	Record      gradereport.StudentRecord
	// Saved is true when course data was obtained and written to Output.
	Saved  bool
	Output string
	// Failed lists the courses whose pages could not be fetched.
	Failed []ucampus.CourseSpec
}

// Run logs in with `creds`, syncs every configured course in order and
// writes the resulting record. Only a failed login or a failed write is
// returned as an error, course failures degrade to placeholder values.
func (s Service) Run(ctx context.Context, creds ucampus.Credentials) (Result, error) {
	result := Result{
		RunID:  uuid.NewString(),
		Output: s.output,
	}

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", result.RunID),
		attribute.String("term", s.fetcher.Term()),
	)

	logger := slog.Default().With("run_id", result.RunID)
	logger.InfoContext(ctx, "starting sync", "creds", creds, "courses", len(s.courses))

	session, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return result, fmt.Errorf("login: %w", err)
	}

	records := make([]ucampus.GradeRecord, 0, len(s.courses))
	for _, course := range s.courses {
		name, record, err := s.syncCourse(ctx, session, course)
		if err != nil {
			result.Failed = append(result.Failed, course)
		}
		// the first name found is kept
		if result.StudentName == "" && name != "" {
			result.StudentName = name
		}
		records = append(records, record)
	}
	s.tel.ReportCount("sync.failed-courses", int64(len(result.Failed)))

	result.Record = s.aggregator.Aggregate(ctx, result.StudentName, records)

	saved, err := export.Persist(ctx, result.Record, s.aggregator.Layout(), s.output)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist record")
		return result, err
	}
	result.Saved = saved
	if !saved {
		logger.WarnContext(ctx, "no course data was obtained, nothing written")
		return result, nil
	}
	logger.InfoContext(ctx, "sync complete", "output", s.output, "student", result.StudentName)

	s.recordScoreboard(ctx, result)
	return result, nil
}

func placeholder(course ucampus.CourseSpec) ucampus.GradeRecord {
	return ucampus.GradeRecord{
		Course:     course.Name,
		Category:   course.Category,
		Grades:     []string{},
		Attendance: ucampus.AttendanceUnknown,
	}
}

// syncCourse fetches and extracts a single course, a failed fetch yields
// the placeholder record together with the error.
func (s Service) syncCourse(ctx context.Context, session *ucampus.Session, course ucampus.CourseSpec) (string, ucampus.GradeRecord, error) {
	count := func(outcome string) {
		s.courseRuns.Add(ctx, 1, metric.WithAttributes(
			attribute.String("course", course.Code),
			attribute.String("outcome", outcome),
		))
	}

	pages, err := s.fetcher.FetchPages(ctx, session, course)
	if err != nil {
		s.tel.ReportBroken("course-fetcher.fetch-pages", err, course.String())
		count(outcomeFetchFailed)
		return "", placeholder(course), err
	}

	extraction := ucampus.Extract(ctx, course, pages)
	outcome := outcomeOk
	if extraction.Record.Attendance == ucampus.AttendanceUnknown || len(extraction.Record.Grades) == 0 {
		outcome = outcomePartial
		s.tel.ReportWarning(
			"extractor.extract",
			"incomplete course data",
			course.String(),
			len(extraction.Record.Grades),
			extraction.Record.Attendance,
		)
	}
	if pages.Section != course.Section {
		s.tel.ReportDebug("used fallback section", course.Code, pages.Section)
	}
	count(outcome)

	return extraction.Name, extraction.Record, nil
}

func (s Service) recordScoreboard(ctx context.Context, result Result) {
	if s.scoreboard == nil {
		return
	}
	if result.StudentName == "" {
		s.tel.ReportWarning("scoreboard.put", "student name unknown, skipping scoreboard")
		return
	}
	err := s.scoreboard.Put(ctx, result.RunID, s.now(), result.Record)
	if err != nil {
		s.tel.ReportBroken("scoreboard.put", err, result.StudentName)
	}
}
