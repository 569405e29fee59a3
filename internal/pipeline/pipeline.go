// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the per-course fetch: create the course folder,
// read each enabled site's listing, dispatch the eligible downloads, and
// wait for them. A failing course is logged and cleaned up without
// stopping the courses after it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/examfetch/internal/download"
	"github.com/pdiddy/examfetch/internal/httputil"
	"github.com/pdiddy/examfetch/internal/listing"
	"github.com/pdiddy/examfetch/pkg/types"
)

// Course-level failure classes. Both are logged and absorbed by Run.
var (
	// ErrListing marks a listing page that could not be fetched or parsed.
	ErrListing = errors.New("listing")
	// ErrFilesystem marks a course folder that could not be created or removed.
	ErrFilesystem = errors.New("filesystem")
)

// Recorder stores download outcomes. history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, rec types.DownloadRecord) error
}

// Runner holds everything a run needs. Build it with New and adjust the
// exported fields before calling Run.
type Runner struct {
	Config   types.FetchConfig
	Client   *http.Client
	Logger   *slog.Logger
	ErrorLog *ErrorLog
	History  Recorder
	Sources  []listing.Source
	// RunID tags history records written by this runner.
	RunID string
}

// New returns a runner for cfg. cfg should already be normalized.
// A nil logger discards progress messages.
func New(cfg types.FetchConfig, client *http.Client, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if client == nil {
		client = httputil.NewClient(cfg.HTTPConfig)
	}
	return &Runner{
		Config:   cfg,
		Client:   client,
		Logger:   logger,
		ErrorLog: NewErrorLog(cfg.ErrorLog),
		Sources:  listing.Sources(cfg),
		RunID:    uuid.NewString(),
	}
}

// CourseResult describes one processed course.
type CourseResult struct {
	Course    string
	Folder    string
	Downloads download.Summary
	// Removed is true when the folder was deleted after a failure.
	Removed bool
}

// Summary aggregates a whole run.
type Summary struct {
	Courses       int
	FailedCourses []string
	Downloads     download.Summary
}

// CourseFolder returns "<outDir>/<department> <course>".
func CourseFolder(outDir, department, course string) string {
	return filepath.Join(outDir, department+" "+course)
}

// checkCourse rejects identifiers that are empty or would place the course
// folder anywhere but directly under the output directory.
func checkCourse(course string) error {
	if course == "" {
		return fmt.Errorf("empty course identifier")
	}
	if strings.ContainsAny(course, `/\`) {
		return fmt.Errorf("course identifier %q contains a path separator", course)
	}
	return nil
}

// Run processes courses one after another. A failure on one course is
// recorded and the next course is processed.
func (r *Runner) Run(ctx context.Context, courses []string) Summary {
	var sum Summary
	for _, course := range courses {
		res, err := r.Course(ctx, course)
		sum.Courses++
		sum.Downloads.Add(res.Downloads)
		if err != nil {
			sum.FailedCourses = append(sum.FailedCourses, course)
		}
	}
	return sum
}

// Course runs every enabled source for one course and waits for all of its
// downloads. If a source fails, later sources are not tried, downloads
// already dispatched still finish, the failure goes to the error log, and
// the folder is removed if it is empty.
func (r *Runner) Course(ctx context.Context, course string) (CourseResult, error) {
	course = strings.TrimSpace(course)
	if err := checkCourse(course); err != nil {
		r.fail(course, err)
		return CourseResult{Course: course}, err
	}

	folder := CourseFolder(r.Config.OutDir, r.Config.Department, course)
	res := CourseResult{Course: course, Folder: folder}
	r.Logger.Info("starting searches", "folder", filepath.Base(folder))

	if err := os.MkdirAll(folder, 0o755); err != nil {
		err = fmt.Errorf("%w: creating %s: %w", ErrFilesystem, folder, err)
		r.fail(course, err)
		return res, err
	}

	group := download.NewGroup(r.Client, r.Config, func(dr download.Result) {
		r.report(ctx, dr)
	})

	var runErr error
	for _, src := range r.Sources {
		if err := r.pull(ctx, group, src, course, folder); err != nil {
			runErr = err
			break
		}
	}
	res.Downloads = group.Wait()

	if runErr == nil {
		return res, nil
	}

	r.fail(course, runErr)
	removed, err := removeIfEmpty(folder)
	if err != nil {
		err = fmt.Errorf("%w: removing %s: %w", ErrFilesystem, folder, err)
		r.fail(course, err)
		runErr = errors.Join(runErr, err)
	}
	res.Removed = removed
	return res, runErr
}

// pull fetches and parses one source's listing and dispatches its tasks.
func (r *Runner) pull(ctx context.Context, group *download.Group, src listing.Source, course, folder string) error {
	r.Logger.Info("pulling from "+string(src.Site()), "course", course)

	pageURL := src.ListingURL(r.Config.Department, course)
	doc, err := listing.Fetch(ctx, r.Client, pageURL, r.Config.HTTPConfig)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrListing, src.Site(), err)
	}

	coll := src.Parse(doc)
	r.Logger.Debug("parsed listing", "site", src.Site(), "records", coll.Len())

	tasks, err := download.Plan(coll, folder, course, src, r.Config)
	if err != nil {
		r.Logger.Warn("skipping unresolvable links", "site", src.Site(), "err", err)
	}
	for _, task := range tasks {
		group.Go(ctx, task)
	}
	return nil
}

// report handles one finished download. It runs on worker goroutines.
func (r *Runner) report(ctx context.Context, dr download.Result) {
	t := dr.Task
	if dr.Err != nil {
		r.Logger.Warn("download failed", "path", t.Path, "err", dr.Err)
		if err := r.ErrorLog.Record("download failed",
			"course", t.Course, "site", t.Site, "url", t.URL, "path", t.Path, "err", dr.Err); err != nil {
			r.Logger.Warn("writing error log", "err", err)
		}
	} else if dr.Duplicate {
		r.Logger.Debug("already saved from another source", "path", t.Path, "site", t.Site)
	} else {
		r.Logger.Info(fmt.Sprintf("%s (%s) for %s is complete", t.ExamType, t.Content, t.Semester),
			"site", t.Site, "skipped", dr.Skipped)
	}

	if r.History == nil {
		return
	}
	rec := types.DownloadRecord{
		RunID:    r.RunID,
		Course:   t.Course,
		Site:     t.Site,
		Semester: t.Semester,
		ExamType: t.ExamType,
		Content:  t.Content,
		URL:      t.URL,
		Path:     t.Path,
		Status:   dr.Status(),
	}
	if dr.Err != nil {
		rec.Error = dr.Err.Error()
	}
	if err := r.History.Record(ctx, rec); err != nil {
		r.Logger.Warn("recording history", "path", t.Path, "err", err)
	}
}

// fail writes a course-level failure to the console and the error log.
func (r *Runner) fail(course string, err error) {
	r.Logger.Error("course failed", "course", course, "err", err)
	if logErr := r.ErrorLog.Record("course failed", "course", course, "err", err); logErr != nil {
		r.Logger.Warn("writing error log", "err", logErr)
	}
}

// removeIfEmpty deletes dir when it has no entries.
func removeIfEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil {
		return false, err
	}
	return true, nil
}
