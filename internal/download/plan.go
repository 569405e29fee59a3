// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download turns exam records into file download tasks and runs
// them. A task saves one linked file under a deterministic name and is
// skipped when that file already exists.
package download

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/examfetch/pkg/types"
)

// Namer resolves links and picks file extensions for one site.
// listing.Source satisfies it.
type Namer interface {
	Site() types.Site
	Resolve(link string) (string, error)
	Extension(link string) string
}

// Task is one file to fetch.
type Task struct {
	Course   string
	Site     types.Site
	Semester string
	ExamType string
	Content  types.ContentType

	// URL is the absolute file URL.
	URL string

	// Path is the destination file.
	Path string
}

// Eligible reports whether a record may produce downloads. By default both
// links must be present; unpaired mode accepts either one.
func Eligible(rec types.ExamRecord, unpaired bool) bool {
	if unpaired {
		return !rec.Empty()
	}
	return rec.Complete()
}

// FileName returns "<folder>/<exam type> <semester> <content>.<ext>".
// Path separators inside the name parts are replaced so the file always
// lands directly in folder.
func FileName(folder, examType, semester string, content types.ContentType, ext string) string {
	name := fmt.Sprintf("%s %s %s.%s", examType, semester, content, ext)
	name = strings.NewReplacer("/", "-", `\`, "-").Replace(name)
	return filepath.Join(folder, name)
}

// Plan lists the download tasks for a collection. Links that cannot be
// resolved are left out and reported together in the returned error; the
// tasks for every other link are still returned.
func Plan(coll *types.CourseCollection, folder, course string, namer Namer, cfg types.FetchConfig) ([]Task, error) {
	var tasks []Task
	var errs []error
	for _, rec := range coll.Records() {
		if !Eligible(rec, cfg.Unpaired) {
			continue
		}
		for _, ct := range []types.ContentType{types.ContentExam, types.ContentSolution} {
			link := rec.Link(ct)
			if link == "" || !cfg.Wants(ct) {
				continue
			}
			fileURL, err := namer.Resolve(link)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %s %s: %w", rec.ExamType, rec.Semester, ct, err))
				continue
			}
			tasks = append(tasks, Task{
				Course:   course,
				Site:     namer.Site(),
				Semester: rec.Semester,
				ExamType: rec.ExamType,
				Content:  ct,
				URL:      fileURL,
				Path:     FileName(folder, rec.ExamType, rec.Semester, ct, namer.Extension(link)),
			})
		}
	}
	return tasks, errors.Join(errs...)
}
