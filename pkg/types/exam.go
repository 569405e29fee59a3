// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the examfetch pipeline:
// sites, exam records and their per-course collections, configuration, and
// download history rows.
package types

import "sort"

// Site identifies one of the fixed listing hosts.
type Site string

const (
	SiteTBP Site = "TBP"
	SiteHKN Site = "HKN"
)

// ContentType tells whether a link points at the exam or at its solution.
type ContentType string

const (
	ContentExam     ContentType = "Exam"
	ContentSolution ContentType = "Solution"
)

// Exam type labels used by the HKN column layout. TBP labels are taken
// verbatim from the page and may be anything.
const (
	Midterm1 = "Midterm 1"
	Midterm2 = "Midterm 2"
	Midterm3 = "Midterm 3"
	Final    = "Final"
)

// ExamRecord pairs the exam and solution links for one (semester, exam type).
// An empty link means it was never seen on the page.
type ExamRecord struct {
	Semester     string `json:"semester" yaml:"semester"`
	ExamType     string `json:"exam_type" yaml:"exam_type"`
	ExamLink     string `json:"exam_link,omitempty" yaml:"exam_link,omitempty"`
	SolutionLink string `json:"solution_link,omitempty" yaml:"solution_link,omitempty"`
}

// Link returns the link stored for the given content type.
func (r ExamRecord) Link(ct ContentType) string {
	if ct == ContentExam {
		return r.ExamLink
	}
	return r.SolutionLink
}

// Complete reports whether both links are present.
func (r ExamRecord) Complete() bool {
	return r.ExamLink != "" && r.SolutionLink != ""
}

// Empty reports whether neither link is present.
func (r ExamRecord) Empty() bool {
	return r.ExamLink == "" && r.SolutionLink == ""
}

// CourseCollection maps semester to exam type to record for a single
// (course, site) listing. The zero value is not usable; call NewCourseCollection.
type CourseCollection struct {
	bySemester map[string]map[string]*ExamRecord
}

// NewCourseCollection returns an empty collection.
func NewCourseCollection() *CourseCollection {
	return &CourseCollection{bySemester: make(map[string]map[string]*ExamRecord)}
}

// Set stores link in the slot named by content for (semester, examType),
// creating the record on first sighting. A later link for the same slot
// replaces the earlier one.
func (c *CourseCollection) Set(semester, examType string, content ContentType, link string) {
	byType, ok := c.bySemester[semester]
	if !ok {
		byType = make(map[string]*ExamRecord)
		c.bySemester[semester] = byType
	}
	rec, ok := byType[examType]
	if !ok {
		rec = &ExamRecord{Semester: semester, ExamType: examType}
		byType[examType] = rec
	}
	switch content {
	case ContentExam:
		rec.ExamLink = link
	case ContentSolution:
		rec.SolutionLink = link
	}
}

// Get returns a copy of the record for (semester, examType).
func (c *CourseCollection) Get(semester, examType string) (ExamRecord, bool) {
	rec, ok := c.bySemester[semester][examType]
	if !ok {
		return ExamRecord{}, false
	}
	return *rec, true
}

// Len returns the number of records.
func (c *CourseCollection) Len() int {
	n := 0
	for _, byType := range c.bySemester {
		n += len(byType)
	}
	return n
}

// Records returns copies of all records ordered by semester, then exam type.
func (c *CourseCollection) Records() []ExamRecord {
	out := make([]ExamRecord, 0, c.Len())
	for _, byType := range c.bySemester {
		for _, rec := range byType {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Semester != out[j].Semester {
			return out[i].Semester < out[j].Semester
		}
		return out[i].ExamType < out[j].ExamType
	})
	return out
}
