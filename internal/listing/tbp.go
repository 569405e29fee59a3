// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/examfetch/pkg/types"
)

// DefaultTBPBaseURL is the Tau Beta Pi host.
const DefaultTBPBaseURL = "https://tbp.berkeley.edu"

// TBP reads the Tau Beta Pi exam table: one row per file, exam type in the
// second cell, semester in the third, and a download anchor labelled
// "Exam" or "Solution".
type TBP struct {
	BaseURL string
}

// NewTBP returns a TBP source rooted at baseURL, or the default host when empty.
func NewTBP(baseURL string) *TBP {
	if baseURL == "" {
		baseURL = DefaultTBPBaseURL
	}
	return &TBP{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Site returns types.SiteTBP.
func (s *TBP) Site() types.Site { return types.SiteTBP }

// ListingURL returns the course page, e.g. /courses/cs/170.
func (s *TBP) ListingURL(department, course string) string {
	return fmt.Sprintf("%s/courses/%s/%s", s.BaseURL, strings.ToLower(department), course)
}

// Parse extracts links from every data row. Rows with fewer than three
// cells, and anchors whose label is neither "Exam" nor "Solution", are skipped.
func (s *TBP) Parse(doc *goquery.Document) *types.CourseCollection {
	coll := types.NewCourseCollection()
	dataRows(doc, func(cells, row *goquery.Selection) {
		if cells.Length() < 3 {
			return
		}
		examType := cellText(cells.Eq(1))
		semester := cellText(cells.Eq(2))
		if examType == "" || semester == "" {
			return
		}
		row.Find("a.exam-download-link").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return
			}
			var ct types.ContentType
			switch strings.TrimSpace(a.Text()) {
			case string(types.ContentExam):
				ct = types.ContentExam
			case string(types.ContentSolution):
				ct = types.ContentSolution
			default:
				return
			}
			coll.Set(semester, examType, ct, strings.TrimSpace(href))
		})
	})
	return coll
}

// Resolve joins link onto the TBP host.
func (s *TBP) Resolve(link string) (string, error) { return resolve(s.BaseURL, link) }

// Extension is always "pdf"; TBP serves only PDFs.
func (s *TBP) Extension(string) string { return "pdf" }
