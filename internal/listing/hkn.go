// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/examfetch/pkg/types"
)

// DefaultHKNBaseURL is the Eta Kappa Nu host.
const DefaultHKNBaseURL = "https://hkn.eecs.berkeley.edu"

// hknColumns maps a cell index to its exam type. Columns 0 and 1 hold the
// semester and instructor.
var hknColumns = map[int]string{
	2: types.Midterm1,
	3: types.Midterm2,
	4: types.Midterm3,
	5: types.Final,
}

// hknExamLabel is the anchor text HKN uses for the exam itself; any other
// anchor in an exam column is the solution.
const hknExamLabel = "[pdf]"

// HKN reads the Eta Kappa Nu exam table: one row per semester, one column
// per exam type, each cell holding zero or more links.
type HKN struct {
	BaseURL string
}

// NewHKN returns an HKN source rooted at baseURL, or the default host when empty.
func NewHKN(baseURL string) *HKN {
	if baseURL == "" {
		baseURL = DefaultHKNBaseURL
	}
	return &HKN{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Site returns types.SiteHKN.
func (s *HKN) Site() types.Site { return types.SiteHKN }

// ListingURL returns the course page, e.g. /exams/course/cs/170.
func (s *HKN) ListingURL(department, course string) string {
	return fmt.Sprintf("%s/exams/course/%s/%s", s.BaseURL, strings.ToLower(department), course)
}

// Parse extracts links from every data row. Rows without a semester are
// skipped, as are cells outside the known exam columns.
func (s *HKN) Parse(doc *goquery.Document) *types.CourseCollection {
	coll := types.NewCourseCollection()
	dataRows(doc, func(cells, _ *goquery.Selection) {
		if cells.Length() == 0 {
			return
		}
		semester := cellText(cells.Eq(0))
		if semester == "" {
			return
		}
		cells.Each(func(i int, cell *goquery.Selection) {
			examType, ok := hknColumns[i]
			if !ok {
				return
			}
			cell.Find("a").Each(func(_ int, a *goquery.Selection) {
				href, ok := a.Attr("href")
				if !ok || strings.TrimSpace(href) == "" {
					return
				}
				ct := types.ContentSolution
				if strings.TrimSpace(a.Text()) == hknExamLabel {
					ct = types.ContentExam
				}
				coll.Set(semester, examType, ct, strings.TrimSpace(href))
			})
		})
	})
	return coll
}

// Resolve joins link onto the HKN host.
func (s *HKN) Resolve(link string) (string, error) { return resolve(s.BaseURL, link) }

// Extension takes the extension from the link path, since HKN hosts more
// than PDFs. Links without one are saved as PDFs.
func (s *HKN) Extension(link string) string { return linkExtension(link, "pdf") }
