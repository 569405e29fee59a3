// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/examfetch/pkg/types"
)

const sampleTBPHTML = `<html><body>
<table>
  <tr><th>Instructor</th><th>Exam</th><th>Term</th><th>Files</th></tr>
  <tr>
    <td>Rao</td><td>Midterm 1</td><td> Fall 2019 </td>
    <td><a class="exam-download-link" href="/exams/1/download/">Exam</a></td>
  </tr>
  <tr>
    <td>Rao</td><td>Midterm 1</td><td>Fall 2019</td>
    <td><a class="exam-download-link" href="/exams/2/download/"> Solution </a></td>
  </tr>
  <tr>
    <td>Wagner</td><td>Final</td><td>Spring 2020</td>
    <td><a class="exam-download-link" href="/exams/3/download/">Exam</a>
        <a class="other-link" href="/exams/3/info/">Solution</a></td>
  </tr>
  <tr>
    <td>Wagner</td><td>Midterm 2</td><td>Spring 2020</td>
    <td>no file uploaded</td>
  </tr>
  <tr><td>truncated</td></tr>
  <tr>
    <td>Nobody</td><td>Final</td><td>Fall 2020</td>
    <td><a class="exam-download-link" href="/exams/9/download/">Preview</a></td>
  </tr>
</table>
</body></html>`

const sampleHKNHTML = `<html><body>
<table>
  <tr><th>Semester</th><th>Instructor</th><th>Midterm 1</th><th>Midterm 2</th><th>Midterm 3</th><th>Final</th></tr>
  <tr>
    <td> Fall 2019 </td><td>Rao</td>
    <td><a href="/examfiles/cs170-fa19-mt1.pdf">[pdf]</a> <a href="/examfiles/cs170-fa19-mt1-sol.pdf">[solution]</a></td>
    <td></td>
    <td></td>
    <td><a href="/examfiles/cs170-fa19-final.PDF">[pdf]</a></td>
  </tr>
  <tr>
    <td>Spring 2020</td><td>Wagner</td>
    <td></td>
    <td><a href="/examfiles/cs170-sp20-mt2-sol.txt">[solution]</a></td>
    <td><a href="/examfiles/cs170-sp20-mt3.pdf">[pdf]</a><a href="/examfiles/cs170-sp20-mt3-sol.pdf">sol</a></td>
    <td></td>
    <td><a href="/examfiles/extra.pdf">[pdf]</a></td>
  </tr>
  <tr><td></td><td>No semester</td><td><a href="/examfiles/orphan.pdf">[pdf]</a></td></tr>
  <tr><td>Fall 2021</td></tr>
</table>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestTBPParse(t *testing.T) {
	coll := NewTBP("").Parse(mustDoc(t, sampleTBPHTML))

	require.Equal(t, 2, coll.Len())

	rec, ok := coll.Get("Fall 2019", "Midterm 1")
	require.True(t, ok)
	assert.Equal(t, "/exams/1/download/", rec.ExamLink)
	assert.Equal(t, "/exams/2/download/", rec.SolutionLink)

	rec, ok = coll.Get("Spring 2020", "Final")
	require.True(t, ok)
	assert.Equal(t, "/exams/3/download/", rec.ExamLink)
	assert.Empty(t, rec.SolutionLink, "anchor without the download class is ignored")

	_, ok = coll.Get("Spring 2020", "Midterm 2")
	assert.False(t, ok, "row without a link creates no record")

	_, ok = coll.Get("Fall 2020", "Final")
	assert.False(t, ok, "unrecognized label is not a link")
}

func TestHKNParse(t *testing.T) {
	coll := NewHKN("").Parse(mustDoc(t, sampleHKNHTML))

	rec, ok := coll.Get("Fall 2019", types.Midterm1)
	require.True(t, ok)
	assert.Equal(t, "/examfiles/cs170-fa19-mt1.pdf", rec.ExamLink)
	assert.Equal(t, "/examfiles/cs170-fa19-mt1-sol.pdf", rec.SolutionLink)

	rec, ok = coll.Get("Fall 2019", types.Final)
	require.True(t, ok)
	assert.Equal(t, "/examfiles/cs170-fa19-final.PDF", rec.ExamLink)
	assert.Empty(t, rec.SolutionLink)

	rec, ok = coll.Get("Spring 2020", types.Midterm2)
	require.True(t, ok)
	assert.Empty(t, rec.ExamLink)
	assert.Equal(t, "/examfiles/cs170-sp20-mt2-sol.txt", rec.SolutionLink)

	rec, ok = coll.Get("Spring 2020", types.Midterm3)
	require.True(t, ok)
	assert.True(t, rec.Complete())

	_, ok = coll.Get("Fall 2019", types.Midterm2)
	assert.False(t, ok, "empty cell creates no record")

	// Column 6 has no exam type; the semester-less row is dropped.
	assert.Equal(t, 4, coll.Len())
}

func TestParseEmptyDocument(t *testing.T) {
	doc := mustDoc(t, "<html><body><p>No exams yet.</p></body></html>")
	assert.Equal(t, 0, NewTBP("").Parse(doc).Len())
	assert.Equal(t, 0, NewHKN("").Parse(doc).Len())
}

func TestListingURL(t *testing.T) {
	assert.Equal(t, "https://tbp.berkeley.edu/courses/cs/170", NewTBP("").ListingURL("CS", "170"))
	assert.Equal(t, "https://hkn.eecs.berkeley.edu/exams/course/cs/61A", NewHKN("").ListingURL("CS", "61A"))
	assert.Equal(t, "http://localhost:9/courses/ee/16a", NewTBP("http://localhost:9/").ListingURL("EE", "16a"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		base string
		link string
		want string
	}{
		{"relative", "https://hkn.eecs.berkeley.edu", "/examfiles/a.pdf", "https://hkn.eecs.berkeley.edu/examfiles/a.pdf"},
		{"absolute passthrough", "https://tbp.berkeley.edu", "https://cdn.example.com/x.pdf", "https://cdn.example.com/x.pdf"},
		{"trimmed", "https://tbp.berkeley.edu", "  /exams/1/download/ ", "https://tbp.berkeley.edu/exams/1/download/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(tt.base, tt.link)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtension(t *testing.T) {
	hkn := NewHKN("")
	assert.Equal(t, "pdf", hkn.Extension("/examfiles/a.pdf"))
	assert.Equal(t, "pdf", hkn.Extension("/examfiles/a.PDF"))
	assert.Equal(t, "txt", hkn.Extension("/examfiles/a.txt"))
	assert.Equal(t, "docx", hkn.Extension("/examfiles/a.docx?dl=1"))
	assert.Equal(t, "pdf", hkn.Extension("/examfiles/noext"))

	assert.Equal(t, "pdf", NewTBP("").Extension("/exams/1/download/"))
}

func TestSources(t *testing.T) {
	both := types.FetchConfig{EnableTBP: true, EnableHKN: true}
	srcs := Sources(both)
	require.Len(t, srcs, 2)
	assert.Equal(t, types.SiteTBP, srcs[0].Site())
	assert.Equal(t, types.SiteHKN, srcs[1].Site())

	hknOnly := types.FetchConfig{EnableHKN: true, HKNBaseURL: "http://127.0.0.1:1"}
	srcs = Sources(hknOnly)
	require.Len(t, srcs, 1)
	assert.Equal(t, "http://127.0.0.1:1/exams/course/cs/170", srcs[0].ListingURL("CS", "170"))
}

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/courses/cs/170" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, sampleTBPHTML)
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	src := NewTBP(ts.URL)
	doc, err := Fetch(context.Background(), ts.Client(), src.ListingURL("CS", "170"), types.HTTPConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.Parse(doc).Len())

	_, err = Fetch(context.Background(), ts.Client(), src.ListingURL("CS", "999"), types.HTTPConfig{})
	assert.Error(t, err, "non-200 listing is a fetch error")
}

func TestFetchTimeoutCoversBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><table>")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	_, err := Fetch(context.Background(), ts.Client(), ts.URL, types.HTTPConfig{Timeout: 100 * time.Millisecond})
	assert.Error(t, err)
}
