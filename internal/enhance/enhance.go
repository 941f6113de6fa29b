// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enhance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/doc-analyzer/internal/pdf"
)

// Credentials select the provider endpoint, key, and model for one
// document's descriptions. Keys arrive per request, so the Enhancer builds
// a client per call rather than holding one.
type Credentials struct {
	APIKey string
	Model  string

	// BaseURL is the OpenAI-compatible API root. Empty selects
	// DefaultBaseURL; a local server URL selects a local LLM instead.
	BaseURL string
}

// Enhancer extracts embedded images from a PDF, describes each through a
// Describer, and appends the captions to the converted Markdown grouped by
// page. Figure numbering is continuous across pages.
type Enhancer struct {
	httpClient    *http.Client
	maxConcurrent int

	// newDescriber builds the per-call description client. Tests
	// substitute a fake.
	newDescriber func(creds Credentials) Describer
}

// NewEnhancer creates an Enhancer. maxConcurrent bounds simultaneous
// description calls for one document; values below 1 select 4. A nil
// httpClient selects http.DefaultClient.
func NewEnhancer(httpClient *http.Client, maxConcurrent int) *Enhancer {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	e := &Enhancer{httpClient: httpClient, maxConcurrent: maxConcurrent}
	e.newDescriber = func(creds Credentials) Describer {
		return NewClient(creds.APIKey, creds.Model, creds.BaseURL, e.httpClient)
	}
	return e
}

// EnhancePDF describes every embedded image in the PDF at pdfPath and
// returns baseMarkdown with a figures section appended, plus the number of
// figures described. A PDF without embedded images returns baseMarkdown
// unchanged with zero figures. Extraction scratch space is removed before
// returning. Progress goes to w.
func (e *Enhancer) EnhancePDF(ctx context.Context, pdfPath, baseMarkdown string, creds Credentials, w io.Writer) (string, int, error) {
	scratch, err := os.MkdirTemp("", "doc-analyzer-figures-*")
	if err != nil {
		return "", 0, fmt.Errorf("creating figure scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	images, err := pdf.ExtractImages(pdfPath, scratch)
	if err != nil {
		return "", 0, fmt.Errorf("extracting figures: %w", err)
	}
	if len(images) == 0 {
		return baseMarkdown, 0, nil
	}

	fmt.Fprintf(w, "describing %d embedded images\n", len(images))

	describer := e.newDescriber(creds)
	captions := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for i, img := range images {
		g.Go(func() error {
			caption, err := describer.Describe(gctx, img.Path)
			if err != nil {
				return fmt.Errorf("describing image on page %d: %w", img.Page, err)
			}
			captions[i] = caption
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", 0, err
	}

	return weaveFigures(baseMarkdown, images, captions), len(images), nil
}

// weaveFigures appends a figures section to md, grouping captions under
// per-page headings. images and captions are parallel slices already ordered
// by page.
func weaveFigures(md string, images []pdf.PageImage, captions []string) string {
	byPage := make(map[int][]string)
	for i, img := range images {
		byPage[img.Page] = append(byPage[img.Page], captions[i])
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var b strings.Builder
	b.WriteString(strings.TrimRight(md, "\n"))
	b.WriteString("\n\n## Figures\n")

	figure := 1
	for _, p := range pages {
		fmt.Fprintf(&b, "\n### Page %d\n\n", p)
		for _, caption := range byPage[p] {
			fmt.Fprintf(&b, "Figure %d: %s\n\n", figure, caption)
			figure++
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
