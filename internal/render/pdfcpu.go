// Package render is the thin, concrete implementation of the PDF-to-image
// renderer spec.md §1 calls an "external collaborator" whose interface the
// core pipeline only consumes through internal/pageinput.PageInput. It is
// imported by cmd/extractd only — no internal/router, internal/extract, or
// internal/orchestrate code depends on this package.
//
// Grounded on other_examples/hazyhaar-chrc__pdf.go's pdfcpu content-stream
// text extraction, and on pdfcpu's own image-extraction entry point for the
// page images vision strategies attach to their prompts.
package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jackzampolin/extractd/internal/pageinput"
)

// PDFRenderer turns a PDF file on disk into one pageinput.PageInput per
// page: extracted text via pdfcpu's content-stream walk, plus the page's
// largest embedded image (pdfcpu has no vector rasterizer, so a page
// without an embedded raster image yields no image — vision strategies
// fall back to their text-only path in that case).
type PDFRenderer struct{}

// NewPDFRenderer builds a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// RenderFile renders every page of the PDF at path into PageInputs.
func (r *PDFRenderer) RenderFile(path string) ([]*pageinput.PageInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read %s: %w", path, err)
	}

	imagesByPage, err := r.extractPageImages(path, ctx.PageCount)
	if err != nil {
		// Image extraction is best-effort: a PDF with no raster content
		// (pure vector/text) is a normal input, not a failure.
		imagesByPage = map[int]pageImage{}
	}

	pages := make([]*pageinput.PageInput, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		text := extractPageText(ctx, pageNr)
		img := imagesByPage[pageNr]

		pages = append(pages, &pageinput.PageInput{
			PageIndex:  pageNr - 1,
			Width:      img.width,
			Height:     img.height,
			Image:      img.decoded,
			ImageBytes: img.raw,
			Text:       text,
		})
	}

	return pages, nil
}

type pageImage struct {
	raw     []byte
	decoded image.Image
	width   int
	height  int
}

// extractPageImages extracts every embedded raster image via pdfcpu and
// keeps, per page, the largest one by pixel area — the page background
// scan is usually far larger than inline icons or logos.
func (r *PDFRenderer) extractPageImages(path string, pageCount int) (map[int]pageImage, error) {
	tmpDir, err := os.MkdirTemp("", "extractd-render-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	pageSelection := make([]string, 0, pageCount)
	for p := 1; p <= pageCount; p++ {
		pageSelection = append(pageSelection, strconv.Itoa(p))
	}

	if err := api.ExtractImagesFile(path, tmpDir, pageSelection, nil); err != nil {
		return nil, fmt.Errorf("pdfcpu extract images: %w", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, err
	}

	result := map[int]pageImage{}
	pageFromName := regexp.MustCompile(`_(\d+)_`)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pageFromName.FindStringSubmatch(entry.Name())
		if len(match) != 2 {
			continue
		}
		pageNr, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(tmpDir, entry.Name()))
		if err != nil {
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			continue
		}

		bounds := decoded.Bounds()
		area := bounds.Dx() * bounds.Dy()
		if existing, ok := result[pageNr]; ok {
			existingBounds := existing.decoded.Bounds()
			if existingBounds.Dx()*existingBounds.Dy() >= area {
				continue
			}
		}
		result[pageNr] = pageImage{raw: raw, decoded: decoded, width: bounds.Dx(), height: bounds.Dy()}
	}

	return result, nil
}

// extractPageText extracts text from a single PDF page via pdfcpu's
// content stream, grounded on hazyhaar-chrc's extractPageText/
// extractTextFromStream pair.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return cleanPDFText(sb.String())
}

func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
