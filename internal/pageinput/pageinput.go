// Package pageinput defines PageInput, the unit of work the external PDF
// renderer hands to the pipeline (spec.md §3). It is immutable for the
// duration of processing.
package pageinput

import "image"

// PageInput is one rendered PDF page plus its extracted text.
type PageInput struct {
	PageIndex int // 0-indexed
	Width     int
	Height    int
	Image     image.Image
	// ImageBytes is the encoded (PNG/JPEG) form of Image, ready to embed
	// in a vision-LLM message. Renderers populate both so callers never
	// need to re-encode on every strategy invocation.
	ImageBytes []byte
	Text       string
}
