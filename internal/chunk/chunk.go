// Package chunk implements the RAG-oriented chunker spec.md §1 lists as an
// external collaborator made concrete: each page's merged content is
// formatted into a page_content string, auto-profiled by complexity, and
// split by a separator cascade when it exceeds the profile's token budget.
// Grounded on original_source/backend/processing/chunker.py's Chunker,
// minus langchain's RecursiveCharacterTextSplitter (no ecosystem Go
// equivalent in the retrieved pack) — replaced with a small in-package
// cascade splitter that honors the same separator-priority/overlap shape.
package chunk

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jackzampolin/extractd/internal/types"
)

// Profile names a chunking profile, auto-selected from page complexity.
type Profile string

const (
	ProfileStandard      Profile = "standard"
	ProfileComplexTables Profile = "complex_tables"
	ProfileSimple        Profile = "simple"
)

type profileConfig struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

var profiles = map[Profile]profileConfig{
	ProfileStandard:      {chunkSize: 3000, chunkOverlap: 200, separators: []string{"\n\n\n", "\n\n", "\n", ". "}},
	ProfileComplexTables: {chunkSize: 4000, chunkOverlap: 300, separators: []string{"\n\n\n", "\n\n"}},
	ProfileSimple:        {chunkSize: 2000, chunkOverlap: 100, separators: []string{"\n\n", "\n", ". ", " "}},
}

// Chunk is one RAG-ready unit of page content.
type Chunk struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata"`
	EmbeddingID string                 `json:"embedding_id"`
}

// Chunker splits merged page results into Chunks.
type Chunker struct {
	KeyLang string
}

// New builds a Chunker. keyLang defaults to "en".
func New(keyLang string) *Chunker {
	if keyLang == "" {
		keyLang = "en"
	}
	return &Chunker{KeyLang: keyLang}
}

// ChunkPages chunks every page's merged content, skipping pages with no
// extractable content at all.
func (c *Chunker) ChunkPages(pages []types.PageResult) []Chunk {
	var all []Chunk
	for i, page := range pages {
		if !hasExtractableContent(page) {
			continue
		}
		all = append(all, c.chunkPage(page, i)...)
	}
	return all
}

func hasExtractableContent(page types.PageResult) bool {
	for _, key := range []string{"main_title", "page_summary", "key_sections", "visual_elements"} {
		if v, ok := page.Content[key]; ok && !isEmptyValue(v) {
			return true
		}
	}
	return false
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case []map[string]interface{}:
		return len(t) == 0
	case nil:
		return true
	default:
		return false
	}
}

func (c *Chunker) chunkPage(page types.PageResult, pageIdx int) []Chunk {
	content := pageContent(page)
	if strings.TrimSpace(content) == "" {
		return nil
	}

	profile := autoSelectProfile(page)
	cfg := profiles[profile]
	baseMeta := c.baseMetadata(page, pageIdx, profile)

	tokenCount := estimateTokens(content)
	if tokenCount <= cfg.chunkSize {
		meta := cloneMeta(baseMeta)
		meta["is_full_page"] = true
		meta["chunk_index"] = 0
		meta["total_chunks"] = 1
		meta["estimated_tokens"] = tokenCount
		return []Chunk{{
			PageContent: content,
			Metadata:    meta,
			EmbeddingID: chunkID(meta, content),
		}}
	}

	return splitLargePage(content, baseMeta, cfg)
}

func pageContent(page types.PageResult) string {
	var sections []string

	if title, ok := page.Content["main_title"].(string); ok && title != "" {
		sections = append(sections, "# "+title)
	}
	if summary, ok := page.Content["page_summary"].(string); ok && summary != "" {
		sections = append(sections, "## Summary\n"+summary)
	}
	if rawSections, ok := page.Content["key_sections"].([]map[string]interface{}); ok {
		for _, section := range rawSections {
			title, _ := section["section_title"].(string)
			if title == "" {
				title = "Content"
			}
			body := formatSectionContent(section["content"])
			sections = append(sections, fmt.Sprintf("### %s\n%s", title, body))
		}
	}

	return strings.Join(sections, "\n\n---\n\n")
}

func formatSectionContent(content interface{}) string {
	switch v := content.(type) {
	case string:
		return v
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, fmt.Sprintf("- %v", item))
		}
		return strings.Join(items, "\n")
	case []string:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, "- "+item)
		}
		return strings.Join(items, "\n")
	default:
		return ""
	}
}

func autoSelectProfile(page types.PageResult) Profile {
	tableCount := 0
	if visuals, ok := page.Content["visual_elements"].([]map[string]interface{}); ok {
		for _, v := range visuals {
			if t, _ := v["element_type"].(string); t == "table" {
				tableCount++
			}
		}
	}

	switch {
	case tableCount > 3:
		return ProfileComplexTables
	case page.PageComplexity == types.ComplexitySimple && tableCount == 0:
		return ProfileSimple
	default:
		return ProfileStandard
	}
}

func (c *Chunker) baseMetadata(page types.PageResult, pageIdx int, profile Profile) map[string]interface{} {
	title, _ := page.Content["main_title"].(string)
	summary, _ := page.Content["page_summary"].(string)

	return map[string]interface{}{
		"page_number":      page.PageIndex,
		"page_title":       title,
		"page_summary":     summary,
		"page_complexity":  string(page.PageComplexity),
		"language":         c.KeyLang,
		"chunking_profile": string(profile),
	}
}

func cloneMeta(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// estimateTokens approximates token count the same way the original
// does — length-based, not a real tokenizer. Runes/4 tracks common BPE
// tokenizers' ~4-chars-per-token average closely enough for chunk sizing.
func estimateTokens(text string) int {
	return len([]rune(text))/4 + 1
}

// splitLargePage applies a separator cascade: try the highest-priority
// separator that actually fits pieces under chunk_size; fall through to
// the next separator for any piece still too large, finally hard-splitting
// by rune count. Adjacent chunks overlap by chunkOverlap tokens' worth of
// trailing text from the previous chunk, mirroring
// RecursiveCharacterTextSplitter's overlap behavior.
func splitLargePage(content string, baseMeta map[string]interface{}, cfg profileConfig) []Chunk {
	pieces := splitCascade(content, cfg.separators, cfg.chunkSize)
	pieces = applyOverlap(pieces, cfg.chunkOverlap)

	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		meta := cloneMeta(baseMeta)
		meta["is_full_page"] = false
		meta["chunk_index"] = i
		meta["total_chunks"] = len(pieces)
		meta["estimated_tokens"] = estimateTokens(piece)
		chunks = append(chunks, Chunk{
			PageContent: piece,
			Metadata:    meta,
			EmbeddingID: chunkID(meta, piece),
		})
	}
	return chunks
}

func splitCascade(text string, separators []string, chunkSize int) []string {
	if estimateTokens(text) <= chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return hardSplit(text, chunkSize)
	}

	sep := separators[0]
	rest := separators[1:]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return splitCascade(text, rest, chunkSize)
	}

	var out []string
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
	}

	for _, part := range parts {
		candidate := part
		if buf.Len() > 0 {
			candidate = buf.String() + sep + part
		}
		if estimateTokens(candidate) <= chunkSize {
			buf.Reset()
			buf.WriteString(candidate)
			continue
		}
		flush()
		if estimateTokens(part) > chunkSize {
			out = append(out, splitCascade(part, rest, chunkSize)...)
		} else {
			buf.WriteString(part)
		}
	}
	flush()

	return out
}

func hardSplit(text string, chunkSize int) []string {
	runes := []rune(text)
	limit := chunkSize * 4 // undo the /4 estimate to get a rune budget
	if limit < 1 {
		limit = 1
	}
	var out []string
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

func applyOverlap(pieces []string, overlapTokens int) []string {
	if overlapTokens <= 0 || len(pieces) < 2 {
		return pieces
	}
	overlapRunes := overlapTokens * 4

	out := make([]string, len(pieces))
	out[0] = pieces[0]
	for i := 1; i < len(pieces); i++ {
		prev := []rune(pieces[i-1])
		start := len(prev) - overlapRunes
		if start < 0 {
			start = 0
		}
		out[i] = string(prev[start:]) + pieces[i]
	}
	return out
}

func chunkID(meta map[string]interface{}, content string) string {
	preview := content
	if len(preview) > 100 {
		preview = preview[:100]
	}
	raw := fmt.Sprintf("%v_%v_%s", meta["page_number"], meta["chunk_index"], preview)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
