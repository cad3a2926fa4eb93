package chunk

import (
	"strings"
	"testing"

	"github.com/jackzampolin/extractd/internal/types"
)

func pageWith(content map[string]interface{}, complexity types.PageComplexity) types.PageResult {
	return types.PageResult{PageComplexity: complexity, Content: content}
}

func TestChunkPagesSkipsEmptyPages(t *testing.T) {
	c := New("en")
	pages := []types.PageResult{pageWith(map[string]interface{}{}, types.ComplexityModerate)}
	got := c.ChunkPages(pages)
	if len(got) != 0 {
		t.Errorf("ChunkPages() = %d chunks, want 0 for empty page", len(got))
	}
}

func TestChunkPagesProducesOneFullPageChunkForShortContent(t *testing.T) {
	c := New("en")
	pages := []types.PageResult{pageWith(map[string]interface{}{
		"main_title":   "Introduction",
		"page_summary": "A short summary.",
	}, types.ComplexityModerate)}

	got := c.ChunkPages(pages)
	if len(got) != 1 {
		t.Fatalf("ChunkPages() = %d chunks, want 1", len(got))
	}
	if got[0].Metadata["is_full_page"] != true {
		t.Error("expected is_full_page = true for content under chunk_size")
	}
	if !strings.Contains(got[0].PageContent, "Introduction") {
		t.Errorf("PageContent = %q, want it to contain the title", got[0].PageContent)
	}
}

func TestAutoSelectProfilePicksSimpleForSimplePageWithNoTables(t *testing.T) {
	page := pageWith(map[string]interface{}{"main_title": "x"}, types.ComplexitySimple)
	if got := autoSelectProfile(page); got != ProfileSimple {
		t.Errorf("autoSelectProfile() = %q, want %q", got, ProfileSimple)
	}
}

func TestAutoSelectProfilePicksComplexTablesForManyTables(t *testing.T) {
	visuals := []map[string]interface{}{
		{"element_type": "table"}, {"element_type": "table"},
		{"element_type": "table"}, {"element_type": "table"},
	}
	page := pageWith(map[string]interface{}{"visual_elements": visuals}, types.ComplexityModerate)
	if got := autoSelectProfile(page); got != ProfileComplexTables {
		t.Errorf("autoSelectProfile() = %q, want %q", got, ProfileComplexTables)
	}
}

func TestChunkPagesSplitsLongContentIntoMultipleChunks(t *testing.T) {
	c := New("en")
	longSummary := strings.Repeat("word ", 5000)
	pages := []types.PageResult{pageWith(map[string]interface{}{
		"main_title":   "Long Page",
		"page_summary": longSummary,
	}, types.ComplexityModerate)}

	got := c.ChunkPages(pages)
	if len(got) < 2 {
		t.Fatalf("ChunkPages() = %d chunks, want multiple chunks for long content", len(got))
	}
	for i, chunk := range got {
		if chunk.Metadata["chunk_index"] != i {
			t.Errorf("chunk %d: chunk_index = %v, want %d", i, chunk.Metadata["chunk_index"], i)
		}
		if chunk.Metadata["total_chunks"] != len(got) {
			t.Errorf("chunk %d: total_chunks = %v, want %d", i, chunk.Metadata["total_chunks"], len(got))
		}
	}
}

func TestChunkIDIsDeterministic(t *testing.T) {
	meta := map[string]interface{}{"page_number": 1, "chunk_index": 0}
	a := chunkID(meta, "some content")
	b := chunkID(meta, "some content")
	if a != b {
		t.Errorf("chunkID() is not deterministic: %q != %q", a, b)
	}
}

func TestFormatSectionContentJoinsListItems(t *testing.T) {
	got := formatSectionContent([]interface{}{"first", "second"})
	want := "- first\n- second"
	if got != want {
		t.Errorf("formatSectionContent() = %q, want %q", got, want)
	}
}
