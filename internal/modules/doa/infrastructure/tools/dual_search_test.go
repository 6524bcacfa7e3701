package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"DoaLink/internal/modules/doa/domain/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRetriever is a test double for retrieval.Retriever.
type mockRetriever struct {
	docs      []retrieval.Document
	err       error
	lastQuery string
	calls     int
}

func (m *mockRetriever) Search(ctx context.Context, query string) ([]retrieval.Document, error) {
	m.calls++
	m.lastQuery = query
	return m.docs, m.err
}

func doc(no, content string) retrieval.Document {
	return retrieval.Document{
		Content: content,
		Score:   0.9,
		Meta:    retrieval.Meta{retrieval.MetaNo: no, retrieval.MetaCategory: "การเงิน"},
	}
}

func runSearch(t *testing.T, d *DualSearch, args DualSearchArgs) DualSearchResult {
	t.Helper()
	raw, err := d.Run(context.Background(), args)
	require.NoError(t, err)
	var out DualSearchResult
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestRunRequiresQuery(t *testing.T) {
	d := NewDualSearch(&mockRetriever{}, &mockRetriever{})
	_, err := d.Run(context.Background(), DualSearchArgs{Query: "  "})
	require.Error(t, err)
}

func TestRunBroadKeywordSearchesOverviewOnly(t *testing.T) {
	overview := &mockRetriever{docs: []retrieval.Document{doc("1", "ภาพรวมการตลาด")}}
	detail := &mockRetriever{docs: []retrieval.Document{doc("2", "รายละเอียด")}}
	d := NewDualSearch(overview, detail)

	out := runSearch(t, d, DualSearchArgs{Query: "หมวดการตลาด มีอะไรบ้าง"})
	assert.Equal(t, SearchTypeOverview, out.SearchType)
	assert.Equal(t, 1, overview.calls)
	assert.Equal(t, 0, detail.calls)
	assert.Len(t, out.Overview, 1)
	assert.Empty(t, out.Details)
}

func TestRunOverviewPayloadCarriesCategoryAndGuidance(t *testing.T) {
	overview := &mockRetriever{docs: []retrieval.Document{{
		Content: "ภาพรวมหมวดการตลาด",
		Score:   0.8,
		Meta: retrieval.Meta{
			retrieval.MetaCategory:   "การตลาด",
			retrieval.MetaTotalItems: "12",
		},
	}}}
	d := NewDualSearch(overview, &mockRetriever{})

	out := runSearch(t, d, DualSearchArgs{Query: "q", SearchType: "overview"})
	require.Len(t, out.Overview, 1)
	assert.Equal(t, "การตลาด", out.Overview[0].Category)
	assert.Equal(t, "12", out.Overview[0].TotalItems)
	// 只命中概览时带引导语
	assert.NotEmpty(t, out.UserGuidance)
}

func TestRunBothHitsCarryNoGuidance(t *testing.T) {
	overview := &mockRetriever{docs: []retrieval.Document{doc("1", "ภาพรวม")}}
	detail := &mockRetriever{docs: []retrieval.Document{doc("2", "รายละเอียด")}}
	d := NewDualSearch(overview, detail)

	out := runSearch(t, d, DualSearchArgs{Query: "q", SearchType: "both"})
	assert.Empty(t, out.UserGuidance)
}

func TestRunSpecificKeywordSearchesBoth(t *testing.T) {
	overview := &mockRetriever{docs: []retrieval.Document{doc("1", "ภาพรวม")}}
	detail := &mockRetriever{docs: []retrieval.Document{doc("2", "รายละเอียดการฝึกอบรม")}}
	d := NewDualSearch(overview, detail)

	out := runSearch(t, d, DualSearchArgs{Query: "ขออนุมัติ training หลักสูตรใหม่"})
	assert.Equal(t, SearchTypeBoth, out.SearchType)
	assert.Equal(t, 1, overview.calls)
	assert.Equal(t, 1, detail.calls)
}

func TestRunExplicitSearchTypeWins(t *testing.T) {
	overview := &mockRetriever{docs: []retrieval.Document{doc("1", "x")}}
	detail := &mockRetriever{docs: []retrieval.Document{doc("2", "y")}}
	d := NewDualSearch(overview, detail)

	// 宽泛关键词但显式指定detail
	out := runSearch(t, d, DualSearchArgs{Query: "หมวดการตลาด มีอะไรบ้าง", SearchType: "detail"})
	assert.Equal(t, SearchTypeDetail, out.SearchType)
	assert.Equal(t, 0, overview.calls)
	assert.Equal(t, 1, detail.calls)
}

func TestRunAugmentsQueryWithFilters(t *testing.T) {
	detail := &mockRetriever{docs: []retrieval.Document{doc("9", "z")}}
	d := NewDualSearch(&mockRetriever{}, detail)

	runSearch(t, d, DualSearchArgs{
		Query:              "วงเงินอนุมัติ",
		SearchType:         "detail",
		Category:           "การเงิน",
		BusinessActivityNo: "9",
	})
	assert.Equal(t, "วงเงินอนุมัติ category:การเงิน No.:9", detail.lastQuery)
}

func TestRunNotFoundReturnsSuggestions(t *testing.T) {
	d := NewDualSearch(&mockRetriever{}, &mockRetriever{})

	out := runSearch(t, d, DualSearchArgs{Query: "อะไรสักอย่าง", SearchType: "both"})
	assert.False(t, out.Found)
	assert.NotEmpty(t, out.Message)
	require.NotEmpty(t, out.Suggestions)
	joined := strings.Join(out.Suggestions, " ")
	assert.Contains(t, joined, "https://doa.toagroup.com/doa")
}

func TestRunTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("ก", detailItemContentLimit+100)
	detail := &mockRetriever{docs: []retrieval.Document{doc("1", long)}}
	d := NewDualSearch(&mockRetriever{}, detail)

	out := runSearch(t, d, DualSearchArgs{Query: "q", SearchType: "detail"})
	require.Len(t, out.Details, 1)
	assert.Equal(t, detailItemContentLimit+3, len([]rune(out.Details[0].Content)))
	assert.True(t, strings.HasSuffix(out.Details[0].Content, "..."))
}

func TestRunSearchErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	d := NewDualSearch(&mockRetriever{err: boom}, &mockRetriever{})

	_, err := d.Run(context.Background(), DualSearchArgs{Query: "q", SearchType: "both"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overview search:")
}
