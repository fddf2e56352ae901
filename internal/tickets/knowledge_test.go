package tickets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/models"
)

// ==========================
// Memory Knowledge Base
// ==========================

func TestMemoryKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	kb := NewMemoryKnowledgeBase(nil)

	all, err := kb.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "KB001", all[0].ID)

	a, err := kb.Get(ctx, "KB002")
	require.NoError(t, err)
	assert.Equal(t, "Payment Processing", a.Title)

	_, err = kb.Get(ctx, "KB999")
	assert.Equal(t, apperrors.ErrCodeArticleNotFound, apperrors.Normalize(err).Code)
}

func TestMemoryKnowledgeBase_Search(t *testing.T) {
	kb := NewMemoryKnowledgeBase(nil)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "payment", want: []string{"KB002"}},
		{query: "MOBILE app", want: []string{"KB003"}},
		{query: "check", want: []string{"KB001", "KB002", "KB003"}},
		{query: "payment mobile", want: []string{}},
		{query: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := kb.Search(context.Background(), tt.query)
			require.NoError(t, err)
			ids := []string{}
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

// ==========================
// Elasticsearch Knowledge Base
// ==========================

func createTestElasticKB(t *testing.T, handler http.HandlerFunc) *ElasticKnowledgeBase {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticKnowledgeBase(client, "knowledge_index")
}

func hitsBody(articles ...models.KnowledgeArticle) string {
	hits := make([]map[string]interface{}, 0, len(articles))
	for _, a := range articles {
		hits = append(hits, map[string]interface{}{"_id": a.ID, "_source": a})
	}
	body, _ := json.Marshal(map[string]interface{}{"hits": map[string]interface{}{"hits": hits}})
	return string(body)
}

func TestElasticKnowledgeBase_Search(t *testing.T) {
	var gotPath, gotBody string
	kb := createTestElasticKB(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(hitsBody(DefaultArticles()[1])))
	})

	got, err := kb.Search(context.Background(), "payment gateway")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "KB002", got[0].ID)
	assert.Equal(t, "/knowledge_index/_search", gotPath)
	assert.Contains(t, gotBody, `"multi_match"`)
	assert.Contains(t, gotBody, `"title^2"`)
}

func TestElasticKnowledgeBase_List(t *testing.T) {
	var gotBody string
	kb := createTestElasticKB(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(hitsBody(DefaultArticles()...)))
	})

	got, err := kb.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Contains(t, gotBody, `"match_all"`)
}

func TestElasticKnowledgeBase_Get(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		validateOutput func(t *testing.T, got *models.KnowledgeArticle, err error)
	}{
		{
			name:   "found",
			status: http.StatusOK,
			body:   `{"found":true,"_source":{"id":"KB001","title":"Common Login Issues","category":"authentication","content":"c"}}`,
			validateOutput: func(t *testing.T, got *models.KnowledgeArticle, err error) {
				require.NoError(t, err)
				assert.Equal(t, "Common Login Issues", got.Title)
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"found":false}`,
			validateOutput: func(t *testing.T, got *models.KnowledgeArticle, err error) {
				assert.Nil(t, got)
				assert.Equal(t, apperrors.ErrCodeArticleNotFound, apperrors.Normalize(err).Code)
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			validateOutput: func(t *testing.T, got *models.KnowledgeArticle, err error) {
				assert.Nil(t, got)
				assert.Equal(t, apperrors.ErrCodeSearchQueryFailed, apperrors.Normalize(err).Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := createTestElasticKB(t, func(w http.ResponseWriter, r *http.Request) {
				assert.True(t, strings.HasSuffix(r.URL.Path, "/_doc/KB001"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := kb.Get(context.Background(), "KB001")
			tt.validateOutput(t, got, err)
		})
	}
}

func TestElasticKnowledgeBase_Seed(t *testing.T) {
	var paths []string
	kb := createTestElasticKB(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	require.NoError(t, kb.Seed(context.Background(), DefaultArticles()))
	assert.Equal(t, []string{
		"PUT /knowledge_index/_doc/KB001?refresh=true",
		"PUT /knowledge_index/_doc/KB002?refresh=true",
		"PUT /knowledge_index/_doc/KB003?refresh=true",
	}, paths)
}
