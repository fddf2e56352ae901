// internal/tickets/elastic_knowledge.go
package tickets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/models"
)

const defaultSearchSize = 20

// KnowledgeIndexMapping is the index layout List and Search rely on: id sorts as a keyword,
// title, content and category are analyzed text.
var KnowledgeIndexMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"id":       map[string]interface{}{"type": "keyword"},
			"title":    map[string]interface{}{"type": "text"},
			"content":  map[string]interface{}{"type": "text"},
			"category": map[string]interface{}{"type": "text", "fields": map[string]interface{}{"raw": map[string]interface{}{"type": "keyword"}}},
		},
	},
}

// ElasticKnowledgeBase keeps articles in an Elasticsearch index.
type ElasticKnowledgeBase struct {
	client *elasticsearch.Client
	index  string
	size   int
}

func NewElasticKnowledgeBase(client *elasticsearch.Client, index string) *ElasticKnowledgeBase {
	return &ElasticKnowledgeBase{client: client, index: index, size: defaultSearchSize}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.KnowledgeArticle `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	Found  bool                    `json:"found"`
	Source models.KnowledgeArticle `json:"_source"`
}

func (k *ElasticKnowledgeBase) List(ctx context.Context) ([]models.KnowledgeArticle, error) {
	return k.search(ctx, map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"id": map[string]interface{}{"order": "asc", "unmapped_type": "keyword"}}},
		"size":  k.size,
	})
}

func (k *ElasticKnowledgeBase) Search(ctx context.Context, query string) ([]models.KnowledgeArticle, error) {
	if strings.TrimSpace(query) == "" {
		return k.List(ctx)
	}
	return k.search(ctx, map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "content", "category"},
			},
		},
		"size": k.size,
	})
}

func (k *ElasticKnowledgeBase) Get(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	req := esapi.GetRequest{Index: k.index, DocumentID: id}
	res, err := req.Do(ctx, k.client)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(k.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewArticleNotFoundError(id)
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(k.index, fmt.Errorf("get failed: %s", res.String()))
	}

	var r getResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(k.index, err)
	}
	if !r.Found {
		return nil, apperrors.NewArticleNotFoundError(id)
	}
	return &r.Source, nil
}

// Seed indexes articles by id and refreshes the index so they are searchable at once.
func (k *ElasticKnowledgeBase) Seed(ctx context.Context, articles []models.KnowledgeArticle) error {
	for _, a := range articles {
		body, err := json.Marshal(a)
		if err != nil {
			return err
		}
		req := esapi.IndexRequest{
			Index:      k.index,
			DocumentID: a.ID,
			Body:       bytes.NewReader(body),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, k.client)
		if err != nil {
			return apperrors.NewSearchQueryFailedError(k.index, err)
		}
		failed := res.IsError()
		status := res.String()
		res.Body.Close()
		if failed {
			return apperrors.NewSearchQueryFailedError(k.index, fmt.Errorf("index %s failed: %s", a.ID, status))
		}
	}
	return nil
}

func (k *ElasticKnowledgeBase) search(ctx context.Context, query map[string]interface{}) ([]models.KnowledgeArticle, error) {
	body, _ := json.Marshal(query)
	req := esapi.SearchRequest{
		Index: []string{k.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, k.client)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(k.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(k.index, fmt.Errorf("search failed: %s", res.String()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(k.index, err)
	}

	out := make([]models.KnowledgeArticle, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}
