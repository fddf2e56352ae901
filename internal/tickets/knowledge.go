// internal/tickets/knowledge.go
package tickets

import (
	"context"
	"strings"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/models"
)

// KnowledgeBase serves the support articles.
type KnowledgeBase interface {
	List(ctx context.Context) ([]models.KnowledgeArticle, error)
	Get(ctx context.Context, id string) (*models.KnowledgeArticle, error)
	Search(ctx context.Context, query string) ([]models.KnowledgeArticle, error)
}

// DefaultArticles are the built-in articles, also used to seed the search index.
func DefaultArticles() []models.KnowledgeArticle {
	return []models.KnowledgeArticle{
		{
			ID:       "KB001",
			Title:    "Common Login Issues",
			Category: "authentication",
			Content:  "If users are having trouble logging in, check their credentials and ensure the authentication service is running.",
		},
		{
			ID:       "KB002",
			Title:    "Payment Processing",
			Category: "billing",
			Content:  "For payment processing issues, verify the payment gateway connection and check for any error codes in the logs.",
		},
		{
			ID:       "KB003",
			Title:    "Mobile App Troubleshooting",
			Category: "technical",
			Content:  "For mobile app issues, check the device compatibility, OS version, and ensure the app is up to date.",
		},
	}
}

type MemoryKnowledgeBase struct {
	articles []models.KnowledgeArticle
}

func NewMemoryKnowledgeBase(articles []models.KnowledgeArticle) *MemoryKnowledgeBase {
	if articles == nil {
		articles = DefaultArticles()
	}
	return &MemoryKnowledgeBase{articles: articles}
}

func (k *MemoryKnowledgeBase) List(_ context.Context) ([]models.KnowledgeArticle, error) {
	return append([]models.KnowledgeArticle(nil), k.articles...), nil
}

func (k *MemoryKnowledgeBase) Get(_ context.Context, id string) (*models.KnowledgeArticle, error) {
	for i := range k.articles {
		if k.articles[i].ID == id {
			a := k.articles[i]
			return &a, nil
		}
	}
	return nil, apperrors.NewArticleNotFoundError(id)
}

// Search matches every query term, case-insensitively, against title, category and content.
func (k *MemoryKnowledgeBase) Search(_ context.Context, query string) ([]models.KnowledgeArticle, error) {
	terms := strings.Fields(strings.ToLower(query))
	out := []models.KnowledgeArticle{}
	for _, a := range k.articles {
		haystack := strings.ToLower(a.Title + " " + a.Category + " " + a.Content)
		matched := len(terms) > 0
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, a)
		}
	}
	return out, nil
}
