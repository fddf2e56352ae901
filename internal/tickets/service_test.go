package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/corpus"
	"ticket-triage/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func createTestService(t *testing.T, repo Repository) *Service {
	c := corpus.New([]models.HistoricalTicketRecord{
		{TicketID: "H1", IssueCategory: "Payment Gateway", Sentiment: "Frustrated", Priority: "High",
			Solution: "Retry payment", ResolutionStatus: "Resolved", ResolutionDate: "2025-01-05"},
		{TicketID: "H2", IssueCategory: "Network Connectivity", Sentiment: "Neutral", Priority: "Low",
			Solution: "Reset router", ResolutionStatus: "Unresolved", ResolutionDate: "2025-01-06"},
		{TicketID: "H1", IssueCategory: "Account Sync", Priority: "Medium", ResolutionStatus: "Resolved"},
	}, nil)

	ids := 0
	return NewService(repo, c, logger.NewTestLogger(t),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			ids++
			return []string{"Tabc00001", "Tabc00002", "Tabc00003"}[ids-1]
		}),
	)
}

func createTestRequest() models.CreateTicketRequest {
	return models.CreateTicketRequest{
		Subject:      "Invoice shows wrong amount",
		Description:  "I was billed twice this month",
		CustomerName: "Ana",
		Category:     CategoryBilling,
		Priority:     models.PriorityHigh,
	}
}

// ==========================
// List / Get
// ==========================

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc := createTestService(t, NewMemoryRepository())

	created, err := svc.Create(ctx, createTestRequest())
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)

	var ids []string
	for _, tk := range all {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []string{"H1", "H2", "T006", "T007", "T008", created.ID}, ids)

	h1 := all[0]
	assert.Equal(t, "Payment Gateway", h1.Subject)
	assert.Equal(t, CategoryBilling, h1.Category)
	assert.Equal(t, models.StatusResolved, h1.Status)
	assert.Equal(t, "frustrated", h1.Sentiment)
	assert.Equal(t, "Historical Data", h1.CustomerName)

	assert.Equal(t, models.StatusOpen, all[1].Status)
	assert.Equal(t, fixedNow.Format(time.RFC3339), all[2].CreatedAt)
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	svc := createTestService(t, NewMemoryRepository())
	created, err := svc.Create(ctx, createTestRequest())
	require.NoError(t, err)

	tests := []struct {
		name           string
		id             string
		validateOutput func(t *testing.T, got *models.Ticket, err error)
	}{
		{
			name: "created ticket",
			id:   created.ID,
			validateOutput: func(t *testing.T, got *models.Ticket, err error) {
				require.NoError(t, err)
				assert.Equal(t, "Invoice shows wrong amount", got.Subject)
			},
		},
		{
			name: "seed ticket",
			id:   "T007",
			validateOutput: func(t *testing.T, got *models.Ticket, err error) {
				require.NoError(t, err)
				assert.Equal(t, "Carlos Garcia", got.CustomerName)
			},
		},
		{
			name: "historical ticket",
			id:   "H2",
			validateOutput: func(t *testing.T, got *models.Ticket, err error) {
				require.NoError(t, err)
				assert.Equal(t, CategoryTechnical, got.Category)
			},
		},
		{
			name: "unknown",
			id:   "T999",
			validateOutput: func(t *testing.T, got *models.Ticket, err error) {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.Equal(t, apperrors.ErrCodeTicketNotFound, apperrors.Normalize(err).Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Get(ctx, tt.id)
			tt.validateOutput(t, got, err)
		})
	}
}

// ==========================
// Create
// ==========================

func TestService_Create(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(req *models.CreateTicketRequest)
		validateOutput func(t *testing.T, got *models.Ticket, err error)
	}{
		{
			name:   "defaults status and timestamps",
			mutate: func(req *models.CreateTicketRequest) {},
			validateOutput: func(t *testing.T, got *models.Ticket, err error) {
				require.NoError(t, err)
				assert.Equal(t, "Tabc00001", got.ID)
				assert.Equal(t, models.StatusOpen, got.Status)
				assert.Equal(t, "2025-03-01T10:00:00Z", got.CreatedAt)
				assert.Equal(t, got.CreatedAt, got.UpdatedAt)
			},
		},
		{
			name:   "keeps given status",
			mutate: func(req *models.CreateTicketRequest) { req.Status = models.StatusInProgress },
			validateOutput: func(t *testing.T, got *models.Ticket, err error) {
				require.NoError(t, err)
				assert.Equal(t, models.StatusInProgress, got.Status)
			},
		},
		{
			name:   "missing priority",
			mutate: func(req *models.CreateTicketRequest) { req.Priority = "" },
			validateOutput: func(t *testing.T, got *models.Ticket, err error) {
				require.Error(t, err)
				stdErr := apperrors.Normalize(err)
				assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
				assert.Equal(t, "Missing required fields: priority", stdErr.Details)
			},
		},
		{
			name: "several blank fields",
			mutate: func(req *models.CreateTicketRequest) {
				req.Subject = "  "
				req.Category = ""
			},
			validateOutput: func(t *testing.T, got *models.Ticket, err error) {
				require.Error(t, err)
				assert.Equal(t, "Missing required fields: subject, category", apperrors.Normalize(err).Details)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := createTestService(t, NewMemoryRepository())
			req := createTestRequest()
			tt.mutate(&req)

			got, err := svc.Create(context.Background(), req)
			tt.validateOutput(t, got, err)
		})
	}
}

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantDetails string
	}{
		{
			name: "complete",
			body: `{"subject":"s","description":"d","customerName":"c","category":"billing","priority":"low"}`,
		},
		{
			name:        "missing priority",
			body:        `{"subject":"s","description":"d","customerName":"c","category":"billing"}`,
			wantDetails: "Missing required fields: priority",
		},
		{
			name:        "missing several",
			body:        `{"description":"d","customerName":"c"}`,
			wantDetails: "Missing required fields: subject, category, priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreate([]byte(tt.body))
			if tt.wantDetails == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantDetails, apperrors.Normalize(err).Details)
		})
	}
}

// ==========================
// History / Stats
// ==========================

func TestService_History(t *testing.T) {
	svc := createTestService(t, NewMemoryRepository())

	h, err := svc.History(context.Background(), "T006")
	require.NoError(t, err)
	require.Len(t, h.History, 1)
	assert.Equal(t, "Ticket created", h.History[0].Action)
	assert.Equal(t, "Ticket T006 was created with subject: Payment Gateway Integration Failure", h.History[0].Details)
	assert.Equal(t, h.Ticket.CreatedAt, h.History[0].Timestamp)

	_, err = svc.History(context.Background(), "nope")
	assert.Equal(t, apperrors.ErrCodeTicketNotFound, apperrors.Normalize(err).Code)
}

func TestService_Stats(t *testing.T) {
	svc := createTestService(t, NewMemoryRepository())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Open)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, "0h", stats.AverageResolutionTime)
	assert.Equal(t, []models.CategoryCount{
		{Category: CategoryBilling, Count: 2},
		{Category: CategoryTechnical, Count: 2},
		{Category: CategoryFeature, Count: 1},
	}, stats.CategoryDistribution)
	assert.Equal(t, []models.PriorityCount{
		{Priority: models.PriorityHigh, Count: 3},
		{Priority: models.PriorityLow, Count: 1},
		{Priority: models.PriorityMedium, Count: 1},
	}, stats.PriorityDistribution)
}

func TestComputeStats_ResolutionTime(t *testing.T) {
	stats := ComputeStats([]models.Ticket{
		{ID: "A", Status: models.StatusResolved, CreatedAt: "2025-01-01T10:00:00Z", UpdatedAt: "2025-01-01T12:30:00Z"},
		{ID: "B", Status: models.StatusResolved, CreatedAt: "2025-01-01T00:00:00Z", UpdatedAt: "2025-01-02T02:00:00Z"},
		{ID: "C", Status: models.StatusResolved, CreatedAt: "2025-01-01"},
		{ID: "D", Status: models.StatusInProgress},
	})

	assert.Equal(t, "14h 15m", stats.AverageResolutionTime)
	assert.Equal(t, 3, stats.Resolved)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, []models.CategoryCount{{Category: CategoryGeneral, Count: 4}}, stats.CategoryDistribution)
	assert.Equal(t, []models.PriorityCount{{Priority: models.PriorityMedium, Count: 4}}, stats.PriorityDistribution)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, "0h", stats.AverageResolutionTime)
	assert.NotNil(t, stats.CategoryDistribution)
}

// ==========================
// Mapping
// ==========================

func TestMapIssueCategory(t *testing.T) {
	tests := map[string]string{
		"Payment Gateway":       CategoryBilling,
		"Billing Dispute":       CategoryBilling,
		"Language Support":      CategoryFeature,
		"Account Sync":          CategoryAccount,
		"Device Compatibility":  CategoryTechnical,
		"Software Installation": CategoryTechnical,
		"Printer jam":           CategoryGeneral,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapIssueCategory(in), in)
	}
}

func TestMapPriority(t *testing.T) {
	tests := map[string]string{
		"Critical": models.PriorityHigh,
		" urgent ": models.PriorityHigh,
		"High":     models.PriorityHigh,
		"Moderate": models.PriorityMedium,
		"medium":   models.PriorityMedium,
		"Low":      models.PriorityLow,
		"":         models.PriorityLow,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapPriority(in), in)
	}
}
