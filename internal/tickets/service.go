// internal/tickets/service.go
package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/validation"
	"ticket-triage/internal/corpus"
	"ticket-triage/internal/models"
)

// RequiredCreateFields are the keys a ticket-creation request must carry.
var RequiredCreateFields = []string{"subject", "description", "customerName", "category", "priority"}

// CreateSchema checks a raw creation request before it is decoded.
var CreateSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": toInterfaces(RequiredCreateFields),
	"properties": map[string]interface{}{
		"subject":       map[string]interface{}{"type": "string"},
		"description":   map[string]interface{}{"type": "string"},
		"customerName":  map[string]interface{}{"type": "string"},
		"customerEmail": map[string]interface{}{"type": "string"},
		"category":      map[string]interface{}{"type": "string"},
		"priority":      map[string]interface{}{"type": "string"},
		"status":        map[string]interface{}{"type": "string"},
	},
})

// Service merges the historical corpus, the fixed open tickets and created tickets into one
// ticket list. Created tickets live in the repository.
type Service struct {
	repo   Repository
	corpus *corpus.Corpus
	logger logger.Logger
	now    func() time.Time
	newID  func() string
	seeds  []models.Ticket
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

func NewService(repo Repository, c *corpus.Corpus, log logger.Logger, opts ...ServiceOption) *Service {
	if c == nil {
		c = corpus.Empty()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Service{
		repo:   repo,
		corpus: c,
		logger: log,
		now:    time.Now,
		newID:  func() string { return "T" + uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seeds = seedTickets(s.now().Format(time.RFC3339))
	return s
}

// ValidateCreate reports the required keys absent from a raw creation request.
func ValidateCreate(body []byte) error {
	result := CreateSchema.ValidateJSON(body)
	if result.Valid {
		return nil
	}
	if missing := CreateSchema.MissingFields(result); len(missing) > 0 {
		return missingFieldsError(missing)
	}
	return apperrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
}

// List returns historical tickets, then the fixed open tickets, then created tickets. The first
// ticket seen with a given id wins.
func (s *Service) List(ctx context.Context) ([]models.Ticket, error) {
	created, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	fallbackCreatedAt := s.now().Format(time.RFC3339)
	seen := map[string]bool{}
	var out []models.Ticket
	add := func(t models.Ticket) {
		if t.ID == "" || seen[t.ID] {
			return
		}
		seen[t.ID] = true
		out = append(out, t)
	}

	for _, rec := range s.corpus.Records() {
		add(FromHistorical(rec, fallbackCreatedAt))
	}
	for _, t := range s.seeds {
		add(t)
	}
	for _, t := range created {
		add(t)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := s.repo.Get(ctx, id)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, apperrors.NewTicketNotFoundError(id)
}

func (s *Service) Create(ctx context.Context, req models.CreateTicketRequest) (*models.Ticket, error) {
	if missing := missingCreateFields(req); len(missing) > 0 {
		return nil, missingFieldsError(missing)
	}

	now := s.now().Format(time.RFC3339)
	t := models.Ticket{
		ID:            s.newID(),
		Subject:       req.Subject,
		Description:   req.Description,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Category:      req.Category,
		Priority:      req.Priority,
		Status:        orDefault(req.Status, models.StatusOpen),
		CreatedAt:     now,
		UpdatedAt:     now,
		AssignedTo:    req.AssignedTo,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("ticket created", map[string]interface{}{
		"ticketId": t.ID,
		"category": t.Category,
		"priority": t.Priority,
	})
	return &t, nil
}

func (s *Service) History(ctx context.Context, id string) (*models.TicketHistory, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TicketHistory{
		Ticket: *t,
		History: []models.HistoryEntry{{
			Timestamp: t.CreatedAt,
			Action:    "Ticket created",
			Details:   fmt.Sprintf("Ticket %s was created with subject: %s", t.ID, t.Subject),
		}},
	}, nil
}

func missingCreateFields(req models.CreateTicketRequest) []string {
	values := map[string]string{
		"subject":      req.Subject,
		"description":  req.Description,
		"customerName": req.CustomerName,
		"category":     req.Category,
		"priority":     req.Priority,
	}
	var missing []string
	for _, field := range RequiredCreateFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

func missingFieldsError(fields []string) error {
	return apperrors.NewValidationFailedError("Missing required fields: " + strings.Join(fields, ", "))
}

func toInterfaces(keys []string) []interface{} {
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
