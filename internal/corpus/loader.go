package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/models"
)

// CSV header names of the historical ticket export.
const (
	colTicketID         = "Ticket ID"
	colIssueCategory    = "Issue Category"
	colSentiment        = "Sentiment"
	colPriority         = "Priority"
	colSolution         = "Solution"
	colResolutionStatus = "Resolution Status"
	colResolutionDate   = "Date of Resolution"
)

// Load reads the historical CSV and the conversation directory under dir. Missing sources
// yield an empty part of the corpus, not an error.
func Load(dir, historicalFile, conversationDir string, log logger.Logger) (*Corpus, error) {
	log = log.With(map[string]interface{}{"component": "corpus"})

	records, err := LoadHistorical(filepath.Join(dir, historicalFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("historical ticket file not found", map[string]interface{}{"path": filepath.Join(dir, historicalFile)})
	case err != nil:
		return nil, err
	}

	conversations, err := LoadConversations(filepath.Join(dir, conversationDir))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("conversation directory not found", map[string]interface{}{"path": filepath.Join(dir, conversationDir)})
	case err != nil:
		return nil, err
	}

	c := New(records, conversations)
	log.Info("corpus loaded", map[string]interface{}{
		"historicalTickets": c.HistoricalCount(),
		"conversations":     c.ConversationCount(),
		"categories":        len(c.Categories()),
	})
	return c, nil
}

// LoadHistorical parses the historical ticket CSV at path.
func LoadHistorical(path string) ([]models.HistoricalTicketRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseHistorical(f)
}

// ParseHistorical reads a header row followed by data rows. Rows with fewer fields than the
// header and rows without a ticket ID are skipped. Absent columns take fixed defaults.
func ParseHistorical(r io.Reader) ([]models.HistoricalTicketRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = trim(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []models.HistoricalTicketRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if isBlank(row) || len(row) < len(header) {
			continue
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			fields[name] = trim(row[i])
		}
		get := func(key, fallback string) string {
			if v, ok := fields[key]; ok {
				return v
			}
			return fallback
		}

		rec := models.HistoricalTicketRecord{
			TicketID:         get(colTicketID, ""),
			IssueCategory:    get(colIssueCategory, "General"),
			Sentiment:        get(colSentiment, "neutral"),
			Priority:         get(colPriority, "medium"),
			Solution:         get(colSolution, "No solution recorded"),
			ResolutionStatus: get(colResolutionStatus, "open"),
			ResolutionDate:   get(colResolutionDate, ""),
		}
		if rec.TicketID == "" || rec.TicketID == "Unknown" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadConversations reads every *.txt file in dir, keyed by file name without extension,
// in file name order.
func LoadConversations(dir string) ([]models.ConversationExample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]models.ConversationExample, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read conversation %s: %w", name, err)
		}
		out = append(out, models.ConversationExample{
			Category: strings.TrimSuffix(name, ".txt"),
			Text:     string(data),
		})
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if trim(v) != "" {
			return false
		}
	}
	return true
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
