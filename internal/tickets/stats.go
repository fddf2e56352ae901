// internal/tickets/stats.go
package tickets

import (
	"context"
	"fmt"
	"time"

	"ticket-triage/internal/models"
)

func (s *Service) Stats(ctx context.Context) (*models.TicketStats, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeStats(all), nil
}

// ComputeStats counts tickets by status, category and priority. Distributions keep first-seen order.
func ComputeStats(all []models.Ticket) *models.TicketStats {
	stats := &models.TicketStats{
		Total:                len(all),
		CategoryDistribution: []models.CategoryCount{},
		PriorityDistribution: []models.PriorityCount{},
	}

	categoryIdx := map[string]int{}
	priorityIdx := map[string]int{}
	var resolvedTotal time.Duration
	var resolvedTimed int

	for _, t := range all {
		switch t.Status {
		case models.StatusOpen:
			stats.Open++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusResolved:
			stats.Resolved++
			if d, ok := resolutionTime(t); ok {
				resolvedTotal += d
				resolvedTimed++
			}
		}

		category := orDefault(t.Category, CategoryGeneral)
		if i, ok := categoryIdx[category]; ok {
			stats.CategoryDistribution[i].Count++
		} else {
			categoryIdx[category] = len(stats.CategoryDistribution)
			stats.CategoryDistribution = append(stats.CategoryDistribution, models.CategoryCount{Category: category, Count: 1})
		}

		priority := orDefault(t.Priority, models.PriorityMedium)
		if i, ok := priorityIdx[priority]; ok {
			stats.PriorityDistribution[i].Count++
		} else {
			priorityIdx[priority] = len(stats.PriorityDistribution)
			stats.PriorityDistribution = append(stats.PriorityDistribution, models.PriorityCount{Priority: priority, Count: 1})
		}
	}

	var avg time.Duration
	if resolvedTimed > 0 {
		avg = resolvedTotal / time.Duration(resolvedTimed)
	}
	stats.AverageResolutionTime = formatDuration(avg)
	return stats
}

// resolutionTime is only known for tickets carrying both RFC 3339 timestamps.
func resolutionTime(t models.Ticket) (time.Duration, bool) {
	created, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return 0, false
	}
	updated, err := time.Parse(time.RFC3339, t.UpdatedAt)
	if err != nil || updated.Before(created) {
		return 0, false
	}
	return updated.Sub(created), true
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0h"
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours >= 24 {
		return fmt.Sprintf("%dd %dh", hours/24, hours%24)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
