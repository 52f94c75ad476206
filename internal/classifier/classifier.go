// Package classifier maps free complaint text to a category and priority.
// The default implementation is a deterministic keyword table; callers treat
// it as a pluggable policy and may swap it without touching the engine.
package classifier

import (
	"strings"

	"blockfix/backend/internal/models"
)

// Classifier decides the category for free text and the priority for a
// category. Implementations must be stateless and deterministic.
type Classifier interface {
	Categorize(title, description string) models.Category
	Priority(description string, category models.Category) models.Priority
}

// categoryKeywords is ordered: the first category whose keyword matches wins.
// Map iteration would make classification nondeterministic.
var categoryKeywords = []struct {
	category models.Category
	keywords []string
}{
	{models.CategoryMess, []string{"food", "mess", "dining", "meal", "canteen", "cafeteria", "kitchen", "taste", "hygiene food", "menu"}},
	{models.CategoryInfrastructure, []string{"room", "building", "wifi", "electricity", "water", "plumbing", "ac", "fan", "furniture", "repair", "maintenance", "broken", "damaged"}},
	{models.CategoryHarassment, []string{"harassment", "bully", "threat", "abuse", "assault", "misbehavior", "inappropriate", "unsafe", "ragging", "discrimination"}},
	{models.CategoryHygiene, []string{"clean", "dirty", "washroom", "toilet", "bathroom", "sanitation", "garbage", "smell", "pest"}},
	{models.CategorySecurity, []string{"security", "safety", "guard", "entry", "gate", "theft", "lost", "stolen", "unauthorized"}},
	{models.CategoryAcademic, []string{"class", "professor", "teacher", "exam", "assignment", "grade", "course", "lab", "library", "books"}},
}

var urgentKeywords = []string{"urgent", "emergency", "immediate", "critical", "severe", "danger", "serious"}

// Keyword is the default keyword-table classifier.
type Keyword struct{}

// NewKeyword creates the default classifier.
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Categorize scans title+description for the first matching keyword and
// returns its category, or "other" when nothing matches.
func (k *Keyword) Categorize(title, description string) models.Category {
	text := strings.ToLower(title + " " + description)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(text, keyword) {
				return entry.category
			}
		}
	}
	return models.CategoryOther
}

// Priority derives the priority for a categorized complaint. Harassment is
// unconditionally urgent; any category escalates to urgent on an urgency
// keyword; security and hygiene default to high, infrastructure and mess to
// medium, everything else to low.
func (k *Keyword) Priority(description string, category models.Category) models.Priority {
	if category == models.CategoryHarassment {
		return models.PriorityUrgent
	}

	text := strings.ToLower(description)
	for _, keyword := range urgentKeywords {
		if strings.Contains(text, keyword) {
			return models.PriorityUrgent
		}
	}

	switch category {
	case models.CategorySecurity, models.CategoryHygiene:
		return models.PriorityHigh
	case models.CategoryInfrastructure, models.CategoryMess:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
