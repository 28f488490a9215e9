/**
 * @description
 * This file implements the questionnaire catalog: the immutable, ordered list
 * of questions the bot walks each user through. The catalog is assembled once
 * at startup, either from the `survey_questions` table or from the
 * compiled-in default questionnaire, and is read-only afterwards.
 *
 * @dependencies
 * - context, fmt, strconv: Standard Go libraries.
 * - internal/domain, internal/store: For question models and catalog rows.
 */

package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmickey/slack-health-bot/internal/domain"
	"github.com/jmickey/slack-health-bot/internal/store"
)

// Catalog holds the ordered question list plus a key→position index used to
// resolve interactive callback ids.
type Catalog struct {
	questions []domain.Question
	byKey     map[string]int
}

// NewCatalog builds a catalog from an ordered question list. Positions must
// be 0-based and contiguous and keys must be unique.
func NewCatalog(questions []domain.Question) (*Catalog, error) {
	byKey := make(map[string]int, len(questions))
	for i, q := range questions {
		if q.Position != i {
			return nil, fmt.Errorf("catalog question %q has position %d, want %d", q.Key, q.Position, i)
		}
		if _, dup := byKey[q.Key]; dup {
			return nil, fmt.Errorf("catalog question key %q appears twice", q.Key)
		}
		byKey[q.Key] = i
	}
	return &Catalog{questions: questions, byKey: byKey}, nil
}

// LoadCatalog reads the catalog rows from the store, falling back to the
// compiled-in default questionnaire when the table is empty.
func LoadCatalog(ctx context.Context, repo store.Repository) (*Catalog, error) {
	questions, err := repo.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		questions = DefaultQuestions()
	}
	return NewCatalog(questions)
}

// QuestionAt returns the question at the given position.
func (c *Catalog) QuestionAt(position int) (*domain.Question, error) {
	if position < 0 || position >= len(c.questions) {
		return nil, store.ErrQuestionNotFound
	}
	return &c.questions[position], nil
}

// IndexOf resolves a question key to its catalog position.
func (c *Catalog) IndexOf(key string) (int, bool) {
	position, ok := c.byKey[key]
	return position, ok
}

// Count returns the number of questions in the catalog.
func (c *Catalog) Count() int {
	return len(c.questions)
}

// IsLastIndex reports whether the given position is the final question.
func (c *Catalog) IsLastIndex(position int) bool {
	return position == len(c.questions)-1
}

// DefaultQuestions returns the built-in Dr Gut questionnaire used when no
// catalog rows exist in the database.
func DefaultQuestions() []domain.Question {
	specs := []struct {
		key     string
		text    string
		kind    domain.AnswerKind
		options []domain.ActionOption
	}{
		{
			key:  "bowel_movements_normal",
			text: "Are your bowel movements generally normal?",
			kind: domain.AnswerKindButton,
		},
		{
			key:  "bowel_frequency",
			text: "How often do you have a bowel movement?",
			kind: domain.AnswerKindSelect,
			options: []domain.ActionOption{
				{Text: "More than once a day", Value: "3"},
				{Text: "Once a day", Value: "2"},
				{Text: "Every other day", Value: "1"},
				{Text: "Less often than that", Value: "0"},
			},
		},
		{
			key:  "bloating_after_meals",
			text: "Do you experience bloating after meals?",
			kind: domain.AnswerKindButton,
		},
		{
			key:  "abdominal_pain",
			text: "Do you have recurring abdominal pain or cramps?",
			kind: domain.AnswerKindButton,
		},
		{
			key:  "fibre_servings",
			text: "How many servings of fibre-rich food do you eat per day?",
			kind: domain.AnswerKindSelect,
			options: []domain.ActionOption{
				{Text: "Three or more", Value: "3"},
				{Text: "Two", Value: "2"},
				{Text: "One", Value: "1"},
				{Text: "None", Value: "0"},
			},
		},
		{
			key:  "water_intake",
			text: "How many glasses of water do you drink per day?",
			kind: domain.AnswerKindSelect,
			options: []domain.ActionOption{
				{Text: "Six or more", Value: "3"},
				{Text: "Four to five", Value: "2"},
				{Text: "Two to three", Value: "1"},
				{Text: "One or fewer", Value: "0"},
			},
		},
		{
			key:  "recent_antibiotics",
			text: "Have you taken antibiotics in the last six months?",
			kind: domain.AnswerKindButton,
		},
		{
			key:  "stress_levels",
			text: "How would you rate your day-to-day stress?",
			kind: domain.AnswerKindSelect,
			options: []domain.ActionOption{
				{Text: "Low", Value: "0"},
				{Text: "Moderate", Value: "1"},
				{Text: "High", Value: "2"},
				{Text: "Very high", Value: "3"},
			},
		},
	}

	questions := make([]domain.Question, 0, len(specs))
	for i, s := range specs {
		q := domain.Question{
			Position: i,
			Key:      s.key,
			Text:     s.text,
			Kind:     s.kind,
		}
		q.Attachments = buildQuestionAttachments(q, s.options)
		questions = append(questions, q)
	}
	return questions
}

// buildQuestionAttachments renders a question as a Slack interactive
// attachment. Button questions get Yes/No buttons; select questions get a
// single menu with the provided options.
func buildQuestionAttachments(q domain.Question, options []domain.ActionOption) []domain.Attachment {
	attachment := domain.Attachment{
		Text:       q.Text,
		Fallback:   q.Text,
		CallbackID: q.Key,
		Color:      "#3AA3E3",
	}

	switch q.Kind {
	case domain.AnswerKindButton:
		attachment.Actions = []domain.ActionItem{
			{Name: q.Key, Text: "Yes", Type: "button", Value: "1"},
			{Name: q.Key, Text: "No", Type: "button", Value: "0"},
		}
	case domain.AnswerKindSelect:
		attachment.Actions = []domain.ActionItem{
			{Name: q.Key, Text: "Choose an option...", Type: "select", Options: options},
		}
	}

	return []domain.Attachment{attachment}
}

// questionNumberPrefix renders the "Question N of M" lead-in used when a
// question is posted or an answered card is replaced.
func (c *Catalog) questionNumberPrefix(position int) string {
	return "Question " + strconv.Itoa(position+1) + " of " + strconv.Itoa(len(c.questions))
}
