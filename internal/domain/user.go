/**
 * @description
 * This file defines the core domain models for the slack-health-bot.
 * These structs represent the main entities used throughout the service's
 * business logic, database interactions, and API layers.
 *
 * @notes
 * - Answer values are stored as `int` because every questionnaire control
 *   (button or select) resolves to a small integer value; this keeps the
 *   answers map directly usable by a future scoring pipeline.
 */

package domain

import "time"

// QuestionnaireComplete is the sentinel value stored in CurrentQuestion once a
// user has answered the final question. It is never a valid catalog index.
const QuestionnaireComplete = -1

// UserRecord tracks one Slack user's progress through the questionnaire.
// This struct maps directly to the `survey_users` table in the database.
type UserRecord struct {
	UserID          string         `json:"user_id"`
	FullName        string         `json:"full_name"`
	NeedsName       bool           `json:"needs_name"`
	CurrentQuestion int            `json:"current_question"`
	Answers         map[string]int `json:"answers"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewUserRecord returns the record created on first contact with an unseen
// user: no name yet, positioned at the first question, no answers.
func NewUserRecord(userID string) *UserRecord {
	return &UserRecord{
		UserID:          userID,
		NeedsName:       true,
		CurrentQuestion: 0,
		Answers:         make(map[string]int),
	}
}

// Completed reports whether the user has finished the questionnaire.
func (u *UserRecord) Completed() bool {
	return u.CurrentQuestion == QuestionnaireComplete
}
