/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL queries used to persist user progress
 * and to load the questionnaire catalog.
 *
 * @dependencies
 * - context, encoding/json, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 *
 * @notes
 * - `survey_users.answers` is a jsonb object keyed by question key, so
 *   re-answering a question overwrites the prior value in a single statement.
 * - `survey_questions` is optional seed data; when the table is empty the
 *   service falls back to the compiled-in catalog.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmickey/slack-health-bot/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByID retrieves a user's survey record by their Slack user id.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID string) (*domain.UserRecord, error) {
	var (
		record     domain.UserRecord
		rawAnswers []byte
	)
	query := `
		SELECT user_id, COALESCE(full_name, ''), needs_name, current_question, answers, created_at, updated_at
		FROM survey_users
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&record.UserID,
		&record.FullName,
		&record.NeedsName,
		&record.CurrentQuestion,
		&rawAnswers,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	record.Answers = make(map[string]int)
	if len(rawAnswers) > 0 {
		if err := json.Unmarshal(rawAnswers, &record.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for user %s: %w", userID, err)
		}
	}

	return &record, nil
}

// CreateUser inserts a new survey record. The answers map is stored as jsonb.
func (r *PostgresRepository) CreateUser(ctx context.Context, record *domain.UserRecord) error {
	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	query := `
		INSERT INTO survey_users (user_id, full_name, needs_name, current_question, answers, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query,
		record.UserID,
		record.FullName,
		record.NeedsName,
		record.CurrentQuestion,
		answers,
	)
	return err
}

// UpdateUserName sets the user's full name and clears the needs_name flag.
func (r *PostgresRepository) UpdateUserName(ctx context.Context, userID string, fullName string) error {
	query := `
		UPDATE survey_users
		SET full_name = $2, needs_name = FALSE, updated_at = NOW()
		WHERE user_id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, fullName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SaveAnswer merges one answer into the user's jsonb answers map, overwriting
// any prior value stored under the same question key.
func (r *PostgresRepository) SaveAnswer(ctx context.Context, userID string, questionKey string, value int) error {
	query := `
		UPDATE survey_users
		SET answers = answers || jsonb_build_object($2::text, $3::int), updated_at = NOW()
		WHERE user_id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, questionKey, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateCurrentQuestion moves the user's position pointer. Position -1 marks
// the questionnaire as complete.
func (r *PostgresRepository) UpdateCurrentQuestion(ctx context.Context, userID string, position int) error {
	query := `
		UPDATE survey_users
		SET current_question = $2, updated_at = NOW()
		WHERE user_id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, position)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetQuestion retrieves a single catalog entry by position.
func (r *PostgresRepository) GetQuestion(ctx context.Context, position int) (*domain.Question, error) {
	var (
		question       domain.Question
		rawAttachments []byte
	)
	query := `
		SELECT position, question_key, text, answer_kind, attachments
		FROM survey_questions
		WHERE position = $1
	`
	err := r.db.QueryRow(ctx, query, position).Scan(
		&question.Position,
		&question.Key,
		&question.Text,
		&question.Kind,
		&rawAttachments,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(rawAttachments, &question.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments for question %d: %w", position, err)
	}

	return &question, nil
}

// ListQuestions returns the full catalog ordered by position. An empty table
// yields an empty slice, not an error.
func (r *PostgresRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	query := `
		SELECT position, question_key, text, answer_kind, attachments
		FROM survey_questions
		ORDER BY position ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			question       domain.Question
			rawAttachments []byte
		)
		if err := rows.Scan(
			&question.Position,
			&question.Key,
			&question.Text,
			&question.Kind,
			&rawAttachments,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawAttachments, &question.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments for question %d: %w", question.Position, err)
		}
		questions = append(questions, question)
	}

	return questions, rows.Err()
}
