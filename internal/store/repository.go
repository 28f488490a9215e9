/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for all data access operations required by the slack-health-bot. By
 * defining an interface, we decouple the questionnaire logic from the
 * specific database implementation (e.g., PostgreSQL), making the code more
 * modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/jmickey/slack-health-bot/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
// Each call is atomic on its own; the service never relies on cross-call
// transactions.
type Repository interface {
	// User progress methods
	FindUserByID(ctx context.Context, userID string) (*domain.UserRecord, error)
	CreateUser(ctx context.Context, record *domain.UserRecord) error
	// UpdateUserName sets the user's full name and clears the needs_name flag.
	UpdateUserName(ctx context.Context, userID string, fullName string) error
	// SaveAnswer writes one answer under its question key, overwriting any
	// prior value for the same key.
	SaveAnswer(ctx context.Context, userID string, questionKey string, value int) error
	UpdateCurrentQuestion(ctx context.Context, userID string, position int) error

	// Question catalog methods
	GetQuestion(ctx context.Context, position int) (*domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
}
