package importer

import (
	"context"

	"github.com/mentorloop/reviewhub/internal/models"
)

// Store is the identity and row store the reconciler reads and writes.
// Each call is expected to be atomic on its own; no transaction spans calls.
type Store interface {
	// FindUserByEmail returns nil, nil when no user has the email.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// FindProject matches name case-insensitively within one coordinator's
	// projects and returns nil, nil when there is none. MenteeIDs is populated.
	FindProject(ctx context.Context, name string, coordinatorID uint) (*models.Project, error)
	// CreateProject inserts p and links p.MenteeIDs.
	CreateProject(ctx context.Context, p *models.Project) error
	// UpdateProject saves the mentor fields of p and links any new p.MenteeIDs.
	UpdateProject(ctx context.Context, p *models.Project) error
	// UpsertAssignment inserts or updates the assignment for a.ProjectID and sets a.ID.
	// An empty a.MentorName keeps the stored name and copies it into a.
	UpsertAssignment(ctx context.Context, a *models.Assignment) error
	// UpsertAssignmentMentee inserts or updates the row for (AssignmentID, MenteeEmail).
	UpsertAssignmentMentee(ctx context.Context, m *models.AssignmentMentee) error
}
