package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/rs/zerolog"
)

// RowStage is the position of one row in the reconcile state machine.
type RowStage string

const (
	StagePending     RowStage = "pending"
	StageResolving   RowStage = "resolving"
	StageProject     RowStage = "writing project"
	StageAssignment  RowStage = "writing assignment"
	StageMenteeLinks RowStage = "writing mentee links"
	StageSucceeded   RowStage = "succeeded"
	StageFailed      RowStage = "failed"
)

// RowOutcome is the terminal state of one reconciled row.
type RowOutcome struct {
	Row            NormalizedRow
	Stage          RowStage
	Err            *ReconciliationError
	Project        *models.Project
	ProjectCreated bool
	Mentor         *models.User
	Mentee         *models.User
	// Assignment is the snapshot written for the row; its mentor fields
	// describe the mentor the project actually carries.
	Assignment *models.Assignment
}

// Succeeded reports whether the row reached the terminal success state.
func (o RowOutcome) Succeeded() bool { return o.Stage == StageSucceeded }

// Reconciler writes validated rows into the store for one coordinator.
type Reconciler struct {
	store         Store
	coordinatorID uint
	requireMentee bool
	log           zerolog.Logger
}

func NewReconciler(store Store, coordinatorID uint, requireMentee bool, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:         store,
		coordinatorID: coordinatorID,
		requireMentee: requireMentee,
		log:           log,
	}
}

// Reconcile processes rows strictly in order; later rows may depend on
// projects created by earlier ones. A failed row never stops the batch.
func (r *Reconciler) Reconcile(ctx context.Context, rows []NormalizedRow) []RowOutcome {
	outcomes := make([]RowOutcome, 0, len(rows))
	for _, row := range rows {
		out := r.ReconcileRow(ctx, row)
		if out.Err != nil {
			r.log.Warn().
				Int("row", row.RowNumber).
				Str("stage", string(out.Err.Stage)).
				Err(out.Err.Err).
				Msg("row failed")
		} else {
			r.log.Debug().
				Int("row", row.RowNumber).
				Uint("project_id", out.Project.ID).
				Bool("created", out.ProjectCreated).
				Msg("row reconciled")
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (r *Reconciler) ReconcileRow(ctx context.Context, row NormalizedRow) (out RowOutcome) {
	out = RowOutcome{Row: row, Stage: StagePending}

	fail := func(err error) RowOutcome {
		out.Err = &ReconciliationError{Row: row.RowNumber, Stage: out.Stage, Err: err}
		out.Stage = StageFailed
		return out
	}

	out.Stage = StageResolving
	project, err := r.store.FindProject(ctx, row.ProjectName, r.coordinatorID)
	if err != nil {
		return fail(fmt.Errorf("failed to look up project %q: %w", row.ProjectName, err))
	}
	mentor, err := r.store.FindUserByEmail(ctx, row.MentorEmail)
	if err != nil {
		return fail(fmt.Errorf("failed to look up mentor %s: %w", row.MentorEmail, err))
	}
	mentee, err := r.store.FindUserByEmail(ctx, row.MenteeEmail)
	if err != nil {
		return fail(fmt.Errorf("failed to look up mentee %s: %w", row.MenteeEmail, err))
	}
	if mentee == nil && r.requireMentee {
		return fail(&MenteeNotRegisteredError{Email: row.MenteeEmail})
	}
	out.Mentor, out.Mentee = mentor, mentee

	out.Stage = StageProject
	if project == nil {
		project = &models.Project{
			Name:        row.ProjectName,
			Details:     row.ProjectDetails,
			Status:      row.ProjectStatus,
			MentorEmail: row.MentorEmail,
			AssignedBy:  r.coordinatorID,
		}
		if mentor != nil {
			project.MentorID = &mentor.ID
		}
		if mentee != nil {
			project.MenteeIDs = []uint{mentee.ID}
		}
		if err := r.store.CreateProject(ctx, project); err != nil {
			return fail(fmt.Errorf("failed to create project %q: %w", row.ProjectName, err))
		}
		out.ProjectCreated = true
	} else {
		if mentor != nil {
			project.MentorID = &mentor.ID
			project.MentorEmail = row.MentorEmail
		}
		if mentee != nil {
			project.MenteeIDs = unionID(project.MenteeIDs, mentee.ID)
		}
		if err := r.store.UpdateProject(ctx, project); err != nil {
			return fail(fmt.Errorf("failed to update project %q: %w", project.Name, err))
		}
	}
	out.Project = project

	out.Stage = StageAssignment
	mentorName, err := r.attachedMentorName(ctx, row, mentor, project)
	if err != nil {
		return fail(err)
	}
	assignment := &models.Assignment{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		MentorID:    project.MentorID,
		MentorName:  mentorName,
		MentorEmail: project.MentorEmail,
		CreatedBy:   r.coordinatorID,
		Status:      row.ProjectStatus,
	}
	if err := r.store.UpsertAssignment(ctx, assignment); err != nil {
		return fail(fmt.Errorf("failed to save assignment for %q: %w", project.Name, err))
	}
	out.Assignment = assignment

	out.Stage = StageMenteeLinks
	link := &models.AssignmentMentee{
		AssignmentID: assignment.ID,
		MenteeName:   row.MenteeName,
		MenteeEmail:  row.MenteeEmail,
	}
	if mentee != nil {
		link.MenteeID = &mentee.ID
	}
	if err := r.store.UpsertAssignmentMentee(ctx, link); err != nil {
		return fail(fmt.Errorf("failed to link mentee %s: %w", row.MenteeEmail, err))
	}

	out.Stage = StageSucceeded
	return out
}

// attachedMentorName names the project's mentor after this row. That is the
// row's mentor unless the row named an unregistered mentor and the project
// already had one, in which case the project keeps its mentor. An empty
// result keeps the name already stored on the assignment.
func (r *Reconciler) attachedMentorName(ctx context.Context, row NormalizedRow, mentor *models.User, project *models.Project) (string, error) {
	if strings.EqualFold(project.MentorEmail, row.MentorEmail) {
		if mentor != nil && mentor.Name != "" {
			return mentor.Name, nil
		}
		return row.MentorName, nil
	}
	if project.MentorEmail == "" {
		return "", nil
	}
	current, err := r.store.FindUserByEmail(ctx, project.MentorEmail)
	if err != nil {
		return "", fmt.Errorf("failed to look up mentor %s: %w", project.MentorEmail, err)
	}
	if current == nil {
		return "", nil
	}
	return current.Name, nil
}

func unionID(ids []uint, id uint) []uint {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
