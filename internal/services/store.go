package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mentorloop/reviewhub/internal/importer"
	"github.com/mentorloop/reviewhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentStore is the gorm implementation of importer.Store.
type AssignmentStore struct {
	db *gorm.DB
}

var _ importer.Store = (*AssignmentStore)(nil)

func NewAssignmentStore(db *gorm.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

func (s *AssignmentStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AssignmentStore) FindProject(ctx context.Context, name string, coordinatorID uint) (*models.Project, error) {
	db := s.db.WithContext(ctx)

	var project models.Project
	err := db.Where("name_key = ? AND assigned_by = ?", models.ProjectNameKey(name), coordinatorID).
		Order("id").
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := loadMenteeIDs(db, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *AssignmentStore) CreateProject(ctx context.Context, p *models.Project) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return linkMentees(tx, p.ID, p.MenteeIDs)
	})
}

func (s *AssignmentStore) UpdateProject(ctx context.Context, p *models.Project) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Project{ID: p.ID}).Updates(map[string]interface{}{
			"mentor_id":    p.MentorID,
			"mentor_email": p.MentorEmail,
		}).Error
		if err != nil {
			return err
		}
		return linkMentees(tx, p.ID, p.MenteeIDs)
	})
}

func (s *AssignmentStore) UpsertAssignment(ctx context.Context, a *models.Assignment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Assignment
		err := tx.Unscoped().Where("project_id = ?", a.ProjectID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(a).Error
		}
		if err != nil {
			return err
		}

		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		updates := map[string]interface{}{
			"project_name": a.ProjectName,
			"mentor_id":    a.MentorID,
			"mentor_email": a.MentorEmail,
			"created_by":   a.CreatedBy,
			"status":       a.Status,
			"deleted_at":   nil,
		}
		if a.MentorName != "" {
			updates["mentor_name"] = a.MentorName
		} else {
			a.MentorName = existing.MentorName
		}
		return tx.Unscoped().Model(&existing).Updates(updates).Error
	})
}

func (s *AssignmentStore) UpsertAssignmentMentee(ctx context.Context, m *models.AssignmentMentee) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AssignmentMentee
		err := tx.Where("assignment_id = ? AND mentee_email = ?", m.AssignmentID, m.MenteeEmail).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(m).Error
		}
		if err != nil {
			return err
		}

		m.ID = existing.ID
		updates := map[string]interface{}{"mentee_name": m.MenteeName}
		// never clear a known mentee id
		if m.MenteeID != nil {
			updates["mentee_id"] = m.MenteeID
		} else {
			m.MenteeID = existing.MenteeID
		}
		return tx.Model(&existing).Updates(updates).Error
	})
}

func loadMenteeIDs(db *gorm.DB, p *models.Project) error {
	return db.Model(&models.ProjectMentee{}).
		Where("project_id = ?", p.ID).
		Order("id").
		Pluck("user_id", &p.MenteeIDs).Error
}

func linkMentees(tx *gorm.DB, projectID uint, menteeIDs []uint) error {
	if len(menteeIDs) == 0 {
		return nil
	}
	links := make([]models.ProjectMentee, 0, len(menteeIDs))
	for _, id := range menteeIDs {
		links = append(links, models.ProjectMentee{ProjectID: projectID, UserID: id})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}
