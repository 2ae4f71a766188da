package services

import (
	"context"
	"errors"
	"testing"

	"github.com/mentorloop/reviewhub/internal/models"
	"gorm.io/gorm"
)

// reviewFixture: project 1 (coordinator 10, mentor 20, mentee 30) and
// project 2 (coordinator 11, mentor 21, no mentees).
func reviewFixture(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	seedUsers(t, db,
		models.User{ID: 10, Name: "C1", Email: "c1@x.edu", Role: models.RoleCoordinator},
		models.User{ID: 11, Name: "C2", Email: "c2@x.edu", Role: models.RoleCoordinator},
		models.User{ID: 20, Name: "Mentor1", Email: "m1@x.edu", Role: models.RoleMentor},
		models.User{ID: 21, Name: "Mentor2", Email: "m2@x.edu", Role: models.RoleMentor},
		models.User{ID: 30, Name: "Student", Email: "s@x.edu", Role: models.RoleMentee},
	)
	projects := []models.Project{
		{ID: 1, Name: "Alpha", Status: "pending", MentorID: uintPtr(20), MentorEmail: "m1@x.edu", AssignedBy: 10},
		{ID: 2, Name: "Beta", Status: "pending", MentorID: uintPtr(21), MentorEmail: "m2@x.edu", AssignedBy: 11},
	}
	if err := db.Create(&projects).Error; err != nil {
		t.Fatalf("seed projects: %v", err)
	}
	if err := db.Create(&models.ProjectMentee{ProjectID: 1, UserID: 30}).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}
	return db
}

func TestProjectService_ListScopedByRole(t *testing.T) {
	svc := NewProjectService(reviewFixture(t))

	tests := []struct {
		name   string
		viewer Viewer
		want   []string
	}{
		{"hod", Viewer{UserID: 99, Role: models.RoleHOD}, []string{"Beta", "Alpha"}},
		{"coordinator", Viewer{UserID: 11, Role: models.RoleCoordinator}, []string{"Beta"}},
		{"mentor", Viewer{UserID: 20, Role: models.RoleMentor}, []string{"Alpha"}},
		{"mentee", Viewer{UserID: 30, Role: models.RoleMentee}, []string{"Alpha"}},
		{"unknown role", Viewer{UserID: 30, Role: "guest"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.List(context.Background(), &ProjectListRequest{}, tt.viewer)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(resp.Items) != len(tt.want) {
				t.Fatalf("got %d projects, want %v", len(resp.Items), tt.want)
			}
			for i, p := range resp.Items {
				if p.Name != tt.want[i] {
					t.Errorf("item %d = %q, want %q", i, p.Name, tt.want[i])
				}
			}
		})
	}
}

func TestProjectService_GetByIDIncludesMentees(t *testing.T) {
	svc := NewProjectService(reviewFixture(t))
	ctx := context.Background()

	p, err := svc.GetByID(ctx, 1, Viewer{UserID: 10, Role: models.RoleCoordinator})
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(p.MenteeIDs) != 1 || p.MenteeIDs[0] != 30 {
		t.Errorf("MenteeIDs = %v", p.MenteeIDs)
	}

	if _, err := svc.GetByID(ctx, 1, Viewer{UserID: 11, Role: models.RoleCoordinator}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected not found for another coordinator, got %v", err)
	}
}

func TestSubmissionService_SubmitAndReview(t *testing.T) {
	svc := NewSubmissionService(reviewFixture(t))
	ctx := context.Background()

	sub, err := svc.Create(ctx, &CreateSubmissionRequest{ProjectID: 1, Title: "Week 1", Link: "https://git.example.edu/alpha"}, 30)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sub.Status != models.SubmissionPending {
		t.Errorf("new submission status = %q", sub.Status)
	}

	if _, err := svc.Create(ctx, &CreateSubmissionRequest{ProjectID: 2, Title: "Sneaky"}, 30); !errors.Is(err, ErrNotProjectMentee) {
		t.Errorf("expected ErrNotProjectMentee, got %v", err)
	}

	review := &ReviewSubmissionRequest{Score: 88, Feedback: "solid", Status: models.SubmissionReviewed}
	if _, err := svc.Review(ctx, sub.ID, review, 21); !errors.Is(err, ErrNotProjectMentor) {
		t.Errorf("expected ErrNotProjectMentor, got %v", err)
	}

	reviewed, err := svc.Review(ctx, sub.ID, review, 20)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if reviewed.Score == nil || *reviewed.Score != 88 || reviewed.Status != models.SubmissionReviewed {
		t.Errorf("reviewed = %+v", reviewed)
	}

	var stored models.Submission
	svc.db.First(&stored, sub.ID)
	if stored.ReviewedBy == nil || *stored.ReviewedBy != 20 || stored.ReviewedAt == nil {
		t.Errorf("stored review = %+v", stored)
	}
}

func TestSubmissionService_ReviewRejectsBadInput(t *testing.T) {
	svc := NewSubmissionService(reviewFixture(t))

	tests := []struct {
		name string
		req  ReviewSubmissionRequest
	}{
		{"score above range", ReviewSubmissionRequest{Score: 101, Status: models.SubmissionReviewed}},
		{"negative score", ReviewSubmissionRequest{Score: -1, Status: models.SubmissionReviewed}},
		{"bad status", ReviewSubmissionRequest{Score: 50, Status: models.SubmissionPending}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Review(context.Background(), 1, &tt.req, 20); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSubmissionService_ListScoping(t *testing.T) {
	svc := NewSubmissionService(reviewFixture(t))
	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateSubmissionRequest{ProjectID: 1, Title: "Week 1"}, 30); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		viewer Viewer
		want   int64
	}{
		{Viewer{UserID: 20, Role: models.RoleMentor}, 1},
		{Viewer{UserID: 21, Role: models.RoleMentor}, 0},
		{Viewer{UserID: 30, Role: models.RoleMentee}, 1},
		{Viewer{UserID: 10, Role: models.RoleCoordinator}, 1},
		{Viewer{UserID: 11, Role: models.RoleCoordinator}, 0},
	}
	for _, tt := range tests {
		resp, err := svc.List(ctx, &SubmissionListRequest{}, tt.viewer)
		if err != nil {
			t.Fatalf("List(%+v) error = %v", tt.viewer, err)
		}
		if resp.Total != tt.want {
			t.Errorf("List(%+v) total = %d, want %d", tt.viewer, resp.Total, tt.want)
		}
	}
}

func TestAssignmentService_ListIncludesMentees(t *testing.T) {
	db := newTestDB(t)
	a := models.Assignment{ProjectID: 1, ProjectName: "Alpha", MentorID: uintPtr(20), CreatedBy: 10, Status: "pending",
		Mentees: []models.AssignmentMentee{{MenteeEmail: "s@x.edu", MenteeName: "Student", MenteeID: uintPtr(30)}}}
	if err := db.Create(&a).Error; err != nil {
		t.Fatal(err)
	}
	svc := NewAssignmentService(db)
	ctx := context.Background()

	resp, err := svc.List(ctx, &AssignmentListRequest{}, Viewer{UserID: 30, Role: models.RoleMentee})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 1 || len(resp.Items[0].Mentees) != 1 {
		t.Fatalf("resp = %+v", resp)
	}

	if _, err := svc.GetByID(ctx, a.ID, Viewer{UserID: 21, Role: models.RoleMentor}); err == nil {
		t.Error("another mentor should not see the assignment")
	}
}

func TestUserService_CreateAndList(t *testing.T) {
	svc := NewUserService(newTestDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, &CreateUserRequest{Name: " Ann ", Email: "Ann@Uni.EDU", Role: models.RoleMentor})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.Email != "ann@uni.edu" || u.Name != "Ann" {
		t.Errorf("user = %+v", u)
	}
	if _, err := svc.Create(ctx, &CreateUserRequest{Name: "Dup", Email: "ann@uni.edu", Role: models.RoleMentee}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Create(ctx, &CreateUserRequest{Name: "X", Email: "x@uni.edu", Role: "admin"}); err == nil {
		t.Error("unknown role should be rejected")
	}

	resp, err := svc.List(ctx, &UserListRequest{Role: models.RoleMentor})
	if err != nil || resp.Total != 1 {
		t.Errorf("List() = %+v, %v", resp, err)
	}
}
