package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/internal/importer"
	"github.com/mentorloop/reviewhub/internal/models"
)

const testCoordinator uint = 50

func importFixture(t *testing.T) *ImportService {
	t.Helper()
	db := newTestDB(t)
	seedUsers(t, db,
		models.User{ID: 1, Name: "Ann Mentor", Email: "a@x.edu", Role: models.RoleMentor},
		models.User{ID: 2, Name: "M1", Email: "m1@x.edu", Role: models.RoleMentee},
		models.User{ID: 3, Name: "M2", Email: "m2@x.edu", Role: models.RoleMentee},
		models.User{ID: testCoordinator, Name: "Coord", Email: "c@x.edu", Role: models.RoleCoordinator},
	)
	return NewImportService(db, config.DefaultConfig().Import, nil, NewImportEventHub())
}

func testUpload(lines ...string) importer.Upload {
	return importer.Upload{
		Name:        "batch.csv",
		ContentType: "text/csv",
		Data:        []byte(strings.Join(lines, "\n") + "\n"),
	}
}

const testHeader = "Project Name,Mentor Name,Mentor Email,Mentee Name,Mentee Email"

func TestImportService_Import(t *testing.T) {
	svc := importFixture(t)
	ctx := context.Background()

	entry, report, err := svc.Import(ctx, testUpload(testHeader,
		"Alpha,A,a@x.edu,M1,m1@x.edu",
		"Alpha,A,a@x.edu,M2,m2@x.edu",
	), testCoordinator)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if report.Success != 2 || report.Failed != 0 {
		t.Errorf("success=%d failed=%d", report.Success, report.Failed)
	}

	var stored models.ImportLog
	if err := svc.db.First(&stored, entry.ID).Error; err != nil {
		t.Fatalf("load import log: %v", err)
	}
	if stored.Status != models.ImportCompleted || stored.Success != 2 || stored.CreatedProjects != 1 {
		t.Errorf("import log = %+v", stored)
	}
	if stored.FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}
	var decoded importer.Report
	if err := json.Unmarshal([]byte(stored.Report), &decoded); err != nil {
		t.Fatalf("stored report is not JSON: %v", err)
	}
	if decoded.Success != 2 {
		t.Errorf("stored report success = %d", decoded.Success)
	}

	var project models.Project
	if err := svc.db.Where("name = ?", "Alpha").First(&project).Error; err != nil {
		t.Fatalf("project not created: %v", err)
	}
	if project.AssignedBy != testCoordinator {
		t.Errorf("AssignedBy = %d", project.AssignedBy)
	}
	var links int64
	svc.db.Model(&models.ProjectMentee{}).Where("project_id = ?", project.ID).Count(&links)
	if links != 2 {
		t.Errorf("project mentee links = %d, want 2", links)
	}

	var audits int64
	svc.db.Model(&models.SystemLog{}).Where("module = ?", "Imports").Count(&audits)
	if audits != 1 {
		t.Errorf("audit rows = %d, want 1", audits)
	}
}

func TestImportService_ImportTwiceIsIdempotent(t *testing.T) {
	svc := importFixture(t)
	ctx := context.Background()
	up := testUpload(testHeader, "Alpha,A,a@x.edu,M1,m1@x.edu")

	if _, _, err := svc.Import(ctx, up, testCoordinator); err != nil {
		t.Fatalf("first import: %v", err)
	}
	_, report, err := svc.Import(ctx, up, testCoordinator)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(report.CreatedProjects) != 0 || len(report.UpdatedProjects) != 1 {
		t.Errorf("second run created=%d updated=%d", len(report.CreatedProjects), len(report.UpdatedProjects))
	}

	for _, m := range []interface{}{&models.Project{}, &models.ProjectMentee{}, &models.Assignment{}, &models.AssignmentMentee{}} {
		var n int64
		svc.db.Model(m).Count(&n)
		if n != 1 {
			t.Errorf("%T rows = %d, want 1", m, n)
		}
	}
}

func TestImportService_NonASCIIProjectNames(t *testing.T) {
	svc := importFixture(t)
	ctx := context.Background()

	_, report, err := svc.Import(ctx, testUpload(testHeader,
		"Éclair,A,a@x.edu,M1,m1@x.edu",
		"ÉCLAIR,A,a@x.edu,M2,m2@x.edu",
	), testCoordinator)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if len(report.CreatedProjects) != 1 || len(report.UpdatedProjects) != 0 {
		t.Errorf("created=%d updated=%d, want one project", len(report.CreatedProjects), len(report.UpdatedProjects))
	}
	if len(report.Warnings) != 1 {
		t.Errorf("warnings = %q, want one duplicate warning", report.Warnings)
	}

	_, report, err = svc.Import(ctx, testUpload(testHeader, "éclair,A,a@x.edu,M1,m1@x.edu"), testCoordinator)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(report.CreatedProjects) != 0 || len(report.UpdatedProjects) != 1 {
		t.Errorf("re-import created=%d updated=%d", len(report.CreatedProjects), len(report.UpdatedProjects))
	}

	var projects []models.Project
	svc.db.Find(&projects)
	if len(projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(projects))
	}
	if projects[0].Name != "Éclair" || projects[0].NameKey != models.ProjectNameKey("ÉCLAIR") {
		t.Errorf("project name=%q key=%q", projects[0].Name, projects[0].NameKey)
	}
	var links int64
	svc.db.Model(&models.ProjectMentee{}).Where("project_id = ?", projects[0].ID).Count(&links)
	if links != 2 {
		t.Errorf("project mentee links = %d, want 2", links)
	}
}

func TestImportService_UnknownMentorKeepsAssignmentSnapshot(t *testing.T) {
	svc := importFixture(t)
	ctx := context.Background()

	if _, _, err := svc.Import(ctx, testUpload(testHeader, "Alpha,Ann Mentor,a@x.edu,M1,m1@x.edu"), testCoordinator); err != nil {
		t.Fatalf("first import: %v", err)
	}
	_, report, err := svc.Import(ctx, testUpload(testHeader, "Alpha,Bob,bob@x.edu,M1,m1@x.edu"), testCoordinator)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}

	var project models.Project
	svc.db.Where("name = ?", "Alpha").First(&project)
	if project.MentorID == nil || *project.MentorID != 1 || project.MentorEmail != "a@x.edu" {
		t.Fatalf("project mentor changed: id=%v email=%q", project.MentorID, project.MentorEmail)
	}

	var a models.Assignment
	svc.db.Where("project_id = ?", project.ID).First(&a)
	if a.MentorID == nil || *a.MentorID != 1 || a.MentorName != "Ann Mentor" || a.MentorEmail != "a@x.edu" {
		t.Errorf("assignment snapshot = id=%v name=%q email=%q", a.MentorID, a.MentorName, a.MentorEmail)
	}

	if len(report.AssignedMentors) != 1 {
		t.Fatalf("assigned mentors = %+v", report.AssignedMentors)
	}
	got := report.AssignedMentors[0]
	if got.MentorID == nil || *got.MentorID != 1 || got.MentorEmail != "a@x.edu" || got.MentorName != "Ann Mentor" {
		t.Errorf("reported mentor = %+v, want the project's mentor", got)
	}
}

func TestImportService_BlockingErrorIsRecorded(t *testing.T) {
	svc := importFixture(t)

	entry, _, err := svc.Import(context.Background(), testUpload(
		"Project Name,Mentor Name,Mentee Name,Mentee Email",
		"Alpha,A,M1,m1@x.edu",
	), testCoordinator)

	var missing *importer.MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}

	var stored models.ImportLog
	svc.db.First(&stored, entry.ID)
	if stored.Status != models.ImportFailed || !strings.Contains(stored.ErrorMessage, "Mentor Email") {
		t.Errorf("import log = %+v", stored)
	}

	var projects int64
	svc.db.Model(&models.Project{}).Count(&projects)
	if projects != 0 {
		t.Errorf("no project should be written, got %d", projects)
	}
}

func TestImportService_EnqueueRunsInBackground(t *testing.T) {
	svc := importFixture(t)
	queue := NewSyncQueue()
	queue.SetProcessor(svc.ProcessTask)
	svc.queue = queue

	events := svc.hub.Subscribe("test")
	defer svc.hub.Unsubscribe("test")

	entry, err := svc.Enqueue(context.Background(), testUpload(testHeader, "Beta,A,a@x.edu,M1,m1@x.edu"), testCoordinator)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if entry.Status != models.ImportQueued {
		t.Errorf("initial status = %q", entry.Status)
	}
	queue.Close()

	var stored models.ImportLog
	svc.db.First(&stored, entry.ID)
	if stored.Status != models.ImportCompleted || stored.Success != 1 {
		t.Errorf("import log after processing = %+v", stored)
	}

	var statuses []string
	timeout := time.After(time.Second)
	for len(statuses) < 3 {
		select {
		case ev := <-events:
			if ev.ImportID != entry.ID {
				t.Errorf("event for import %d", ev.ImportID)
			}
			statuses = append(statuses, ev.Status)
		case <-timeout:
			t.Fatalf("got events %v, want queued, running, completed", statuses)
		}
	}
	want := []string{models.ImportQueued, models.ImportRunning, models.ImportCompleted}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("event %d status = %q, want %q", i, statuses[i], want[i])
		}
	}
}

func TestImportService_ProcessTaskSkipsFinished(t *testing.T) {
	svc := importFixture(t)
	entry, _, _ := svc.Import(context.Background(), testUpload(testHeader, "Alpha,A,a@x.edu,M1,m1@x.edu"), testCoordinator)

	err := svc.ProcessTask(context.Background(), &ImportTask{
		ImportLogID:   entry.ID,
		CoordinatorID: testCoordinator,
		FileName:      "batch.csv",
		Data:          []byte("garbage"),
	})
	if err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}

	var stored models.ImportLog
	svc.db.First(&stored, entry.ID)
	if stored.Status != models.ImportCompleted {
		t.Errorf("finished import was reprocessed: %+v", stored)
	}
}

func TestImportService_EnqueueWithoutQueue(t *testing.T) {
	svc := importFixture(t)
	if _, err := svc.Enqueue(context.Background(), testUpload(testHeader), testCoordinator); !errors.Is(err, ErrQueueUnavailable) {
		t.Errorf("expected ErrQueueUnavailable, got %v", err)
	}
}

func TestImportService_ListScoping(t *testing.T) {
	svc := importFixture(t)
	ctx := context.Background()
	up := testUpload(testHeader, "Alpha,A,a@x.edu,M1,m1@x.edu")

	mine, _, _ := svc.Import(ctx, up, testCoordinator)
	theirs, _, _ := svc.Import(ctx, up, testCoordinator+1)

	tests := []struct {
		name   string
		viewer Viewer
		want   int64
	}{
		{"coordinator sees own", Viewer{UserID: testCoordinator, Role: models.RoleCoordinator}, 1},
		{"hod sees all", Viewer{UserID: 99, Role: models.RoleHOD}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.List(ctx, &ImportListRequest{}, tt.viewer)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if resp.Total != tt.want {
				t.Errorf("Total = %d, want %d", resp.Total, tt.want)
			}
		})
	}

	viewer := Viewer{UserID: testCoordinator, Role: models.RoleCoordinator}
	if _, err := svc.GetByID(ctx, mine.ID, viewer); err != nil {
		t.Errorf("own import: %v", err)
	}
	if _, err := svc.GetByID(ctx, theirs.ID, viewer); err == nil {
		t.Error("another coordinator's import should not be visible")
	}
}

func TestImportService_Preview(t *testing.T) {
	svc := importFixture(t)
	p, err := svc.Preview(context.Background(), testUpload(testHeader,
		"Alpha,A,a@x.edu,M1,m1@x.edu",
		",A,a@x.edu,M1,m1@x.edu",
	))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(p.Rows) != 1 || len(p.Errors) != 1 {
		t.Errorf("rows=%d errors=%v", len(p.Rows), p.Errors)
	}
	var projects int64
	svc.db.Model(&models.Project{}).Count(&projects)
	if projects != 0 {
		t.Error("preview must not write")
	}
}
