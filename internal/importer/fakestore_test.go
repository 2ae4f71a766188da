package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/mentorloop/reviewhub/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory Store with hooks for failure injection.
type fakeStore struct {
	nextID      uint
	users       map[string]*models.User
	projects    []*models.Project
	assignments map[uint]*models.Assignment // by project id
	links       []*models.AssignmentMentee

	failLookupEmail  string
	failWriteProject string
	failLinkEmail    string

	createCalls int
	updateCalls int
}

func newFakeStore(users ...models.User) *fakeStore {
	s := &fakeStore{
		users:       make(map[string]*models.User),
		assignments: make(map[uint]*models.Assignment),
	}
	for _, u := range users {
		u := u
		if u.ID == 0 {
			u.ID = s.id()
		}
		s.users[strings.ToLower(u.Email)] = &u
	}
	return s
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	if email == s.failLookupEmail {
		return nil, errStoreDown
	}
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) FindProject(_ context.Context, name string, coordinatorID uint) (*models.Project, error) {
	for _, p := range s.projects {
		if models.ProjectNameKey(p.Name) == models.ProjectNameKey(name) && p.AssignedBy == coordinatorID {
			cp := *p
			cp.MenteeIDs = append([]uint(nil), p.MenteeIDs...)
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateProject(_ context.Context, p *models.Project) error {
	s.createCalls++
	if p.Name == s.failWriteProject {
		return errStoreDown
	}
	p.ID = s.id()
	cp := *p
	cp.MenteeIDs = append([]uint(nil), p.MenteeIDs...)
	s.projects = append(s.projects, &cp)
	return nil
}

func (s *fakeStore) UpdateProject(_ context.Context, p *models.Project) error {
	s.updateCalls++
	if p.Name == s.failWriteProject {
		return errStoreDown
	}
	for _, stored := range s.projects {
		if stored.ID == p.ID {
			stored.MentorID = p.MentorID
			stored.MentorEmail = p.MentorEmail
			for _, id := range p.MenteeIDs {
				stored.MenteeIDs = unionID(stored.MenteeIDs, id)
			}
			return nil
		}
	}
	return errors.New("project not found")
}

func (s *fakeStore) UpsertAssignment(_ context.Context, a *models.Assignment) error {
	if existing, ok := s.assignments[a.ProjectID]; ok {
		a.ID = existing.ID
		if a.MentorName == "" {
			a.MentorName = existing.MentorName
		}
		cp := *a
		s.assignments[a.ProjectID] = &cp
		return nil
	}
	a.ID = s.id()
	cp := *a
	s.assignments[a.ProjectID] = &cp
	return nil
}

func (s *fakeStore) UpsertAssignmentMentee(_ context.Context, m *models.AssignmentMentee) error {
	if m.MenteeEmail == s.failLinkEmail {
		return errStoreDown
	}
	for _, l := range s.links {
		if l.AssignmentID == m.AssignmentID && l.MenteeEmail == m.MenteeEmail {
			l.MenteeName = m.MenteeName
			if m.MenteeID != nil {
				l.MenteeID = m.MenteeID
			}
			m.ID = l.ID
			return nil
		}
	}
	m.ID = s.id()
	cp := *m
	s.links = append(s.links, &cp)
	return nil
}

func (s *fakeStore) projectByName(name string) *models.Project {
	for _, p := range s.projects {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (s *fakeStore) linksFor(assignmentID uint) []*models.AssignmentMentee {
	var out []*models.AssignmentMentee
	for _, l := range s.links {
		if l.AssignmentID == assignmentID {
			out = append(out, l)
		}
	}
	return out
}
