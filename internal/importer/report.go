package importer

import "strings"

// ProjectSummary identifies a project touched by an import.
type ProjectSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"project_name"`
	MentorID    *uint  `json:"mentor_id"`
	MentorEmail string `json:"mentor_email"`
}

// MentorAssignment records a mentor attached to a project.
type MentorAssignment struct {
	ProjectID   uint   `json:"project_id"`
	ProjectName string `json:"project_name"`
	MentorID    *uint  `json:"mentor_id"`
	MentorName  string `json:"mentor_name"`
	MentorEmail string `json:"mentor_email"`
}

// MenteeAssignment records a mentee attached to a project.
type MenteeAssignment struct {
	ProjectID   uint   `json:"project_id"`
	ProjectName string `json:"project_name"`
	MenteeID    *uint  `json:"mentee_id"`
	MenteeName  string `json:"mentee_name"`
	MenteeEmail string `json:"mentee_email"`
}

// Report is the aggregated result of one import. Success+Failed equals ValidRows.
type Report struct {
	Success         int                `json:"success"`
	Failed          int                `json:"failed"`
	Errors          []string           `json:"errors"`
	Warnings        []string           `json:"warnings"`
	TotalRows       int                `json:"total_rows"`
	ValidRows       int                `json:"valid_rows"`
	InvalidRows     int                `json:"invalid_rows"`
	CreatedProjects []ProjectSummary   `json:"created_projects"`
	UpdatedProjects []ProjectSummary   `json:"updated_projects"`
	AssignedMentors []MentorAssignment `json:"assigned_mentors"`
	AssignedMentees []MenteeAssignment `json:"assigned_mentees"`
}

// Aggregate folds validation messages and row outcomes into a Report.
// A project created earlier in the same import is not also listed as updated.
func Aggregate(v ValidationResult, outcomes []RowOutcome) *Report {
	rep := &Report{
		Errors:          append([]string{}, v.Errors...),
		Warnings:        append([]string{}, v.Warnings...),
		TotalRows:       v.TotalRows,
		ValidRows:       len(v.ValidRows),
		InvalidRows:     v.InvalidRows,
		CreatedProjects: []ProjectSummary{},
		UpdatedProjects: []ProjectSummary{},
		AssignedMentors: []MentorAssignment{},
		AssignedMentees: []MenteeAssignment{},
	}

	created := make(map[uint]bool)
	updated := make(map[uint]bool)
	mentors := make(map[assignKey]bool)
	mentees := make(map[assignKey]bool)

	for _, o := range outcomes {
		if !o.Succeeded() {
			rep.Failed++
			if o.Err != nil {
				rep.Errors = append(rep.Errors, o.Err.Error())
			}
			continue
		}
		rep.Success++

		p := o.Project
		summary := ProjectSummary{ID: p.ID, Name: p.Name, MentorID: p.MentorID, MentorEmail: p.MentorEmail}
		switch {
		case o.ProjectCreated && !created[p.ID]:
			created[p.ID] = true
			rep.CreatedProjects = append(rep.CreatedProjects, summary)
		case !o.ProjectCreated && !created[p.ID] && !updated[p.ID]:
			updated[p.ID] = true
			rep.UpdatedProjects = append(rep.UpdatedProjects, summary)
		}

		if a := o.Assignment; a != nil {
			mentorKey := assignKey{p.ID, strings.ToLower(a.MentorEmail)}
			if a.MentorEmail != "" && !mentors[mentorKey] {
				mentors[mentorKey] = true
				rep.AssignedMentors = append(rep.AssignedMentors, MentorAssignment{
					ProjectID:   p.ID,
					ProjectName: p.Name,
					MentorID:    a.MentorID,
					MentorName:  a.MentorName,
					MentorEmail: a.MentorEmail,
				})
			}
		}

		menteeKey := assignKey{p.ID, o.Row.MenteeEmail}
		if !mentees[menteeKey] {
			mentees[menteeKey] = true
			var id *uint
			if o.Mentee != nil {
				id = &o.Mentee.ID
			}
			rep.AssignedMentees = append(rep.AssignedMentees, MenteeAssignment{
				ProjectID:   p.ID,
				ProjectName: p.Name,
				MenteeID:    id,
				MenteeName:  o.Row.MenteeName,
				MenteeEmail: o.Row.MenteeEmail,
			})
		}
	}

	return rep
}

type assignKey struct {
	projectID uint
	email     string
}

// Truncate returns at most n items plus how many were left out,
// for "+N more" style summaries.
func Truncate(items []string, n int) ([]string, int) {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		return items, 0
	}
	return items[:n], len(items) - n
}
