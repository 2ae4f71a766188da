package importer

import (
	"regexp"
	"strings"

	"github.com/mentorloop/reviewhub/internal/models"
)

// DefaultStatus is applied when a row has no Project Status.
const DefaultStatus = "pending"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizedRow is one validated input row. Emails are lower-cased.
type NormalizedRow struct {
	ProjectName    string   `json:"project_name"`
	MentorName     string   `json:"mentor_name"`
	MentorEmail    string   `json:"mentor_email"`
	MenteeName     string   `json:"mentee_name"`
	MenteeEmail    string   `json:"mentee_email"`
	ProjectDetails string   `json:"project_details"`
	ProjectStatus  string   `json:"project_status"`
	RowNumber      int      `json:"row_number"`
	Warnings       []string `json:"warnings,omitempty"`
}

// ValidationResult holds the rows that may proceed and the messages for the rest.
type ValidationResult struct {
	ValidRows   []NormalizedRow
	Errors      []string
	Warnings    []string
	TotalRows   int
	InvalidRows int
}

// ValidateRows checks every row in file order, numbering them from 1.
// Invalid rows are dropped with one error message per problem; a repeated
// project name only warns.
func ValidateRows(rows []RawRow, mapping ColumnMapping, defaultStatus string) ValidationResult {
	return validate(rows, nil, mapping, defaultStatus)
}

// ValidateTable is ValidateRows using the table's own row numbers, so
// messages still point at the right line after skipped blank rows.
func ValidateTable(t *Table, mapping ColumnMapping, defaultStatus string) ValidationResult {
	return validate(t.Rows, t.RowNumbers, mapping, defaultStatus)
}

func validate(rows []RawRow, numbers []int, mapping ColumnMapping, defaultStatus string) ValidationResult {
	if defaultStatus == "" {
		defaultStatus = DefaultStatus
	}

	res := ValidationResult{TotalRows: len(rows)}
	seen := make(map[string]struct{}, len(rows))

	for i, raw := range rows {
		n := i + 1
		if i < len(numbers) {
			n = numbers[i]
		}
		row := NormalizedRow{
			ProjectName:    mapping.value(raw, ColProjectName),
			MentorName:     mapping.value(raw, ColMentorName),
			MentorEmail:    strings.ToLower(mapping.value(raw, ColMentorEmail)),
			MenteeName:     mapping.value(raw, ColMenteeName),
			MenteeEmail:    strings.ToLower(mapping.value(raw, ColMenteeEmail)),
			ProjectDetails: mapping.value(raw, ColProjectDetails),
			ProjectStatus:  strings.ToLower(mapping.value(raw, ColProjectStatus)),
			RowNumber:      n,
		}
		if row.ProjectStatus == "" {
			row.ProjectStatus = defaultStatus
		}

		errs := rowErrors(row)

		key := models.ProjectNameKey(row.ProjectName)
		_, duplicate := seen[key]
		if key != "" {
			seen[key] = struct{}{}
		}

		if len(errs) > 0 {
			res.InvalidRows++
			res.Errors = append(res.Errors, errs...)
			continue
		}

		if duplicate {
			w := (&RowError{Row: n, Message: "Duplicate project name in CSV"}).Error()
			row.Warnings = append(row.Warnings, w)
			res.Warnings = append(res.Warnings, w)
		}
		res.ValidRows = append(res.ValidRows, row)
	}

	return res
}

func rowErrors(row NormalizedRow) []string {
	var errs []string
	add := func(msg string) {
		errs = append(errs, (&RowError{Row: row.RowNumber, Message: msg}).Error())
	}

	required := []struct {
		field string
		value string
	}{
		{ColProjectName, row.ProjectName},
		{ColMentorName, row.MentorName},
		{ColMentorEmail, row.MentorEmail},
		{ColMenteeName, row.MenteeName},
		{ColMenteeEmail, row.MenteeEmail},
	}
	for _, r := range required {
		if r.value == "" {
			add(r.field + " is required")
		}
	}

	if row.MentorEmail != "" && !emailPattern.MatchString(row.MentorEmail) {
		add("Invalid Mentor Email format")
	}
	if row.MenteeEmail != "" && !emailPattern.MatchString(row.MenteeEmail) {
		add("Invalid Mentee Email format")
	}
	return errs
}
