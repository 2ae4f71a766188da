package importer

import (
	"encoding/csv"
	"io"
)

// TemplateFileName is the suggested download name for the import template.
const TemplateFileName = "project_assignments_template.csv"

var templateRows = [][]string{
	{"AI Chatbot", "Dr. Asha Rao", "asha.rao@college.edu", "Rahul Mehta", "rahul.mehta@college.edu", "Course FAQ assistant", "pending"},
	{"Campus Navigator", "Prof. Daniel Kim", "daniel.kim@college.edu", "Sara Lopez", "sara.lopez@college.edu", "Indoor wayfinding app", "in_progress"},
}

// WriteTemplate writes the canonical header row and two example rows as CSV.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return err
	}
	if err := cw.WriteAll(templateRows); err != nil {
		return err
	}
	return cw.Error()
}
