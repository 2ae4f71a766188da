package importer

import "strings"

// Logical columns, in template order.
const (
	ColProjectName    = "Project Name"
	ColMentorName     = "Mentor Name"
	ColMentorEmail    = "Mentor Email"
	ColMenteeName     = "Mentee Name"
	ColMenteeEmail    = "Mentee Email"
	ColProjectDetails = "Project Details"
	ColProjectStatus  = "Project Status"
)

type column struct {
	name     string
	required bool
	accepted map[string]struct{} // compacted forms of the name and its synonyms
}

// schema is fixed at init. Synonym sets are disjoint across columns.
var schema = []column{
	newColumn(ColProjectName, true, "project_name", "projectname", "project", "project title", "title"),
	newColumn(ColMentorName, true, "mentor_name", "mentorname", "mentor", "mentor full name"),
	newColumn(ColMentorEmail, true, "mentor_email", "mentoremail", "mentor email address", "mentor mail"),
	newColumn(ColMenteeName, true, "mentee_name", "menteename", "mentee", "student name", "student"),
	newColumn(ColMenteeEmail, true, "mentee_email", "menteeemail", "mentee email address", "student email"),
	newColumn(ColProjectDetails, false, "project_details", "projectdetails", "details", "description", "project description"),
	newColumn(ColProjectStatus, false, "project_status", "projectstatus", "status"),
}

func newColumn(name string, required bool, synonyms ...string) column {
	accepted := map[string]struct{}{compactHeader(name): {}}
	for _, s := range synonyms {
		accepted[compactHeader(s)] = struct{}{}
	}
	return column{name: name, required: required, accepted: accepted}
}

// Columns returns every logical column in template order.
func Columns() []string {
	out := make([]string, len(schema))
	for i, c := range schema {
		out[i] = c.name
	}
	return out
}

// RequiredColumns returns the logical columns an upload must provide.
func RequiredColumns() []string {
	var out []string
	for _, c := range schema {
		if c.required {
			out = append(out, c.name)
		}
	}
	return out
}

// ColumnMapping maps logical column names to the literal headers of one file.
type ColumnMapping struct {
	headers map[string]string
}

// Header returns the literal header matched for a logical column.
func (m ColumnMapping) Header(logical string) (string, bool) {
	h, ok := m.headers[logical]
	return h, ok
}

// Map returns a copy of the mapping.
func (m ColumnMapping) Map() map[string]string {
	out := make(map[string]string, len(m.headers))
	for k, v := range m.headers {
		out[k] = v
	}
	return out
}

// value reads the trimmed cell for a logical column; unmapped columns read as "".
func (m ColumnMapping) value(row RawRow, logical string) string {
	h, ok := m.headers[logical]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[h])
}

// ResolveHeaders matches file headers onto the logical schema. A header
// equal to the logical name (ignoring case and spacing) wins over a
// synonym match; otherwise the first header in file order wins.
func ResolveHeaders(headers []string) (ColumnMapping, error) {
	mapping := ColumnMapping{headers: make(map[string]string, len(schema))}
	var missing []string

	for _, col := range schema {
		h, ok := matchExact(col, headers)
		if !ok {
			h, ok = matchSynonym(col, headers)
		}
		if ok {
			mapping.headers[col.name] = h
			continue
		}
		if col.required {
			missing = append(missing, col.name)
		}
	}

	if len(missing) > 0 {
		found := make([]string, 0, len(headers))
		for _, h := range headers {
			if h != "" {
				found = append(found, h)
			}
		}
		return ColumnMapping{}, &MissingColumnsError{Missing: missing, Found: found}
	}
	return mapping, nil
}

func matchExact(col column, headers []string) (string, bool) {
	want := normalizeHeader(col.name)
	for _, h := range headers {
		if h != "" && normalizeHeader(h) == want {
			return h, true
		}
	}
	return "", false
}

func matchSynonym(col column, headers []string) (string, bool) {
	for _, h := range headers {
		if h == "" {
			continue
		}
		if _, ok := col.accepted[compactHeader(h)]; ok {
			return h, true
		}
	}
	return "", false
}

// normalizeHeader lowercases, trims and collapses inner whitespace.
func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// compactHeader drops spaces, underscores and hyphens so that
// "Mentor_Email", "mentor-email" and "MENTOR EMAIL" compare equal.
func compactHeader(h string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, normalizeHeader(h))
}
