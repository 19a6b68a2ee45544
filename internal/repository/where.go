package repository

import (
	"fmt"
	"strings"

	"github.com/Saman-dev12/civic/internal/models"
)

// whereBuilder accumulates AND-ed predicates with positional arguments.
// Each clause is a format string whose %d (or %[1]d) verbs are replaced
// with the argument's placeholder number.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) add(clause string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(clause, len(b.args)))
}

func (b *whereBuilder) raw(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + b.conditions()
}

func (b *whereBuilder) conditions() string {
	return strings.Join(b.clauses, " AND ")
}

// next returns the placeholder for an argument appended after the filter.
func (b *whereBuilder) next(arg any) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

// complaintWhere translates a filter over the complaints table aliased c.
func complaintWhere(f models.ComplaintFilter) *whereBuilder {
	b := &whereBuilder{}
	if f.CitizenID != "" {
		b.add("c.citizen_id = $%d", f.CitizenID)
	}
	if f.OfficerID != "" {
		b.add("EXISTS (SELECT 1 FROM assignments sa WHERE sa.complaint_id = c.id AND sa.officer_id = $%d)", f.OfficerID)
	}
	if f.Status != "" {
		b.add("c.status = $%d", f.Status)
	}
	if f.Category != "" {
		b.add("c.category = $%d", f.Category)
	}
	if f.Priority != "" {
		b.add("c.priority = $%d", f.Priority)
	}
	if f.Search != "" {
		b.add("(c.title ILIKE $%[1]d OR c.description ILIKE $%[1]d)", "%"+escapeLike(f.Search)+"%")
	}
	return b
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
