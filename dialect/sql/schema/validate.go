package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/syssam/erm/schema"
)

// identifierRe matches the table and column names erm writes unquoted into SQL text.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidationError represents a descriptor validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of descriptor validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the validation errors joined into one error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("dialect/sql/schema: invalid descriptor: %s", strings.Join(msgs, "; "))
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// ValidateOption configures descriptor validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	strict bool
}

// Strict reports warnings as errors.
func Strict() ValidateOption {
	return func(c *validateConfig) {
		c.strict = true
	}
}

// ValidateDescriptor validates a single component descriptor.
func ValidateDescriptor(d *schema.Descriptor, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	if d == nil {
		result.Errors = append(result.Errors, &ValidationError{Table: "<nil>", Message: "missing descriptor"})
		return result
	}
	if !identifierRe.MatchString(d.Table) {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   d.Table,
			Message: "invalid table name",
		})
	}
	seen := make(map[string]bool, len(d.Columns))
	allNullable := len(d.Columns) > 0
	for _, c := range d.Columns {
		switch {
		case !identifierRe.MatchString(c.Name):
			result.Errors = append(result.Errors, &ValidationError{
				Table:   d.Table,
				Column:  c.Name,
				Message: "invalid column name",
			})
		case strings.EqualFold(c.Name, schema.EntityColumn):
			result.Errors = append(result.Errors, &ValidationError{
				Table:   d.Table,
				Column:  c.Name,
				Message: "column name is reserved for the entity key",
			})
		case seen[c.Name]:
			result.Errors = append(result.Errors, &ValidationError{
				Table:   d.Table,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		seen[c.Name] = true
		if !c.Type.Valid() {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   d.Table,
				Column:  c.Name,
				Message: "invalid column type",
			})
		}
		allNullable = allNullable && c.Nullable
	}
	if allNullable {
		w := &ValidationError{
			Table:   d.Table,
			Message: "all columns are nullable: an optional read cannot tell an all-null value from an absent component",
		}
		if cfg.strict {
			result.Errors = append(result.Errors, w)
		} else {
			result.Warnings = append(result.Warnings, w)
		}
	}
	return result
}

// ValidateArchetype validates every descriptor of an archetype and rejects
// tables that are listed more than once.
func ValidateArchetype(a schema.Archetype, opts ...ValidateOption) *ValidationResult {
	result := &ValidationResult{}
	if len(a) == 0 {
		result.Errors = append(result.Errors, &ValidationError{Table: "<archetype>", Message: "no components"})
		return result
	}
	tables := make(map[string]bool, len(a))
	for _, d := range a {
		result.merge(ValidateDescriptor(d, opts...))
		if d == nil {
			continue
		}
		if tables[d.Table] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   d.Table,
				Message: "component listed more than once",
			})
		}
		tables[d.Table] = true
	}
	return result
}
