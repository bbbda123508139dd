package templates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/2beens/marathon/internal/errs"
)

type Type string

const (
	TypePreStart         Type = "marathon_pre_start"
	TypeStart            Type = "marathon_start"
	TypeDaily            Type = "marathon_daily"
	TypeCompletion       Type = "marathon_completion"
	TypePhotoDiaryExpiry Type = "photo_diary_expiry"
)

func (t Type) String() string {
	return string(t)
}

// Template is looked up by Type at send time; Slug is the externally visible name.
// Version is bumped by the store on every replace.
type Template struct {
	Type      Type     `json:"type" toml:"type"`
	Slug      string   `json:"slug" toml:"slug"`
	Category  string   `json:"category" toml:"category"`
	Subject   string   `json:"subject" toml:"subject"`
	HTMLBody  string   `json:"htmlBody" toml:"html_body"`
	TextBody  string   `json:"textBody" toml:"text_body"`
	Variables []string `json:"variables" toml:"variables"`
	Version   int      `json:"version" toml:"-"`
}

var placeholderRegex = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Placeholders returns the distinct variable names used in subject and bodies, sorted.
func (t Template) Placeholders() []string {
	seen := make(map[string]bool)
	for _, part := range []string{t.Subject, t.HTMLBody, t.TextBody} {
		for _, m := range placeholderRegex.FindAllStringSubmatch(part, -1) {
			seen[m[1]] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks the record shape and that every placeholder is a declared variable.
func (t Template) Validate() error {
	if strings.TrimSpace(string(t.Type)) == "" {
		return errs.Invalid("template", "type", "is required")
	}
	if strings.TrimSpace(t.Slug) == "" {
		return errs.Invalid("template", "slug", "is required")
	}
	if strings.TrimSpace(t.Subject) == "" {
		return errs.Invalid("template", "subject", "is required")
	}
	if t.HTMLBody == "" && t.TextBody == "" {
		return errs.Invalid("template", "body", "needs html or text")
	}

	declared := make(map[string]bool, len(t.Variables))
	for _, v := range t.Variables {
		declared[v] = true
	}
	var undeclared []string
	for _, p := range t.Placeholders() {
		if !declared[p] {
			undeclared = append(undeclared, p)
		}
	}
	if len(undeclared) > 0 {
		return &TemplateValidationError{Type: t.Type, Undeclared: undeclared}
	}
	return nil
}

type TemplateNotFoundError struct {
	Type Type
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %s not found", e.Type)
}

func (e *TemplateNotFoundError) Is(target error) bool {
	return target == errs.ErrTemplate
}

type TemplateValidationError struct {
	Type       Type
	Undeclared []string
}

func (e *TemplateValidationError) Error() string {
	return fmt.Sprintf("template %s uses undeclared variables: %s", e.Type, strings.Join(e.Undeclared, ", "))
}

func (e *TemplateValidationError) Is(target error) bool {
	return target == errs.ErrTemplate || target == errs.ErrValidation
}

type DuplicateSlugError struct {
	Slug      string
	OwnerType Type
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("slug %s is already used by template %s", e.Slug, e.OwnerType)
}

type MissingVariableError struct {
	Type Type
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %s: missing variable %s", e.Type, e.Name)
}

func (e *MissingVariableError) Is(target error) bool {
	return target == errs.ErrTemplate
}
