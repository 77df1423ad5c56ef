// Package profile loads the job seeker's static profile.
package profile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

const (
	DefaultPath = "knowledge/resume_template.json"
	defaultRole = "Software Engineer"
)

// ErrEmptyProfile is returned when no usable profile could be loaded.
// The pipeline refuses to run without one.
var ErrEmptyProfile = errors.New("no user profile available")

//go:embed profile.schema.json
var schema string

// UserProfile describes the job seeker. It is read once per run and never mutated.
type UserProfile struct {
	Name                 string   `json:"name"`
	Email                string   `json:"email,omitempty"`
	Location             string   `json:"location,omitempty"`
	CurrentRole          string   `json:"current_role"`
	YearsExperience      int      `json:"years_experience" validate:"gte=0,lte=80"`
	Skills               []string `json:"skills" validate:"dive,required"`
	PreferredLocations   []string `json:"preferred_locations" validate:"dive,required"`
	ExpectedSalary       int      `json:"expected_salary" validate:"gte=0"`
	PreferredCompanyType string   `json:"preferred_company_type"`
}

// FieldError is a single problem found in the profile document.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every problem found in a profile document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid profile:")
	for _, fe := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", fe.Field, fe.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Load reads and validates the profile at path.
// Missing, malformed and empty documents all wrap ErrEmptyProfile.
func Load(path string) (*UserProfile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", ErrEmptyProfile, path, err)
	}

	return Parse(data)
}

// Parse validates raw JSON against the profile schema and decodes it.
func Parse(data []byte) (*UserProfile, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrEmptyProfile)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validating profile schema: %w", err)
	}

	if !result.Valid() {
		ve := &ValidationError{}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return nil, ve
	}

	var p UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyProfile, err)
	}

	if p.IsEmpty() {
		return nil, ErrEmptyProfile
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Validate checks struct-level constraints the schema does not express.
func (p *UserProfile) Validate() error {
	err := validator.New().Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed on %q", fe.Tag()),
		})
	}
	return ve
}

// IsEmpty reports whether the profile carries nothing a search could use.
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return strings.TrimSpace(p.Name) == "" &&
		strings.TrimSpace(p.CurrentRole) == "" &&
		len(p.Skills) == 0
}

// DisplayName returns the name or a generic placeholder.
func (p *UserProfile) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return "Job Seeker"
}

// SearchQuery builds the default query: current role followed by the first skill.
func (p *UserProfile) SearchQuery() string {
	role := strings.TrimSpace(p.CurrentRole)
	if role == "" {
		role = defaultRole
	}
	if len(p.Skills) == 0 {
		return role
	}
	return strings.TrimSpace(role + " " + p.Skills[0])
}

// TopSkills returns at most n skills in profile order.
func (p *UserProfile) TopSkills(n int) []string {
	if n <= 0 || len(p.Skills) == 0 {
		return nil
	}
	if len(p.Skills) < n {
		n = len(p.Skills)
	}
	return p.Skills[:n]
}
