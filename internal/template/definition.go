package template

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/codefactory/codefactory/internal/params"
	"gopkg.in/yaml.v3"
)

// Definition represents a parsed and validated factory template file:
// a ---fenced YAML front-matter block followed by the template body.
type Definition struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description,omitempty"`
	Output      string               `yaml:"output,omitempty"`
	Params      map[string]ParamSpec `yaml:"params,omitempty"`

	// Body is the template text below the front-matter fence.
	Body string `yaml:"-"`
}

// ParamSpec describes one declared parameter in the front-matter schema.
// Only a closed set of types is accepted; complex/function/object types
// are rejected at validation time.
type ParamSpec struct {
	Type      string   `yaml:"type"`
	Required  bool     `yaml:"required,omitempty"`
	Default   any      `yaml:"default,omitempty"`
	MaxLength int      `yaml:"max_length,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Values    []string `yaml:"values,omitempty"` // enum members
}

// paramTypes is the closed set of accepted parameter types.
var paramTypes = map[string]bool{
	"string":   true,
	"number":   true,
	"boolean":  true,
	"enum":     true,
	"string[]": true,
	"number[]": true,
	"object[]": true,
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse reads and validates a factory template file
func Parse(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses front-matter and body from raw template file content.
// The front-matter is decoded strictly so misspelled fields fail loudly.
func ParseBytes(data []byte) (*Definition, error) {
	meta, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}

	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(meta))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse front-matter (check for unknown/misspelled fields): %w", err)
	}
	def.Body = body

	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// splitFrontMatter separates the ---fenced metadata block from the body.
func splitFrontMatter(data []byte) (meta []byte, body string, err error) {
	text := string(data)
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return nil, "", fmt.Errorf("template file must start with a '---' front-matter fence")
	}
	rest := text[strings.Index(text, "\n")+1:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return nil, "", fmt.Errorf("template file is missing the closing '---' fence")
	}
	meta = []byte(rest[:idx+1])
	after := rest[idx+4:]
	// Body starts on the line after the closing fence
	if nl := strings.Index(after, "\n"); nl >= 0 {
		after = after[nl+1:]
	} else {
		after = ""
	}
	return meta, after, nil
}

// Validate checks a parsed definition against the closed parameter model.
func Validate(def *Definition) error {
	var errs ValidationErrors

	if def.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	} else if !identRe.MatchString(def.Name) {
		errs = append(errs, ValidationError{
			Field:      "name",
			Message:    fmt.Sprintf("name '%s' is not a valid identifier", def.Name),
			Suggestion: "use letters, digits, and underscores, starting with a letter",
		})
	}

	if strings.TrimSpace(def.Body) == "" {
		errs = append(errs, ValidationError{
			Field:   "body",
			Message: "template body is empty",
		})
	}

	for name, spec := range def.Params {
		fieldPath := fmt.Sprintf("params.%s", name)

		if !identRe.MatchString(name) {
			errs = append(errs, ValidationError{
				Field:      fieldPath,
				Message:    fmt.Sprintf("parameter name '%s' is not a valid identifier", name),
				Suggestion: "parameter names that could carry code are rejected",
			})
		}

		if spec.Type == "" {
			errs = append(errs, ValidationError{
				Field:   fieldPath + ".type",
				Message: "type is required",
			})
		} else if !paramTypes[spec.Type] {
			errs = append(errs, ValidationError{
				Field:      fieldPath + ".type",
				Message:    fmt.Sprintf("unsupported type '%s'", spec.Type),
				Suggestion: "use string, number, boolean, enum, string[], number[], or object[]",
			})
		}

		if spec.Type == "enum" && len(spec.Values) == 0 {
			errs = append(errs, ValidationError{
				Field:   fieldPath + ".values",
				Message: "enum parameters require a values list",
			})
		}

		if spec.Pattern != "" {
			if _, err := regexp.Compile(spec.Pattern); err != nil {
				errs = append(errs, ValidationError{
					Field:   fieldPath + ".pattern",
					Message: fmt.Sprintf("invalid pattern: %v", err),
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Coerce converts an extracted raw string into the declared parameter type,
// enforcing the declared validation constraints.
func (s ParamSpec) Coerce(name, raw string) (params.Value, error) {
	switch s.Type {
	case "number":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params.Value{}, &params.ValidationError{
				Param:   name,
				Message: fmt.Sprintf("expected a number, got %q", raw),
			}
		}
		return params.Number(f), nil
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return params.Value{}, &params.ValidationError{
				Param:   name,
				Message: fmt.Sprintf("expected true or false, got %q", raw),
			}
		}
		return params.Bool(b), nil
	case "enum":
		for _, v := range s.Values {
			if v == raw {
				return params.String(raw), nil
			}
		}
		return params.Value{}, &params.ValidationError{
			Param:      name,
			Message:    fmt.Sprintf("%q is not a member of the enum", raw),
			Suggestion: fmt.Sprintf("use one of: %s", strings.Join(s.Values, ", ")),
		}
	default:
		return s.checkString(name, raw)
	}
}

// checkString validates a string value against length and pattern constraints.
func (s ParamSpec) checkString(name, raw string) (params.Value, error) {
	if s.MaxLength > 0 && len(raw) > s.MaxLength {
		return params.Value{}, &params.ValidationError{
			Param:   name,
			Message: fmt.Sprintf("value exceeds max length %d", s.MaxLength),
		}
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return params.Value{}, fmt.Errorf("invalid pattern for parameter '%s': %w", name, err)
		}
		if !re.MatchString(raw) {
			return params.Value{}, &params.ValidationError{
				Param:   name,
				Message: fmt.Sprintf("value %q does not match pattern %s", raw, s.Pattern),
			}
		}
	}
	return params.FromAny(name, raw)
}

// ValidateParams checks a full parameter map against the definition's schema:
// required parameters present, kinds compatible with declared types.
func (d *Definition) ValidateParams(p map[string]params.Value) error {
	var errs ValidationErrors

	for name, spec := range d.Params {
		v, ok := p[name]
		if !ok {
			if spec.Required {
				errs = append(errs, ValidationError{
					Field:   "params." + name,
					Message: "required parameter is missing",
				})
			}
			continue
		}
		if !kindMatches(spec.Type, v) {
			errs = append(errs, ValidationError{
				Field:   "params." + name,
				Message: fmt.Sprintf("expected %s, got %s", spec.Type, v.Kind()),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func kindMatches(typ string, v params.Value) bool {
	switch typ {
	case "string", "enum":
		return v.Kind() == params.KindString
	case "number":
		return v.Kind() == params.KindNumber
	case "boolean":
		return v.Kind() == params.KindBool
	case "string[]", "number[]", "object[]":
		return v.Kind() == params.KindList
	default:
		return false
	}
}
