// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/research-brief/pkg/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks b against the brief schema and checks that every source
// it cites is one of the evidence citations. Violations are reported
// together as one ErrGenerationContract error.
func Validate(b types.Brief, citations []types.Citation) error {
	var problems []string

	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", types.ErrGenerationContract, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	known := make(map[string]bool, len(citations))
	for _, c := range citations {
		known[c.Key()] = true
	}
	seen := make(map[string]bool, len(b.Sources))
	for _, s := range b.Sources {
		key := s.Key()
		switch {
		case key == "":
			continue
		case !known[key]:
			problems = append(problems, fmt.Sprintf("source %q is not in the evidence", s.Title))
		case seen[key]:
			problems = append(problems, fmt.Sprintf("source %q is listed twice", s.Title))
		}
		seen[key] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", types.ErrGenerationContract, strings.Join(problems, "; "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Brief.")
	switch fe.Tag() {
	case "required":
		return field + " is missing"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s is not a URL", field)
	default:
		return fmt.Sprintf("%s fails %s", field, fe.Tag())
	}
}

// checkMarkdownSources confirms the Markdown lists every source, so both
// artifacts reference the same citation set.
func checkMarkdownSources(md []byte, sources []types.Source) error {
	text := string(md)
	for _, s := range sources {
		needle := s.URL
		if needle == "" {
			needle = s.Title
		}
		if !strings.Contains(text, needle) {
			return fmt.Errorf("%w: markdown omits source %q", types.ErrGenerationContract, s.Title)
		}
	}
	return nil
}
