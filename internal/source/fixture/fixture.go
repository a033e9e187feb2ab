// Package fixture loads an inbox from a YAML list of emails, either the
// built-in sample inbox or a file on disk.
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/source"
)

//go:embed sample_inbox.yaml
var sampleInbox []byte

// Source implements source.Source for YAML fixtures.
type Source struct {
	path string
}

// NewSample returns a source for the built-in sample inbox.
func NewSample() *Source {
	return &Source{}
}

// NewFile returns a source reading the YAML file at path on every Load.
func NewFile(path string) *Source {
	return &Source{path: path}
}

// Kind reports KindSample for the built-in inbox and KindYAML otherwise.
func (s *Source) Kind() source.Kind {
	if s.path == "" {
		return source.KindSample
	}
	return source.KindYAML
}

// Location returns the file path, or "built-in" for the sample inbox.
func (s *Source) Location() string {
	if s.path == "" {
		return "built-in"
	}
	return s.path
}

// Load decodes the fixture. Every record needs an id and a sender;
// sentiment, priority and status may be omitted.
func (s *Source) Load(_ context.Context) ([]model.Email, error) {
	data := sampleInbox
	if s.path != "" {
		var err error
		data, err = os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("reading fixture %s: %w", s.path, err)
		}
	}
	return Parse(s.Location(), data)
}

// Parse decodes a YAML list of emails. name is used in error messages.
func Parse(name string, data []byte) ([]model.Email, error) {
	var emails []model.Email
	if err := yaml.Unmarshal(data, &emails); err != nil {
		return nil, &source.ParseError{Path: name, Message: err.Error()}
	}

	seen := make(map[string]bool, len(emails))
	for i := range emails {
		e := &emails[i]
		switch {
		case e.ID == "":
			return nil, &source.ParseError{Path: name, Message: fmt.Sprintf("record %d has no id", i+1)}
		case seen[e.ID]:
			return nil, &source.ParseError{Path: name, Message: fmt.Sprintf("duplicate id %q", e.ID)}
		case e.Sender == "":
			return nil, &source.ParseError{Path: name, Message: fmt.Sprintf("email %s has no sender", e.ID)}
		}
		seen[e.ID] = true

		if e.Status == "" {
			e.Status = model.StatusPending
		}
	}
	return emails, nil
}
