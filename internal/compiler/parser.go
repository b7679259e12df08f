// Package compiler turns authored component definitions (YAML or JSON) into
// domain components.
//
// Formulas may be written in long form ({type: function, name: add, ...}) or in
// shorthand: a scalar or list is a literal value, and a map without "type" is
// inferred from its keys (path, name or value).
package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/tendril/internal/dto"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDefinition is returned for a document without content.
var ErrEmptyDefinition = errors.New("empty definition")

// Parser converts raw definitions into components.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes data into a validated component. name is used when the
// document does not declare one.
func (p *Parser) Parse(name string, data []byte) (*domain.Component, error) {
	var raw map[string]any
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse component %s: %w", name, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDefinition, name)
	}

	var doc dto.Component
	if err := decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: component %s: %v", domain.ErrInvalidDefinition, name, err)
	}
	if doc.Name == "" {
		doc.Name = name
	}

	c, err := compileComponent(doc)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseFormula decodes a single formula document.
func (p *Parser) ParseFormula(data []byte) (*domain.Formula, error) {
	var raw any
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse formula: %w", err)
	}
	f, err := compileFormula("formula", raw)
	if err != nil {
		return nil, err
	}
	return f, f.Validate()
}

// ParseAction decodes a single action document.
func (p *Parser) ParseAction(data []byte) (*domain.Action, error) {
	var raw any
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse action: %w", err)
	}
	a, err := compileAction("action", raw)
	if err != nil {
		return nil, err
	}
	return a, a.Validate()
}

// unmarshal reads JSON documents with encoding/json (keeping number text
// exact) and everything else as YAML.
func unmarshal(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(out); err == nil {
			return nil
		}
	}
	return yaml.Unmarshal(data, out)
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func invalid(at string, format string, a ...any) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrInvalidDefinition, at, fmt.Sprintf(format, a...))
}
