// Package host keeps the live state of one calculator form: the active
// modulation variant, the raw field text and the derived outputs.
//
// A Session is not safe for concurrent use. Each form is driven by a single
// event loop that calls Select and Set one event at a time.
package host

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"modcalc/consts"
	"modcalc/fec"
	"modcalc/modulation"
)

var ErrUnboundField = errors.New("field not declared by active variant")

// Observer is told about every recompute.
type Observer interface {
	Recomputed(variant string, ok bool)
}

// FieldState is one input field as shown on the form.
type FieldState struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Snapshot is the full visible state of a session.
type Snapshot struct {
	Variant         string       `json:"variant"`
	Fields          []FieldState `json:"fields"`
	DataRate        string       `json:"dataRate"`
	Diagram         string       `json:"diagram"`
	InformationRate string       `json:"informationRate,omitempty"`
}

type handler func()

type Session struct {
	id       string
	variant  modulation.Variant
	inputs   modulation.Inputs
	bindings map[string]handler

	dataRate string
	diagram  string
	infoRate string

	outer    *fec.OuterCode
	observer Observer
}

type Option func(*Session)

// WithID sets the session ID instead of a random UUID.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithOuterCode adds the information rate output.
func WithOuterCode(c *fec.OuterCode) Option {
	return func(s *Session) { s.outer = c }
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// NewSession creates a session showing the given variant with default
// inputs. An empty or unknown name falls back to BPSK.
func NewSession(variant string, opts ...Option) *Session {
	s := &Session{id: uuid.NewString()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Select(variant); err != nil {
		_ = s.Select(consts.DefaultVariant)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Variant() modulation.Variant { return s.variant }

// Select activates a variant. The previous variant's bindings are dropped,
// the new variant starts from its default inputs, and each declared field
// gets a recompute handler.
func (s *Session) Select(name string) error {
	v, err := modulation.Lookup(name)
	if err != nil {
		return err
	}

	s.variant = v
	s.inputs = v.Defaults()
	s.bindings = make(map[string]handler, len(v.Fields))
	for _, f := range v.Fields {
		s.bindings[f.Key] = s.recompute
	}
	s.recompute()
	return nil
}

// Set stores new text for a field and runs the field's handler.
func (s *Session) Set(key, value string) error {
	h, ok := s.bindings[key]
	if !ok {
		return fmt.Errorf("%w: %s has no %q field", ErrUnboundField, s.variant.Name, key)
	}
	s.inputs[key] = value
	h()
	return nil
}

// Value returns the raw text of a field.
func (s *Session) Value(key string) (string, bool) {
	v, ok := s.inputs[key]
	return v, ok
}

func (s *Session) DataRate() string { return s.dataRate }

func (s *Session) Diagram() string { return s.diagram }

// InformationRate is empty unless an outer code is configured.
func (s *Session) InformationRate() string { return s.infoRate }

func (s *Session) Snapshot() Snapshot {
	fields := make([]FieldState, len(s.variant.Fields))
	for i, f := range s.variant.Fields {
		fields[i] = FieldState{Key: f.Key, Label: f.Label, Value: s.inputs[f.Key]}
	}
	return Snapshot{
		Variant:         s.variant.Name,
		Fields:          fields,
		DataRate:        s.dataRate,
		Diagram:         s.diagram,
		InformationRate: s.infoRate,
	}
}

func (s *Session) recompute() {
	rate, err := s.variant.Compute(s.inputs)
	ok := err == nil
	if ok {
		s.dataRate = modulation.FormatRate(rate)
	} else {
		s.dataRate = consts.InvalidInput
	}
	s.diagram = s.variant.Diagram()

	if s.outer != nil {
		if ok {
			s.infoRate = modulation.FormatRate(s.outer.InformationRate(rate))
		} else {
			s.infoRate = consts.InvalidInput
		}
	}

	if s.observer != nil {
		s.observer.Recomputed(s.variant.Name, ok)
	}
}
