package promptreg

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Generator produces the messages of a prompt. Generators must not depend on
// mutable external state: repeated calls with the same args return equal messages.
// Errors are returned to the caller of Registry.Invoke unchanged.
type Generator func(ctx context.Context, args Args) ([]Message, error)

// Static returns a Generator that ignores args and returns a copy of msgs on every call.
func Static(msgs ...Message) Generator {
	frozen := cloneMessages(msgs)
	return func(context.Context, Args) ([]Message, error) {
		return cloneMessages(frozen), nil
	}
}

// Entry is an immutable registry record: id, description, declared arguments and generator.
// Construct with NewEntry; the zero Entry is rejected by Registry.Register.
type Entry struct {
	id          string
	description string
	arguments   []Argument
	generate    Generator
}

// NewEntry validates id and the argument declarations and returns an Entry.
func NewEntry(id, description string, gen Generator, opts ...EntryOption) (Entry, error) {
	if err := ValidateID(id); err != nil {
		return Entry{}, err
	}
	if gen == nil {
		return Entry{}, fmt.Errorf("promptreg: prompt %q: generator must not be nil", id)
	}
	e := Entry{id: id, description: description, generate: gen}
	for _, opt := range opts {
		opt(&e)
	}
	seen := make(map[string]bool, len(e.arguments))
	for _, a := range e.arguments {
		if strings.TrimSpace(a.Name) == "" {
			return Entry{}, fmt.Errorf("promptreg: prompt %q: argument with empty name", id)
		}
		if seen[a.Name] {
			return Entry{}, fmt.Errorf("promptreg: prompt %q: argument %q declared twice", id, a.Name)
		}
		seen[a.Name] = true
	}
	return e, nil
}

// MustEntry is like NewEntry but panics on error. Intended for static startup lists.
func MustEntry(id, description string, gen Generator, opts ...EntryOption) Entry {
	e, err := NewEntry(id, description, gen, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// ID returns the entry id.
func (e Entry) ID() string { return e.id }

// Description returns the human-readable description.
func (e Entry) Description() string { return e.description }

// Arguments returns a copy of the declared arguments.
func (e Entry) Arguments() []Argument { return slices.Clone(e.arguments) }

// Info returns the listing record for the entry.
func (e Entry) Info() Info {
	return Info{ID: e.id, Description: e.description, Arguments: e.Arguments()}
}

// Generate validates args against the declared arguments and calls the generator.
// The returned payload carries the entry description; generator errors are returned as is.
func (e Entry) Generate(ctx context.Context, args Args) (*Payload, error) {
	if e.generate == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, e.id)
	}
	if err := e.validateArgs(args); err != nil {
		return nil, err
	}
	msgs, err := e.generate(ctx, maps.Clone(args))
	if err != nil {
		return nil, err
	}
	return &Payload{Messages: cloneMessages(msgs), Description: e.description}, nil
}

func (e Entry) validateArgs(args Args) error {
	declared := make(map[string]bool, len(e.arguments))
	for _, a := range e.arguments {
		declared[a.Name] = true
		if !a.Required {
			continue
		}
		if v, ok := args[a.Name]; !ok || strings.TrimSpace(v) == "" {
			return &ArgumentError{Argument: a.Name, Prompt: e.id, Reason: "required", Err: ErrInvalidArgument}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(args)) {
		if !declared[name] {
			return &ArgumentError{Argument: name, Prompt: e.id, Reason: "not declared", Err: ErrInvalidArgument}
		}
	}
	return nil
}

// cloneMessages copies msgs so that callers cannot reach generator-owned memory.
func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		if img, ok := m.Content.(ImagePart); ok {
			img.Data = slices.Clone(img.Data)
			m.Content = img
		}
		out[i] = m
	}
	return out
}
