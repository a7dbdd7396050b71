package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind is the value type of a Field.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
)

// String returns the kind name used in API responses.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Field describes one editable setting and is bound to its storage.
type Field struct {
	Name  string
	Label string
	Help  string
	Kind  Kind

	// Min, Max and Step bound numeric fields. Step zero disables rounding.
	Min, Max, Step float64

	// Enforced fields are also clamped when settings are loaded, not only
	// when edited.
	Enforced bool

	// Priority orders fields; lower first, then by Name.
	Priority int

	// Visible hides the field from editors when it returns false.
	Visible func() bool

	get func() any
	set func(float64)
}

// FieldOption configures a Field.
type FieldOption func(*Field)

// WithHelp attaches help text.
func WithHelp(text string) FieldOption {
	return func(f *Field) { f.Help = text }
}

// WithPriority sets the ordering priority.
func WithPriority(p int) FieldOption {
	return func(f *Field) { f.Priority = p }
}

// VisibleWhen shows the field only while pred holds.
func VisibleWhen(pred func() bool) FieldOption {
	return func(f *Field) { f.Visible = pred }
}

// Enforced clamps the field on load as well as on edit.
func Enforced() FieldOption {
	return func(f *Field) { f.Enforced = true }
}

// Bool describes a boolean setting stored at p.
func Bool(name, label string, p *bool, opts ...FieldOption) Field {
	f := Field{
		Name:  name,
		Label: label,
		Kind:  KindBool,
		get:   func() any { return *p },
		set:   func(v float64) { *p = v != 0 },
	}
	return apply(f, opts)
}

// Int describes an integer setting stored at p.
func Int(name, label string, p *int, lo, hi, step int, opts ...FieldOption) Field {
	f := Field{
		Name:  name,
		Label: label,
		Kind:  KindInt,
		Min:   float64(lo),
		Max:   float64(hi),
		Step:  float64(step),
		get:   func() any { return *p },
		set:   func(v float64) { *p = int(v) },
	}
	return apply(f, opts)
}

// Float describes a floating-point setting stored at p.
func Float(name, label string, p *float64, lo, hi, step float64, opts ...FieldOption) Field {
	f := Field{
		Name:  name,
		Label: label,
		Kind:  KindFloat,
		Min:   lo,
		Max:   hi,
		Step:  step,
		get:   func() any { return *p },
		set:   func(v float64) { *p = v },
	}
	return apply(f, opts)
}

func apply(f Field, opts []FieldOption) Field {
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Value returns the current value.
func (f Field) Value() any {
	return f.get()
}

// IsVisible reports whether editors should show the field.
func (f Field) IsVisible() bool {
	return f.Visible == nil || f.Visible()
}

// Apply converts v to the field's kind, rounds numeric values to Step,
// clamps them to [Min, Max] and stores the result. Accepted inputs are
// bool for bool fields; numbers, json.Number and numeric strings for
// numeric fields.
func (f Field) Apply(v any) error {
	if f.Kind == KindBool {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %s wants a bool, got %T", ErrInvalidValue, f.Name, v)
		}
		if b {
			f.set(1)
		} else {
			f.set(0)
		}
		return nil
	}

	n, err := toFloat(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidValue, f.Name, err)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrInvalidValue, f.Name)
	}
	f.set(f.normalise(n))
	return nil
}

// Normalise re-clamps the stored value of an Enforced numeric field.
// Other fields are left untouched.
func (f Field) Normalise() {
	if !f.Enforced || f.Kind == KindBool {
		return
	}
	n, err := toFloat(f.get())
	if err != nil {
		return
	}
	f.set(f.clamp(n))
}

func (f Field) normalise(n float64) float64 {
	if f.Step > 0 {
		n = math.Round(n/f.Step) * f.Step
	}
	if f.Kind == KindInt {
		n = math.Round(n)
	}
	return f.clamp(n)
}

func (f Field) clamp(n float64) float64 {
	if f.Min < f.Max {
		n = math.Max(f.Min, math.Min(f.Max, n))
	}
	return n
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// Sort orders fields by Priority then Name.
func Sort(fields []Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Priority != fields[j].Priority {
			return fields[i].Priority < fields[j].Priority
		}
		return fields[i].Name < fields[j].Name
	})
}

// Find returns the field named name.
func Find(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// View is the serialisable description of a field and its value.
type View struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Help    string   `json:"help,omitempty"`
	Kind    Kind     `json:"kind"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Step    *float64 `json:"step,omitempty"`
	Value   any      `json:"value"`
	Visible bool     `json:"visible"`
}

// Describe returns views for fields in display order.
func Describe(fields []Field) []View {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	Sort(sorted)

	views := make([]View, 0, len(sorted))
	for _, f := range sorted {
		v := View{
			Name:    f.Name,
			Label:   f.Label,
			Help:    f.Help,
			Kind:    f.Kind,
			Value:   f.Value(),
			Visible: f.IsVisible(),
		}
		if f.Kind != KindBool {
			lo, hi, step := f.Min, f.Max, f.Step
			v.Min, v.Max, v.Step = &lo, &hi, &step
		}
		views = append(views, v)
	}
	return views
}

// Patch applies name/value pairs to fields. It stops at the first error;
// values applied before it stay applied.
func Patch(fields []Field, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, ok := Find(fields, name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		if err := f.Apply(values[name]); err != nil {
			return err
		}
	}
	return nil
}
