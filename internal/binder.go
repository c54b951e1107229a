package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind enumerates the bindable parameter types. Optional kinds bind a
// blank input to nil; value kinds bind it to the type's zero value.
type Kind int

const (
	String Kind = iota
	Int
	Int64
	Float64
	Bool
	Time
	OptionalString
	OptionalInt
	OptionalInt64
	OptionalFloat64
	OptionalBool
	OptionalTime
)

// Param declares one handler argument by name and kind.
type Param struct {
	Name string
	Kind Kind
}

// Args holds the bound argument values, keyed by parameter name.
// Optional kinds are stored as typed pointers, nil when the input was
// blank.
type Args map[string]any

func (a Args) String(name string) string      { v, _ := a[name].(string); return v }
func (a Args) Int(name string) int            { v, _ := a[name].(int); return v }
func (a Args) Int64(name string) int64        { v, _ := a[name].(int64); return v }
func (a Args) Float64(name string) float64    { v, _ := a[name].(float64); return v }
func (a Args) Bool(name string) bool          { v, _ := a[name].(bool); return v }
func (a Args) StringPtr(name string) *string  { v, _ := a[name].(*string); return v }
func (a Args) IntPtr(name string) *int        { v, _ := a[name].(*int); return v }
func (a Args) Int64Ptr(name string) *int64    { v, _ := a[name].(*int64); return v }
func (a Args) Float64Ptr(name string) *float64 { v, _ := a[name].(*float64); return v }
func (a Args) BoolPtr(name string) *bool      { v, _ := a[name].(*bool); return v }
func (a Args) Time(name string) time.Time     { v, _ := a[name].(time.Time); return v }
func (a Args) TimePtr(name string) *time.Time { v, _ := a[name].(*time.Time); return v }

// argBinder produces one argument value from the context.
type argBinder struct {
	name string
	bind func(c *Context) (any, error)
}

// Binder binds a route's declared parameters. The per-parameter
// binding functions are selected once, when the route is registered.
type Binder struct {
	binders []argBinder
}

// NewBinder builds the binding table for the declared parameters.
func NewBinder(params []Param) *Binder {
	b := &Binder{binders: make([]argBinder, 0, len(params))}
	for _, p := range params {
		b.binders = append(b.binders, argBinder{name: p.Name, bind: binderFor(p)})
	}
	return b
}

// Bind resolves every declared parameter from the request. The lookup
// order is URL parameter, then query, then form field.
func (b *Binder) Bind(c *Context) (Args, error) {
	args := make(Args, len(b.binders))
	for _, ab := range b.binders {
		v, err := ab.bind(c)
		if err != nil {
			return nil, err
		}
		args[ab.name] = v
	}
	return args, nil
}

func binderFor(p Param) func(c *Context) (any, error) {
	name := p.Name
	switch p.Kind {
	case String:
		return func(c *Context) (any, error) {
			return rawValue(c, name), nil
		}
	case OptionalString:
		return optional(name, func(raw string) (string, error) { return raw, nil })
	case Int:
		return required(name, parseInt)
	case OptionalInt:
		return optional(name, parseInt)
	case Int64:
		return required(name, parseInt64)
	case OptionalInt64:
		return optional(name, parseInt64)
	case Float64:
		return required(name, parseFloat)
	case OptionalFloat64:
		return optional(name, parseFloat)
	case Bool:
		return required(name, parseBool)
	case OptionalBool:
		return optional(name, parseBool)
	case Time:
		return required(name, parseTime)
	case OptionalTime:
		return optional(name, parseTime)
	default:
		return func(*Context) (any, error) {
			return nil, &BindingError{Param: name, Err: fmt.Errorf("unknown kind %d", p.Kind)}
		}
	}
}

// required binds a value kind: blank input becomes the zero value.
func required[T any](name string, parse func(string) (T, error)) func(c *Context) (any, error) {
	return func(c *Context) (any, error) {
		raw := rawValue(c, name)
		if raw == "" {
			var zero T
			return zero, nil
		}
		v, err := parse(raw)
		if err != nil {
			return nil, &BindingError{Param: name, Value: raw, Err: err}
		}
		return v, nil
	}
}

// optional binds a pointer kind: blank input becomes a nil pointer.
func optional[T any](name string, parse func(string) (T, error)) func(c *Context) (any, error) {
	return func(c *Context) (any, error) {
		raw := rawValue(c, name)
		if raw == "" {
			return (*T)(nil), nil
		}
		v, err := parse(raw)
		if err != nil {
			return nil, &BindingError{Param: name, Value: raw, Err: err}
		}
		return &v, nil
	}
}

func rawValue(c *Context, name string) string {
	if v := c.Param(name); v != "" {
		return v
	}
	if v := c.Query(name); v != "" {
		return v
	}
	return c.Form().Value(name)
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(raw)
}

func parseInt64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

func parseBool(raw string) (bool, error) {
	return strconv.ParseBool(raw)
}

// parseTime accepts RFC 3339 timestamps and bare dates.
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

// BindJSON decodes a JSON request body into v, for routes that take a
// structured payload instead of declared scalar parameters.
func (c *Context) BindJSON(v any) error {
	if c.request.Body == nil || c.request.Body == http.NoBody {
		return &BindingError{Param: "body", Err: fmt.Errorf("empty body")}
	}
	dec := json.NewDecoder(c.request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &BindingError{Param: "body", Err: err}
	}
	return nil
}
