package mcp

import (
	"context"
	"fmt"
	"math"
)

// ArgType is the declared type of a tool argument.
type ArgType int

const (
	TypeString ArgType = iota
	TypeReal
	TypeInteger
	TypeBoolean
)

func (t ArgType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeReal:
		return "real"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("ArgType(%d)", int(t))
	}
}

// ArgSpec declares one positional tool argument.
type ArgSpec struct {
	Name        string
	Description string
	Type        ArgType
}

// Value holds a decoded argument. Only the member selected by Type is meaningful.
type Value struct {
	Type ArgType
	Str  string
	Real float64
	Int  int64
	Bool bool
}

func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }
func RealValue(f float64) Value  { return Value{Type: TypeReal, Real: f} }
func IntegerValue(n int64) Value { return Value{Type: TypeInteger, Int: n} }
func BooleanValue(b bool) Value  { return Value{Type: TypeBoolean, Bool: b} }

// Any returns the value as a plain Go value (string, float64, int64 or bool).
func (v Value) Any() any {
	switch v.Type {
	case TypeString:
		return v.Str
	case TypeReal:
		return v.Real
	case TypeInteger:
		return v.Int
	case TypeBoolean:
		return v.Bool
	default:
		return nil
	}
}

// Argument is a named argument value as supplied by a caller.
type Argument struct {
	Name  string
	Value Value
}

// Arguments is the ordered argument list handed to a tool.
type Arguments []Argument

// Get returns the value of the first argument called name.
func (a Arguments) Get(name string) (Value, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return Value{}, false
}

// Text returns the string argument called name, or "".
func (a Arguments) Text(name string) string {
	v, _ := a.Get(name)
	return v.Str
}

// Int returns the integer argument called name. Real values are truncated.
func (a Arguments) Int(name string) int64 {
	v, _ := a.Get(name)
	if v.Type == TypeReal {
		return TruncateReal(v.Real)
	}
	return v.Int
}

// Real returns the numeric argument called name as float64.
func (a Arguments) Real(name string) float64 {
	v, _ := a.Get(name)
	if v.Type == TypeInteger {
		return float64(v.Int)
	}
	return v.Real
}

// Bool returns the boolean argument called name, or false.
func (a Arguments) Bool(name string) bool {
	v, _ := a.Get(name)
	return v.Bool
}

// TruncateReal narrows a real to an integer by dropping the fraction,
// saturating at the int64 range.
func TruncateReal(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// Invocable is the capability behind a tool.
type Invocable interface {
	Call(ctx context.Context, args Arguments) (string, error)
}

// ToolFunc adapts a function to Invocable.
type ToolFunc func(ctx context.Context, args Arguments) (string, error)

func (f ToolFunc) Call(ctx context.Context, args Arguments) (string, error) {
	return f(ctx, args)
}

// Readable is the capability shared by all registered resources.
type Readable interface {
	Read(ctx context.Context, uri string) ([]byte, error)
}

// ReadFunc adapts a function to Readable.
type ReadFunc func(ctx context.Context, uri string) ([]byte, error)

func (f ReadFunc) Read(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// Tool is a named, schema-described callable.
type Tool struct {
	Name        string
	Description string
	Args        []ArgSpec
	Handler     Invocable
}

// Resource is a URI-addressed readable document.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Title       string
}
