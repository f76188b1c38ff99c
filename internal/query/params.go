package query

import (
	"reflect"
	"strconv"
)

// ParamType is the driver bind type of a parameter value.
type ParamType int

const (
	ParamNull ParamType = iota
	ParamBool
	ParamInt
	ParamStr
)

func (t ParamType) String() string {
	switch t {
	case ParamNull:
		return "NULL"
	case ParamBool:
		return "BOOL"
	case ParamInt:
		return "INT"
	case ParamStr:
		return "STR"
	default:
		return "ParamType(" + strconv.Itoa(int(t)) + ")"
	}
}

// TypeOf infers the bind type of a value. Booleans, nils and Go integers get
// their own type; everything else, floats included, binds as a string.
func TypeOf(value any) ParamType {
	switch value.(type) {
	case nil:
		return ParamNull
	case bool:
		return ParamBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ParamInt
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Bool:
		return ParamBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ParamInt
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return ParamNull
		}
	}
	return ParamStr
}

// Placeholder addresses a bound parameter: a 1-based position matching the
// n-th "?" in the SQL, or a ":name" key.
type Placeholder struct {
	Position int
	Name     string
}

// IsNamed reports whether the placeholder is addressed by name.
func (p Placeholder) IsNamed() bool {
	return p.Name != ""
}

func (p Placeholder) String() string {
	if p.IsNamed() {
		return p.Name
	}
	return strconv.Itoa(p.Position)
}

// Param is a single key/value entry of a parameter list.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered parameter list. Purely numeric keys are 0-based
// positions, all other keys are placeholder names used verbatim.
type Params []Param

// Positional builds a parameter list keyed by the 0-based index of each value.
func Positional(values ...any) Params {
	p := make(Params, len(values))
	for i, v := range values {
		p[i] = Param{Key: strconv.Itoa(i), Value: v}
	}
	return p
}

// Set returns p with key bound to value. An existing key keeps its position.
func (p Params) Set(key string, value any) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Key: key, Value: value})
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (p Params) Keys() []string {
	keys := make([]string, len(p))
	for i, param := range p {
		keys[i] = param.Key
	}
	return keys
}

// placeholderFor translates a caller key to the placeholder it binds to.
// Numeric keys are shifted from 0-based to the driver's 1-based positions.
func placeholderFor(key string) Placeholder {
	if isNumeric(key) {
		if n, err := strconv.Atoi(key); err == nil {
			return Placeholder{Position: n + 1}
		}
	}
	return Placeholder{Name: key}
}

func isNumeric(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}

type noRows struct{}

func (noRows) String() string { return "<no rows>" }

// NoRows is returned by FetchColumn and Pluck when the result set has no
// further rows. It is a value, not an error.
var NoRows any = noRows{}
