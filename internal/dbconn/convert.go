package dbconn

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/vibesql/vibedb/internal/query"
)

// convert coerces value to the Go type database/sql should see for typ.
func convert(value any, typ query.ParamType) (any, error) {
	switch typ {
	case query.ParamNull:
		return nil, nil
	case query.ParamBool:
		return toBool(value)
	case query.ParamInt:
		return toInt64(value)
	case query.ParamStr:
		return toString(value), nil
	default:
		return nil, fmt.Errorf("%w: unknown bind type %s", ErrBindType, typ)
	}
}

func toBool(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Bool {
		return nil, fmt.Errorf("%w: cannot bind %T as BOOL", ErrBindType, value)
	}
	return rv.Bool(), nil
}

func toInt64(value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows INT", ErrBindType, u)
		}
		return int64(u), nil
	default:
		return nil, fmt.Errorf("%w: cannot bind %T as INT", ErrBindType, value)
	}
}

// toString implements the STR fallback. Values database/sql already knows how
// to send are passed through so they are not mangled by formatting.
func toString(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, []byte, time.Time, driver.Valuer:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return toString(rv.Elem().Interface())
	}
	return fmt.Sprint(value)
}
