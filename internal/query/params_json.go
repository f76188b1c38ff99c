package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a JSON array into positional params and a JSON
// object into named params, keeping the object's key order. Integral numbers
// decode to int64 so they bind as INT.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch tok {
	case nil:
		*p = nil
		return nil
	case json.Delim('['):
		var values []any
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		*p = Positional(values...)
	case json.Delim('{'):
		out := Params{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("query: params: unexpected key %v", keyTok)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return err
			}
			out = out.Set(key, v)
		}
		*p = out
	default:
		return fmt.Errorf("query: params must be a JSON array or object, got %v", tok)
	}

	_, err = dec.Token()
	return err
}

// MarshalJSON encodes purely positional params as an array and anything else
// as an object in key order.
func (p Params) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}

	positional := true
	for i, param := range p {
		if param.Key != fmt.Sprint(i) {
			positional = false
			break
		}
	}

	var buf bytes.Buffer
	if positional {
		buf.WriteByte('[')
	} else {
		buf.WriteByte('{')
	}
	for i, param := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		if !positional {
			k, err := json.Marshal(param.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
		}
		v, err := json.Marshal(param.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	if positional {
		buf.WriteByte(']')
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	}
	return v, nil
}
