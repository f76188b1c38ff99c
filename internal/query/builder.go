package query

import "strings"

// BuildInsert renders an INSERT with one ":column" placeholder per value,
// in the order of values.
func BuildInsert(table string, values Params) (string, error) {
	if len(values) == 0 {
		return "", ErrNoValues
	}

	columns := make([]string, len(values))
	placeholders := make([]string, len(values))
	for i, v := range values {
		columns[i] = v.Key
		placeholders[i] = ":" + v.Key
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(placeholders, ", "))
	b.WriteString(")")
	return b.String(), nil
}

// BuildUpdate renders an UPDATE setting each column to its ":column"
// placeholder. where is appended verbatim and must carry its own WHERE.
func BuildUpdate(table string, values Params, where string) (string, error) {
	if len(values) == 0 {
		return "", ErrNoValues
	}

	sets := make([]string, len(values))
	for i, v := range values {
		sets[i] = v.Key + " = :" + v.Key
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	b.WriteString(strings.Join(sets, ", "))
	if where != "" {
		b.WriteString(" ")
		b.WriteString(where)
	}
	return b.String(), nil
}

// columnParams keys every value by its ":column" placeholder.
func columnParams(values Params) Params {
	p := make(Params, len(values))
	for i, v := range values {
		p[i] = Param{Key: ":" + v.Key, Value: v.Value}
	}
	return p
}
