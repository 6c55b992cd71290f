package warehouse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RenderResult renders query results as text for the model to read.
// Rows become a JSON array of objects with keys in column order, so the
// model sees fields in the order the query selected them. A note is
// appended when the row cap cut the result short.
func RenderResult(result *QueryResult) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range result.Rows {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteByte('{')
		for j, col := range result.Columns {
			if j > 0 {
				buf.WriteString(", ")
			}
			name, _ := json.Marshal(col.Name)
			buf.Write(name)
			buf.WriteString(": ")
			buf.Write(renderValue(row[col.Name]))
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	if result.Truncated {
		fmt.Fprintf(&buf, "\n(result truncated to %d rows)", result.RowCount)
	}
	return buf.String()
}

// renderValue marshals a single cell. Values the encoder rejects are
// stringified instead, so one odd driver type cannot sink the whole result.
func renderValue(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprintf("%v", v))
	}
	return data
}
