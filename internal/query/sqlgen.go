package query

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/ragpipe/ragpipe/internal/ai"
)

var sqlFenceRe = regexp.MustCompile("(?is)```sql\\s+(.*?)```")

// generateSQL asks the LLM to produce one SQL query for a natural language
// question against the given schema. The model is instructed to return the
// statement inside a ```sql fence, and we only trust what's inside it.
func generateSQL(ctx context.Context, llm ai.LLM, schema, question string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a SQL expert. "+
			"Given the following database schema, generate ONE valid SQL query "+
			"to answer the user's question.\n\n"+
			"Schema:\n%s\n\n"+
			"Question: %s\n\n"+
			"Return only the SQL inside ```sql ... ```.",
		schema, question)

	reply, err := llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("sql generation failed: %w", err)
	}

	m := sqlFenceRe.FindStringSubmatch(reply)
	if m == nil {
		return "", fmt.Errorf("model reply contained no sql block")
	}
	stmt := strings.TrimSpace(m[1])
	if stmt == "" {
		return "", fmt.Errorf("model reply contained an empty sql block")
	}

	// Generated SQL runs against the live database; only reads are allowed.
	if !strings.HasPrefix(strings.ToUpper(stmt), "SELECT") {
		return "", fmt.Errorf("generated statement is not a SELECT: %q", stmt)
	}
	return stmt, nil
}

// maxSQLResultRows bounds how many rows feed the answer prompt.
const maxSQLResultRows = 20

// executeSQL runs a generated query and formats its result set as a context
// document for the answering prompt.
func executeSQL(ctx context.Context, db *sql.DB, query string) (string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("sql execution failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var rendered []string
	for rows.Next() {
		if len(rendered) >= maxSQLResultRows {
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		fields := make([]string, len(cols))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			fields[i] = fmt.Sprintf("%v", v)
		}
		rendered = append(rendered, "("+strings.Join(fields, ", ")+")")
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("SQL Results:\nColumns: [%s]\nRows: [%s]",
		strings.Join(cols, ", "), strings.Join(rendered, ", ")), nil
}
