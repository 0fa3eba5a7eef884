package presto

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kube-reporting/billing-ingest/pkg/db"
)

const (
	// TimestampFormat is the time format string used to produce Presto timestamps.
	TimestampFormat = "2006-01-02 15:04:05.000"
	// DateFormat is the time format string used to produce Presto dates.
	DateFormat = "2006-01-02"
)

type Row map[string]interface{}

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func DeleteFrom(ctx context.Context, execer Execer, tableName, whereClause string) error {
	query := fmt.Sprintf("DELETE FROM %s", tableName)
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	return execer.Exec(ctx, query)
}

func InsertInto(ctx context.Context, execer Execer, tableName, query string) error {
	return execer.Exec(ctx, FormatInsertQuery(tableName, query))
}

func CreateSchema(ctx context.Context, execer Execer, catalog, schema string) error {
	return execer.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s.%s", QuoteIdentifier(catalog), QuoteIdentifier(schema)))
}

func CreateTable(ctx context.Context, execer Execer, catalog, schema, tableName string, columns []Column, ignoreExists bool) error {
	return execer.Exec(ctx, generateCreateTableSQL(catalog, schema, tableName, columns, ignoreExists))
}

// CreateTransactionalTable creates an ORC table with Hive ACID enabled.
// Row level DELETE, UPDATE and MERGE are rejected on other Hive tables.
func CreateTransactionalTable(ctx context.Context, execer Execer, catalog, schema, tableName string, columns []Column, ignoreExists bool) error {
	return execer.Exec(ctx, generateCreateTableSQL(catalog, schema, tableName, columns, ignoreExists)+" "+transactionalTableProperties)
}

func CreateTableAs(ctx context.Context, execer Execer, catalog, schema, tableName string, ignoreExists bool, query string) error {
	return execer.Exec(ctx, generateCreateTableAsSQL(catalog, schema, tableName, ignoreExists, query))
}

func DropTable(ctx context.Context, execer Execer, catalog, schema, tableName string, ignoreNotExists bool) error {
	ifExists := ""
	if ignoreNotExists {
		ifExists = "IF EXISTS "
	}
	table := FullyQualifiedTableName(catalog, schema, tableName)
	return execer.Exec(ctx, fmt.Sprintf("DROP TABLE %s%s", ifExists, table))
}

// QueryMetadata executes a "DESCRIBE" Presto query against an existing, fully-qualified
// table name to determine that table's column information.
func QueryMetadata(ctx context.Context, queryer Queryer, catalog, schema, tableName string) ([]Column, error) {
	rows, err := queryer.Query(ctx, fmt.Sprintf("DESCRIBE %s", FullyQualifiedTableName(catalog, schema, tableName)))
	if err != nil {
		return nil, fmt.Errorf("failed to query the %s Presto table's metadata: %v", tableName, err)
	}

	var cols []Column
	for _, row := range rows {
		colName, ok := row["Column"].(string)
		if !ok {
			return nil, fmt.Errorf("failed to convert the Presto column name to a string")
		}
		colType, ok := row["Type"].(string)
		if !ok {
			return nil, fmt.Errorf("failed to convert the Presto column type to a string")
		}
		cols = append(cols, Column{Name: colName, Type: colType})
	}
	return cols, nil
}

// CountRows returns the result of a SELECT count(*) over tableName.
func CountRows(ctx context.Context, queryer Queryer, tableName, whereClause string) (int64, error) {
	query := fmt.Sprintf("SELECT count(*) AS total FROM %s", tableName)
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	rows, err := queryer.Query(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, fmt.Errorf("expected a single row counting %s, got %d", tableName, len(rows))
	}
	switch v := rows[0]["total"].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("unexpected count type %T for %s", v, tableName)
	}
}

// FullyQualifiedTableName quotes every part, connector ids may contain dashes.
func FullyQualifiedTableName(catalog, schema, tableName string) string {
	return QuoteIdentifier(catalog) + "." + QuoteIdentifier(schema) + "." + QuoteIdentifier(tableName)
}

func FormatInsertQuery(target, query string) string {
	return fmt.Sprintf("INSERT INTO %s %s", target, query)
}

func GenerateQuotedColumnsListSQL(columns []Column) string {
	var columnNames []string
	for _, col := range columns {
		columnNames = append(columnNames, QuoteIdentifier(col.Name))
	}
	return strings.Join(columnNames, ",")
}

// QuoteIdentifier double quotes an identifier, doubling any embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

// StringLiteral single quotes s, doubling any embedded quotes.
func StringLiteral(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}

func Timestamp(date time.Time) string {
	return date.Format(TimestampFormat)
}

func Date(date time.Time) string {
	return date.Format(DateFormat)
}

func generateColumnDefinitionListSQL(columns []Column) string {
	c := make([]string, len(columns))
	for i, col := range columns {
		c[i] = fmt.Sprintf("%s %s", QuoteIdentifier(col.Name), col.Type)
	}
	return strings.Join(c, ", ")
}

const transactionalTableProperties = "WITH (format = 'ORC', transactional = true)"

func generateCreateTableSQL(catalog, schema, tableName string, columns []Column, ignoreExists bool) string {
	ifNotExists := ""
	if ignoreExists {
		ifNotExists = "IF NOT EXISTS "
	}
	table := FullyQualifiedTableName(catalog, schema, tableName)
	return fmt.Sprintf("CREATE TABLE %s%s (%s)", ifNotExists, table, generateColumnDefinitionListSQL(columns))
}

func generateCreateTableAsSQL(catalog, schema, tableName string, ignoreExists bool, query string) string {
	ifNotExists := ""
	if ignoreExists {
		ifNotExists = "IF NOT EXISTS "
	}
	table := FullyQualifiedTableName(catalog, schema, tableName)
	return fmt.Sprintf("CREATE TABLE %s%s AS %s", ifNotExists, table, query)
}

// ExecuteSelect performs the query and returns every row keyed by column name.
func ExecuteSelect(ctx context.Context, queryer db.Queryer, query string) ([]Row, error) {
	rows, err := queryer.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []Row
	for rows.Next() {
		// Create a slice of interface{}'s to represent each column,
		// and a second slice to contain pointers to each item in the columns slice.
		columns := make([]interface{}, len(cols))
		columnPointers := make([]interface{}, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := rows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		m := make(Row, len(cols))
		for i, colName := range cols {
			val := columnPointers[i].(*interface{})
			m[colName] = *val
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("presto SQL error: %v", err)
	}

	return results, nil
}

// ExecuteQuery submits a statement and drains its result set.
func ExecuteQuery(ctx context.Context, queryer db.Queryer, query string) error {
	rows, err := queryer.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	// Must call rows.Next() in order for errors to be populated correctly
	// because Query() only submits the query, and doesn't handle
	// success/failure. Next() is the method which inspects the submitted
	// queries status and causes errors to get stored in the sql.Rows object.
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("presto SQL error: %v", err)
	}
	return nil
}
