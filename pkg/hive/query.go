package hive

import (
	"fmt"
	"sort"
	"strings"
)

func generateDropTableSQL(dbName, tableName string, ignoreNotExists, purge bool) string {
	ifExists := ""
	if ignoreNotExists {
		ifExists = "IF EXISTS "
	}
	purgeStr := ""
	if purge {
		purgeStr = " PURGE"
	}
	return fmt.Sprintf("DROP TABLE %s%s%s", ifExists, qualifiedName(dbName, tableName), purgeStr)
}

// generateCreateTableSQL returns a CREATE statement for params. If
// params.External is set, an external Hive table is created.
func generateCreateTableSQL(params TableParameters, ignoreExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if params.External {
		b.WriteString("EXTERNAL ")
	}
	b.WriteString("TABLE ")
	if ignoreExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(qualifiedName(params.Database, params.Name))
	fmt.Fprintf(&b, " (%s)", fmtColumnText(params.Columns))
	if params.SerdeFormat != "" {
		fmt.Fprintf(&b, " ROW FORMAT SERDE '%s'", params.SerdeFormat)
		if len(params.SerdeProperties) != 0 {
			fmt.Fprintf(&b, " WITH SERDEPROPERTIES (%s)", fmtProps(params.SerdeProperties))
		}
	}
	if params.FileFormat != "" {
		fmt.Fprintf(&b, " STORED AS %s", params.FileFormat)
	}
	if params.Location != "" {
		fmt.Fprintf(&b, " LOCATION '%s'", params.Location)
	}
	if len(params.TableProperties) != 0 {
		fmt.Fprintf(&b, " TBLPROPERTIES (%s)", fmtProps(params.TableProperties))
	}
	return b.String()
}

func qualifiedName(dbName, name string) string {
	if dbName == "" {
		return quoteName(name)
	}
	return quoteName(dbName) + "." + quoteName(name)
}

func quoteName(name string) string {
	return "`" + strings.Replace(name, "`", "``", -1) + "`"
}

// fmtColumnText returns a Hive CREATE column string from a slice of name/type pairs. For example, "`columnName` string".
func fmtColumnText(columns []Column) string {
	c := make([]string, len(columns))
	for i, col := range columns {
		c[i] = fmt.Sprintf("`%s` %s", col.Name, col.Type)
	}
	return strings.Join(c, ", ")
}

// fmtProps returns a sorted, quoted key/value list for SERDEPROPERTIES and TBLPROPERTIES.
func fmtProps(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("'%s' = '%s'", escapeString(k), escapeString(props[k]))
	}
	return strings.Join(pairs, ", ")
}

func escapeString(s string) string {
	s = strings.Replace(s, `\`, `\\`, -1)
	return strings.Replace(s, "'", `\'`, -1)
}
