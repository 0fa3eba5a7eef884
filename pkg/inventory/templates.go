package inventory

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"

	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

const (
	lastUpdatedAtColumn = "lastUpdatedAt"
	deletedStatus       = "DELETED"
)

const mergeSweepTemplates = `
{|- define "shards" -|}
{|- $columns := .Kind.InsertColumns -|}
{|- range $i, $shard := .Shards -|}
{|- if $i |}
UNION ALL
{| end -|}
SELECT {| idents $columns | join ", " |} FROM {| $shard |}
{|- end -|}
{|- end -|}

{|- define "merge" -|}
MERGE INTO {| .Target |} T
USING (
{| template "shards" . |}
) S
ON (T.id = S.id)
WHEN MATCHED THEN
UPDATE SET {| range .Kind.UpdateColumns |}{| ident . |} = S.{| ident . |}, {| end |}{| ident .LastUpdatedAtColumn |} = TIMESTAMP {| literal (prestoTimestamp .Now) |}
WHEN NOT MATCHED THEN
INSERT ({| idents .Kind.InsertColumns | join ", " |}, {| ident .LastUpdatedAtColumn |})
VALUES ({| range .Kind.InsertColumns |}S.{| ident . |}, {| end |}TIMESTAMP {| literal (prestoTimestamp .Now) |})
{|- end -|}

{|- define "sweep" -|}
UPDATE {| .Target |}
SET status = {| literal .DeletedStatus |}
WHERE status <> {| literal .DeletedStatus |}
AND {| ident .LastUpdatedAtColumn |} < TIMESTAMP {| literal (prestoTimestamp .StaleBefore) |}
{|- end -|}
`

var queries = template.Must(newQueryTemplate(mergeSweepTemplates))

type queryContext struct {
	Kind                Kind
	Target              string
	Shards              []string
	Now                 time.Time
	StaleBefore         time.Time
	LastUpdatedAtColumn string
	DeletedStatus       string
}

func newQueryTemplate(queryTemplate string) (*template.Template, error) {
	var templateFuncMap = template.FuncMap{
		"ident":           presto.QuoteIdentifier,
		"idents":          quoteIdentifiers,
		"literal":         presto.StringLiteral,
		"prestoTimestamp": presto.Timestamp,
	}

	tmpl, err := template.New("inventory-queries").Delims("{|", "|}").Funcs(sprig.TxtFuncMap()).Funcs(templateFuncMap).Parse(queryTemplate)
	if err != nil {
		return nil, fmt.Errorf("error parsing query: %v", err)
	}
	return tmpl, nil
}

func renderQuery(name string, tmplCtx *queryContext) (string, error) {
	var buf bytes.Buffer
	if err := queries.ExecuteTemplate(&buf, name, tmplCtx); err != nil {
		return "", fmt.Errorf("error executing template %s: %v", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func quoteIdentifiers(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = presto.QuoteIdentifier(name)
	}
	return out
}
