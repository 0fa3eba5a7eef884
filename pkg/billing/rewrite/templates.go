package rewrite

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"

	"github.com/kube-reporting/billing-ingest/pkg/billing/columns"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

const usDatePattern = `^(0[1-9]|1[0-2])/(0[1-9]|[12][0-9]|3[01])/\d{4}$`

// queryTemplates holds every derived table statement. Raw export columns
// are referenced by their lower-cased loaded names.
const queryTemplates = `
{|- define "startTime" -|}
IF(regexp_like(CAST({| ident . |} AS varchar), {| literal usDatePattern |}), date_parse(CAST({| ident . |} AS varchar), '%m/%d/%Y'), CAST({| ident . |} AS timestamp))
{|- end -|}

{|- define "windowAndProvider" -|}
CAST({| .TimeColumn |} AS date) BETWEEN DATE {| literal (prestoDate .Start) |} AND DATE {| literal (prestoDate .End) |}
AND cloudProvider = {| literal .Provider |}
{|- end -|}

{|- define "preAggregatedDelete" -|}
DELETE FROM {| .Target |}
WHERE {| template "windowAndProvider" . |}
AND azureSubscriptionGuid IN ({| literalList .Subscriptions |})
{|- end -|}

{|- define "preAggregatedInsert" -|}
INSERT INTO {| .Target |} (startTime, azureResourceRate, cost, azureServiceName, region, azureSubscriptionGuid, cloudProvider, azureTenantId)
SELECT {| template "startTime" .Mapping.StartTime |} AS startTime,
min(TRY_CAST({| ident .Mapping.ResourceRate |} AS double)) AS azureResourceRate,
sum(TRY_CAST({| ident .Mapping.Cost |} AS double)) AS cost,
"metercategory" AS azureServiceName,
"resourcelocation" AS region,
{| ident .Mapping.SubscriptionGUID |} AS azureSubscriptionGuid,
{| literal .Provider |} AS cloudProvider,
{| literal .TenantID |} AS azureTenantId
FROM {| .Source |}
WHERE {| ident .Mapping.SubscriptionGUID |} IN ({| literalList .Subscriptions |})
GROUP BY 1, 4, 5, 6
{|- end -|}

{|- define "unifiedDelete" -|}
DELETE FROM {| .Target |}
WHERE {| template "windowAndProvider" . |}
AND azureSubscriptionGuid IN ({| literalList .Subscriptions |})
{|- end -|}

{|- define "unifiedInsert" -|}
{|- $instance := ident .Mapping.InstanceID -|}
INSERT INTO {| .Target |} (product, startTime, cost, azureMeterCategory, azureMeterSubcategory, azureMeterId, azureMeterName, azureInstanceId, region, azureResourceGroup, azureSubscriptionGuid, azureServiceName, cloudProvider, labels, azureResource, azureVMProviderId, azureTenantId, azureResourceRate
{|- range .Mapping.Optional |}, azure{| . |}{|- end |})
SELECT "metercategory" AS product,
{| template "startTime" .Mapping.StartTime |} AS startTime,
TRY_CAST({| ident .Mapping.Cost |} AS double) * {| number .MarkupFactor |} AS cost,
"metercategory" AS azureMeterCategory,
"metersubcategory" AS azureMeterSubcategory,
"meterid" AS azureMeterId,
"metername" AS azureMeterName,
{| $instance |} AS azureInstanceId,
"resourcelocation" AS region,
{| ident .Mapping.ResourceGroup |} AS azureResourceGroup,
{| ident .Mapping.SubscriptionGUID |} AS azureSubscriptionGuid,
"metercategory" AS azureServiceName,
{| literal .Provider |} AS cloudProvider,
TRY(CAST(json_parse(IF(trim("tags") LIKE '{%', trim("tags"), concat('{', trim("tags"), '}'))) AS map(varchar, varchar))) AS labels,
regexp_extract({| $instance |}, '(?i)^.*providers/(.*)$', 1) AS azureResource,
CASE
WHEN regexp_like({| $instance |}, 'virtualMachineScaleSets') THEN lower(concat('azure://', {| $instance |}, '/virtualMachines/', regexp_extract(json_extract_scalar("additionalinfo", '$.VMName'), '_([0-9]+)$', 1)))
WHEN regexp_like({| $instance |}, 'virtualMachines') THEN lower(concat('azure://', {| $instance |}))
ELSE NULL
END AS azureVMProviderId,
{| literal .TenantID |} AS azureTenantId,
TRY_CAST({| ident .Mapping.ResourceRate |} AS double) AS azureResourceRate
{|- range .Mapping.Optional |},
{| ident (lower .) |} AS azure{| . |}
{|- end |}
FROM {| .Source |}
WHERE {| ident .Mapping.SubscriptionGUID |} IN ({| literalList .Subscriptions |})
{|- end -|}

{|- define "costAggregatedDelete" -|}
DELETE FROM {| .Target |}
WHERE {| template "windowAndProvider" . |}
AND accountId = {| literal .AccountID |}
{|- end -|}

{|- define "costAggregatedInsert" -|}
INSERT INTO {| .Target |} (day, cost, cloudProvider, accountId)
SELECT date_trunc('day', startTime) AS day, sum(cost) AS cost, {| literal .Provider |} AS cloudProvider, {| literal .AccountID |} AS accountId
FROM {| .Source |}
WHERE CAST(startTime AS date) >= DATE {| literal (prestoDate .Start) |} AND cloudProvider = {| literal .Provider |}
GROUP BY 1
{|- end -|}

{|- define "distinctSubscriptions" -|}
SELECT DISTINCT {| ident .Mapping.SubscriptionGUID |} AS subscriptionid FROM {| .Source |}
{|- end -|}
`

var queries = template.Must(newQueryTemplate(queryTemplates))

// queryContext is the data every statement template renders against.
type queryContext struct {
	Target        string
	Source        string
	TimeColumn    string
	Mapping       columns.Mapping
	Subscriptions []string
	Start         time.Time
	End           time.Time
	Provider      string
	TenantID      string
	AccountID     string
	MarkupFactor  float64
}

func newQueryTemplate(queryTemplate string) (*template.Template, error) {
	var templateFuncMap = template.FuncMap{
		"ident":         presto.QuoteIdentifier,
		"literal":       presto.StringLiteral,
		"literalList":   literalList,
		"prestoDate":    presto.Date,
		"number":        formatNumber,
		"usDatePattern": func() string { return usDatePattern },
	}

	tmpl, err := template.New("derived-table-queries").Delims("{|", "|}").Funcs(sprig.TxtFuncMap()).Funcs(templateFuncMap).Parse(queryTemplate)
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

func literalList(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = presto.StringLiteral(v)
	}
	return strings.Join(out, ", ")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
