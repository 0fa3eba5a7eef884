// Package columns resolves the canonical billing fields against the
// columns an export actually contains.
package columns

import (
	"context"
	"fmt"
	"strings"

	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

// Field is a canonical column and the vendor names that may carry it, in
// priority order.
type Field struct {
	Name       string
	Candidates []string
}

const (
	StartTime        = "startTime"
	ResourceRate     = "azureResourceRate"
	Cost             = "cost"
	SubscriptionGUID = "azureSubscriptionGuid"
	InstanceID       = "azureInstanceId"
	ResourceGroup    = "azureResourceGroup"
)

// Fields lists every required canonical field. The first candidate present
// in an export wins.
var Fields = []Field{
	{Name: StartTime, Candidates: []string{"date", "usagedatetime"}},
	{Name: ResourceRate, Candidates: []string{"effectiveprice", "resourcerate"}},
	{Name: Cost, Candidates: []string{"costinbillingcurrency", "pretaxcost", "cost"}},
	{Name: SubscriptionGUID, Candidates: []string{"subscriptionid", "subscriptionguid"}},
	{Name: InstanceID, Candidates: []string{"resourceid", "instanceid"}},
	{Name: ResourceGroup, Candidates: []string{"resourcegroup", "resourcegroupname"}},
}

// OptionalColumns are descriptive export columns copied into the unified
// table as azure<Name> when present.
var OptionalColumns = []string{
	"AccountName",
	"Frequency",
	"PublisherType",
	"ServiceTier",
	"ResourceType",
	"SubscriptionName",
	"ReservationId",
	"ReservationName",
	"PublisherName",
	"CustomerName",
	"BillingCurrency",
}

// SchemaError reports a canonical field none of whose candidates exist.
type SchemaError struct {
	Field      string
	Candidates []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("no mapping found for %s column, expected one of %s", e.Field, strings.Join(e.Candidates, ", "))
}

// Mapping is the resolved canonical field to export column correspondence.
type Mapping struct {
	StartTime        string `json:"startTime"`
	ResourceRate     string `json:"azureResourceRate"`
	Cost             string `json:"cost"`
	SubscriptionGUID string `json:"azureSubscriptionGuid"`
	InstanceID       string `json:"azureInstanceId"`
	ResourceGroup    string `json:"azureResourceGroup"`

	// Optional holds the present OptionalColumns, in OptionalColumns order.
	Optional []string `json:"-"`
}

func (m *Mapping) set(field, column string) {
	switch field {
	case StartTime:
		m.StartTime = column
	case ResourceRate:
		m.ResourceRate = column
	case Cost:
		m.Cost = column
	case SubscriptionGUID:
		m.SubscriptionGUID = column
	case InstanceID:
		m.InstanceID = column
	case ResourceGroup:
		m.ResourceGroup = column
	}
}

// Resolve maps every field in Fields to a present column. present is
// matched case-insensitively.
func Resolve(present []string) (Mapping, error) {
	set := make(map[string]struct{}, len(present))
	for _, name := range present {
		set[strings.ToLower(name)] = struct{}{}
	}

	var mapping Mapping
	for _, field := range Fields {
		column, ok := firstPresent(set, field.Candidates)
		if !ok {
			return Mapping{}, &SchemaError{Field: field.Name, Candidates: field.Candidates}
		}
		mapping.set(field.Name, column)
	}
	for _, name := range OptionalColumns {
		if _, ok := set[strings.ToLower(name)]; ok {
			mapping.Optional = append(mapping.Optional, name)
		}
	}
	return mapping, nil
}

func firstPresent(set map[string]struct{}, candidates []string) (string, bool) {
	for _, c := range candidates {
		if _, ok := set[c]; ok {
			return c, true
		}
	}
	return "", false
}

// FetchPresent lists the lower-cased column names of a table from the
// catalog's information_schema.
func FetchPresent(ctx context.Context, queryer presto.Queryer, catalog, schema, table string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT column_name FROM %s.information_schema.columns WHERE table_schema = %s AND table_name = %s",
		catalog,
		presto.StringLiteral(strings.ToLower(schema)),
		presto.StringLiteral(strings.ToLower(table)),
	)
	rows, err := queryer.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve available columns of %s.%s: %v", schema, table, err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		name, ok := row["column_name"].(string)
		if !ok {
			return nil, fmt.Errorf("failed to convert column_name %v to a string", row["column_name"])
		}
		names = append(names, strings.ToLower(name))
	}
	return names, nil
}
