package rewrite

import (
	"github.com/kube-reporting/billing-ingest/pkg/billing/columns"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

var preAggregatedColumns = []presto.Column{
	{Name: "startTime", Type: "timestamp"},
	{Name: "azureResourceRate", Type: "double"},
	{Name: "cost", Type: "double"},
	{Name: "azureServiceName", Type: "varchar"},
	{Name: "region", Type: "varchar"},
	{Name: "azureSubscriptionGuid", Type: "varchar"},
	{Name: "cloudProvider", Type: "varchar"},
	{Name: "azureTenantId", Type: "varchar"},
}

var unifiedColumns = append([]presto.Column{
	{Name: "product", Type: "varchar"},
	{Name: "startTime", Type: "timestamp"},
	{Name: "cost", Type: "double"},
	{Name: "azureMeterCategory", Type: "varchar"},
	{Name: "azureMeterSubcategory", Type: "varchar"},
	{Name: "azureMeterId", Type: "varchar"},
	{Name: "azureMeterName", Type: "varchar"},
	{Name: "azureInstanceId", Type: "varchar"},
	{Name: "region", Type: "varchar"},
	{Name: "azureResourceGroup", Type: "varchar"},
	{Name: "azureSubscriptionGuid", Type: "varchar"},
	{Name: "azureServiceName", Type: "varchar"},
	{Name: "cloudProvider", Type: "varchar"},
	{Name: "labels", Type: "map(varchar, varchar)"},
	{Name: "azureResource", Type: "varchar"},
	{Name: "azureVMProviderId", Type: "varchar"},
	{Name: "azureTenantId", Type: "varchar"},
	{Name: "azureResourceRate", Type: "double"},
}, optionalUnifiedColumns()...)

var costAggregatedColumns = []presto.Column{
	{Name: "day", Type: "timestamp"},
	{Name: "cost", Type: "double"},
	{Name: "cloudProvider", Type: "varchar"},
	{Name: "accountId", Type: "varchar"},
}

func optionalUnifiedColumns() []presto.Column {
	out := make([]presto.Column, len(columns.OptionalColumns))
	for i, name := range columns.OptionalColumns {
		out[i] = presto.Column{Name: "azure" + name, Type: "varchar"}
	}
	return out
}
