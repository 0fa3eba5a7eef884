package columns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/billing-ingest/pkg/presto"
	"github.com/kube-reporting/billing-ingest/pkg/presto/mock"
)

var eaColumns = []string{
	"AccountName", "SubscriptionId", "Date", "ResourceRate", "PreTaxCost", "ResourceId",
	"ResourceGroup", "ResourceLocation", "MeterCategory", "Tags",
}

func TestResolve(t *testing.T) {
	tests := map[string]struct {
		present     []string
		expected    Mapping
		expectedErr string
	}{
		"enterprise agreement export": {
			present: eaColumns,
			expected: Mapping{
				StartTime: "date", ResourceRate: "resourcerate", Cost: "pretaxcost",
				SubscriptionGUID: "subscriptionid", InstanceID: "resourceid", ResourceGroup: "resourcegroup",
				Optional: []string{"AccountName"},
			},
		},
		"customer agreement export": {
			present: []string{
				"billingCurrency", "subscriptionGuid", "usageDateTime", "effectivePrice",
				"costInBillingCurrency", "instanceId", "resourceGroupName", "customerName", "serviceTier",
			},
			expected: Mapping{
				StartTime: "usagedatetime", ResourceRate: "effectiveprice", Cost: "costinbillingcurrency",
				SubscriptionGUID: "subscriptionguid", InstanceID: "instanceid", ResourceGroup: "resourcegroupname",
				Optional: []string{"ServiceTier", "CustomerName", "BillingCurrency"},
			},
		},
		"earlier candidates win when several are present": {
			present: []string{
				"cost", "pretaxcost", "costinbillingcurrency", "usagedatetime", "date",
				"resourcerate", "effectiveprice", "subscriptionguid", "subscriptionid",
				"instanceid", "resourceid", "resourcegroupname", "resourcegroup",
			},
			expected: Mapping{
				StartTime: "date", ResourceRate: "effectiveprice", Cost: "costinbillingcurrency",
				SubscriptionGUID: "subscriptionid", InstanceID: "resourceid", ResourceGroup: "resourcegroup",
			},
		},
		"plain cost is the last fallback": {
			present: []string{"date", "resourcerate", "Cost", "subscriptionid", "resourceid", "resourcegroup"},
			expected: Mapping{
				StartTime: "date", ResourceRate: "resourcerate", Cost: "cost",
				SubscriptionGUID: "subscriptionid", InstanceID: "resourceid", ResourceGroup: "resourcegroup",
			},
		},
		"missing cost is a schema error": {
			present:     []string{"date", "resourcerate", "subscriptionid", "resourceid", "resourcegroup"},
			expectedErr: "no mapping found for cost column, expected one of costinbillingcurrency, pretaxcost, cost",
		},
		"missing start time is reported first": {
			present:     []string{"resourcerate"},
			expectedErr: "no mapping found for startTime column, expected one of date, usagedatetime",
		},
		"no columns": {
			expectedErr: "no mapping found for startTime column, expected one of date, usagedatetime",
		},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			mapping, err := Resolve(tt.present)
			if tt.expectedErr != "" {
				require.EqualError(t, err, tt.expectedErr)
				var schemaErr *SchemaError
				assert.True(t, errors.As(err, &schemaErr))
				assert.Equal(t, Mapping{}, mapping)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mapping)
		})
	}
}

func TestMappingJSON(t *testing.T) {
	mapping, err := Resolve(eaColumns)
	require.NoError(t, err)

	b, err := json.Marshal(mapping)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"startTime": "date",
		"azureResourceRate": "resourcerate",
		"cost": "pretaxcost",
		"azureSubscriptionGuid": "subscriptionid",
		"azureInstanceId": "resourceid",
		"azureResourceGroup": "resourcegroup"
	}`, string(b))
}

func TestFetchPresent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	queryer := mock.NewMockExecQueryer(ctrl)
	queryer.EXPECT().Query(ctx, "SELECT column_name FROM hive.information_schema.columns WHERE table_schema = 'billingreport_acct' AND table_name = 'azurebilling_2021_01_conn'").
		Return([]presto.Row{{"column_name": "Date"}, {"column_name": "pretaxcost"}}, nil)

	names, err := FetchPresent(ctx, queryer, "hive", "BillingReport_acct", "azureBilling_2021_01_conn")
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "pretaxcost"}, names)

	queryer.EXPECT().Query(ctx, gomock.Any()).Return(nil, errors.New("boom"))
	_, err = FetchPresent(ctx, queryer, "hive", "ds", "t")
	assert.EqualError(t, err, "failed to retrieve available columns of ds.t: boom")
}
