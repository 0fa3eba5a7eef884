package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodFolder(t *testing.T) {
	tests := map[string]struct {
		name  string
		valid bool
	}{
		"a calendar month":                 {name: "20210101-20210131", valid: true},
		"a range crossing months":          {name: "20210215-20210314", valid: true},
		"end equal to start":               {name: "20210101-20210101"},
		"end before start":                 {name: "20210131-20210101"},
		"seven digit start":                {name: "2021011-20210131"},
		"nine digit end":                   {name: "20210101-202101311"},
		"invalid calendar date":            {name: "20210230-20210331"},
		"month thirteen":                   {name: "20211301-20211331"},
		"non numeric":                      {name: "2021010a-20210131"},
		"signed digits are not dates":      {name: "+2021010-20210131"},
		"missing dash":                     {name: "2021010120210131"},
		"three parts":                      {name: "20210101-20210131-20210201"},
		"arbitrary partition folder names": {name: "part-0001"},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			_, err := ParsePeriodFolder(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
			assert.Equal(t, tt.valid, IsPeriodFolder("acct/conn/"+tt.name))
		})
	}
}

func TestNewBillingPeriodKey(t *testing.T) {
	tests := map[string]struct {
		event       BillingEvent
		expected    BillingPeriodKey
		expectedErr string
	}{
		"three segments have no tenant": {
			event: BillingEvent{AccountID: "acct", Path: "acct/conn/20210101-20210131"},
			expected: BillingPeriodKey{
				AccountID: "acct", ConnectorID: "conn", ReportYear: "2021", ReportMonth: "01",
				Prefix: "acct/conn/20210101-20210131",
			},
		},
		"four segments have no tenant": {
			event: BillingEvent{AccountID: "acct", Path: "acct/conn/report/20210201-20210228/"},
			expected: BillingPeriodKey{
				AccountID: "acct", ConnectorID: "conn", ReportYear: "2021", ReportMonth: "02",
				Prefix: "acct/conn/report/20210201-20210228",
			},
		},
		"an event tenant fills in for tenantless paths": {
			event: BillingEvent{AccountID: "acct", Path: "acct/conn/20210101-20210131", TenantID: "t1"},
			expected: BillingPeriodKey{
				AccountID: "acct", ConnectorID: "conn", TenantID: "t1", ReportYear: "2021", ReportMonth: "01",
				Prefix: "acct/conn/20210101-20210131",
			},
		},
		"five segments carry the tenant at position two": {
			event: BillingEvent{AccountID: "acct", Path: "acct/conn/tenant/report/20210301-20210331", TenantID: "ignored"},
			expected: BillingPeriodKey{
				AccountID: "acct", ConnectorID: "conn", TenantID: "tenant", ReportYear: "2021", ReportMonth: "03",
				Prefix: "acct/conn/tenant/report/20210301-20210331",
			},
		},
		"seven segments are partitioned exports": {
			event: BillingEvent{AccountID: "acct", Path: "acct/conn/tenant/HarnessExport/20220501-20220531/run-1/part_0.csv"},
			expected: BillingPeriodKey{
				AccountID: "acct", ConnectorID: "conn", TenantID: "tenant", ReportYear: "2022", ReportMonth: "05",
				Prefix: "acct/conn/tenant/HarnessExport/20220501-20220531", IsPartitionedCSV: true,
			},
		},
		"six segments are rejected": {
			event:       BillingEvent{AccountID: "acct", Path: "a/b/c/d/e/20210101-20210131"},
			expectedErr: `invalid path format "a/b/c/d/e/20210101-20210131": unsupported number of segments 6`,
		},
		"two segments are rejected": {
			event:       BillingEvent{AccountID: "acct", Path: "a/20210101-20210131"},
			expectedErr: `invalid path format "a/20210101-20210131": unsupported number of segments 2`,
		},
		"an invalid period folder is rejected": {
			event:       BillingEvent{AccountID: "acct", Path: "acct/conn/20210131-20210101"},
			expectedErr: `invalid path format "acct/conn/20210131-20210101": period folder "20210131-20210101" ends before it starts`,
		},
		"empty segments are rejected": {
			event:       BillingEvent{AccountID: "acct", Path: "acct//20210101-20210131"},
			expectedErr: `invalid path format "acct//20210101-20210131": empty path segment`,
		},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			key, err := NewBillingPeriodKey(tt.event)
			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
				var ferr *FormatError
				assert.ErrorAs(t, err, &ferr)
				return
			}
			require.NoError(t, err)
			key.Period = PeriodFolder{}
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestNaming(t *testing.T) {
	key := BillingPeriodKey{AccountID: "UVxMDMhNQxOCvroqqImWdQ", ConnectorID: "myqO-niJS46aVm3b646SKA", ReportYear: "2021", ReportMonth: "02"}
	assert.Equal(t, "BillingReport_uvxmdmhnqxocvroqqimwdq", key.Dataset())
	assert.Equal(t, "azureBilling_2021_02_myqO-niJS46aVm3b646SKA", key.RawTable())
	assert.Equal(t, "BillingReport_kmpy_mu_sim", DatasetName("kmpy-MU.Sim"))

	first, last := key.MonthRange()
	assert.Equal(t, time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC), last)

	_, last = MonthRange(2024, 2)
	assert.Equal(t, 29, last.Day())
	_, last = MonthRange(2021, 12)
	assert.Equal(t, time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), last)
}

func TestMarkupFactor(t *testing.T) {
	table := StaticMarkups{"UVxMDMhNQxOCvroqqImWdQ": 5.04}

	assert.Equal(t, 1.0, MarkupFactor(0, nil, "acct"))
	assert.Equal(t, 1.0, MarkupFactor(0, table, "acct"))
	assert.InDelta(t, 1.05, MarkupFactor(5, nil, "acct"), 1e-12)
	assert.InDelta(t, 1.05, MarkupFactor(5, table, "UVxMDMhNQxOCvroqqImWdQ"), 1e-12)
	assert.InDelta(t, 1.0504, MarkupFactor(0, table, "UVxMDMhNQxOCvroqqImWdQ"), 1e-12)
}

func TestBillingEventValidate(t *testing.T) {
	assert.NoError(t, BillingEvent{Bucket: "b", Path: "p", AccountID: "a"}.Validate())
	assert.EqualError(t, BillingEvent{Path: "p", AccountID: "a"}.Validate(), "event is missing bucket")
	assert.EqualError(t, BillingEvent{Bucket: "b", AccountID: "a"}.Validate(), "event is missing path")
	assert.EqualError(t, BillingEvent{Bucket: "b", Path: "p"}.Validate(), "event is missing accountId")
}
