package loader

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

func TestDetectSchema(t *testing.T) {
	tests := map[string]struct {
		sample      string
		complete    bool
		expected    []presto.Column
		expectedErr string
	}{
		"header names are sanitized and deduplicated": {
			sample:   "\uFEFFDate,Cost,SubscriptionId,Cost,Meter Category,AdditionalInfo.VMName\n01/31/2021,1.5,abc,2,Compute,{}\n",
			complete: true,
			expected: []presto.Column{
				{Name: "date", Type: "varchar"},
				{Name: "cost", Type: "double"},
				{Name: "subscriptionid", Type: "varchar"},
				{Name: "cost1", Type: "double"},
				{Name: "meter_category", Type: "varchar"},
				{Name: "additionalinfo_vmname", Type: "varchar"},
			},
		},
		"empty values do not affect inference": {
			sample:   "Rate,Tags\n,\n0.25,\n1e-3,\"{\"\"env\"\": \"\"prod\"\"}\"\n",
			complete: true,
			expected: []presto.Column{
				{Name: "rate", Type: "double"},
				{Name: "tags", Type: "varchar"},
			},
		},
		"columns without values are varchar": {
			sample:   "A,B\n",
			complete: true,
			expected: []presto.Column{
				{Name: "a", Type: "varchar"},
				{Name: "b", Type: "varchar"},
			},
		},
		"unnamed and colliding headers get ordinals": {
			sample:   "A,,a\n",
			complete: true,
			expected: []presto.Column{
				{Name: "a", Type: "varchar"},
				{Name: "_c1", Type: "varchar"},
				{Name: "a1", Type: "varchar"},
			},
		},
		"a truncated sample drops its partial last line": {
			sample:   "Quantity\n1\n2\nab",
			expected: []presto.Column{{Name: "quantity", Type: "double"}},
		},
		"a complete sample keeps its last line": {
			sample:   "Quantity\n1\n2\nab",
			complete: true,
			expected: []presto.Column{{Name: "quantity", Type: "varchar"}},
		},
		"jagged rows are tolerated": {
			sample:   "A,B\n1\n2,3,4\n",
			complete: true,
			expected: []presto.Column{
				{Name: "a", Type: "double"},
				{Name: "b", Type: "double"},
			},
		},
		"an empty export has no header": {
			complete:    true,
			expectedErr: "unable to read export export.csv header: no header row",
		},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			columns, err := DetectSchema("export.csv", []byte(tt.sample), tt.complete)
			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, columns)
		})
	}
}

func TestDetectSchemaGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("UsageDateTime,PreTaxCost\n2021-01-01,0.5\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	columns, err := DetectSchema("part_0.csv.gz", buf.Bytes(), true)
	require.NoError(t, err)
	assert.Equal(t, []presto.Column{
		{Name: "usagedatetime", Type: "varchar"},
		{Name: "pretaxcost", Type: "double"},
	}, columns)

	_, err = DetectSchema("part_0.csv.gz", []byte("not gzip"), true)
	assert.Error(t, err)
}

func TestCastColumnsSQL(t *testing.T) {
	columns := []presto.Column{
		{Name: "date", Type: "varchar"},
		{Name: "cost", Type: "double"},
	}
	assert.Equal(t, `"date", TRY_CAST(NULLIF(TRIM("cost"), '') AS double) AS "cost"`, castColumnsSQL(columns))
	assert.Equal(t, `(NULLIF(TRIM("cost"), '') IS NOT NULL AND TRY_CAST("cost" AS double) IS NULL)`, badRecordCondition(columns))
	assert.Equal(t, "", badRecordCondition(columns[:1]))
}
