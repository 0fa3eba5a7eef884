package billing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// CloudProvider tags every derived row written for this export family.
	CloudProvider = "AZURE"

	PreAggregatedTable  = "preAggregated"
	UnifiedTable        = "unifiedTable"
	CostAggregatedTable = "costAggregated"
	SyncStatusTable     = "connectorDataSyncStatus"

	datasetPrefix  = "BillingReport_"
	rawTablePrefix = "azureBilling_"
)

var invalidDatasetChars = regexp.MustCompile(`[^0-9a-z]`)

// BillingEvent is the notification announcing a new export.
type BillingEvent struct {
	Bucket    string `json:"bucket"`
	Path      string `json:"path"`
	AccountID string `json:"accountId"`
	// TenantID is used when the path itself carries no tenant.
	TenantID   string  `json:"tenantId,omitempty"`
	CostMarkUp float64 `json:"costMarkUp,omitempty"`
}

func (e BillingEvent) Validate() error {
	switch {
	case e.Bucket == "":
		return fmt.Errorf("event is missing bucket")
	case e.Path == "":
		return fmt.Errorf("event is missing path")
	case e.AccountID == "":
		return fmt.Errorf("event is missing accountId")
	}
	return nil
}

// InventoryEvent asks for an account's inventory tables to be refreshed.
// An empty Kind refreshes every inventory table.
type InventoryEvent struct {
	AccountID string `json:"accountId"`
	Kind      string `json:"kind,omitempty"`
}

// BillingPeriodKey identifies one raw table and one rewrite window.
type BillingPeriodKey struct {
	AccountID   string
	ConnectorID string
	TenantID    string
	ReportYear  string
	ReportMonth string

	Period           PeriodFolder
	Prefix           string
	IsPartitionedCSV bool
}

// NewBillingPeriodKey derives the key of a billing event from its path.
func NewBillingPeriodKey(event BillingEvent) (BillingPeriodKey, error) {
	bp, err := ParsePath(event.Path)
	if err != nil {
		return BillingPeriodKey{}, err
	}
	tenantID := bp.TenantID
	if tenantID == "" && (bp.Shape == ShapeConnectorPeriod || bp.Shape == ShapeConnectorReportPeriod) {
		tenantID = event.TenantID
	}
	return BillingPeriodKey{
		AccountID:        event.AccountID,
		ConnectorID:      bp.ConnectorID,
		TenantID:         tenantID,
		ReportYear:       bp.Period.ReportYear(),
		ReportMonth:      bp.Period.ReportMonth(),
		Period:           bp.Period,
		Prefix:           bp.Prefix,
		IsPartitionedCSV: bp.IsPartitionedCSV,
	}, nil
}

// Dataset is the per-account schema holding the raw and derived tables.
func (k BillingPeriodKey) Dataset() string {
	return DatasetName(k.AccountID)
}

// RawTable is "azureBilling_<year>_<month>_<connector>".
func (k BillingPeriodKey) RawTable() string {
	return fmt.Sprintf("%s%s_%s_%s", rawTablePrefix, k.ReportYear, k.ReportMonth, k.ConnectorID)
}

// MonthRange returns the first and last day of the billing month.
func (k BillingPeriodKey) MonthRange() (time.Time, time.Time) {
	year, _ := strconv.Atoi(k.ReportYear)
	month, _ := strconv.Atoi(k.ReportMonth)
	return MonthRange(year, month)
}

// DatasetName lower-cases accountID and replaces everything outside
// [0-9a-z] with an underscore.
func DatasetName(accountID string) string {
	return datasetPrefix + invalidDatasetChars.ReplaceAllString(strings.ToLower(accountID), "_")
}
