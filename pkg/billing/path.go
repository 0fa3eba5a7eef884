package billing

import (
	"fmt"
	"strings"
)

// PathShape enumerates the export path layouts that are recognized.
type PathShape int

const (
	// ShapeConnectorPeriod is "<account>/<connector>/<period>".
	ShapeConnectorPeriod PathShape = iota + 1
	// ShapeConnectorReportPeriod is "<account>/<connector>/<report>/<period>".
	ShapeConnectorReportPeriod
	// ShapeTenantReportPeriod is "<account>/<connector>/<tenant>/<report>/<period>".
	ShapeTenantReportPeriod
	// ShapePartitionedRun is
	// "<account>/<connector>/<tenant>/<report>/<period>/<run>/<file>", the
	// layout of partitioned exports.
	ShapePartitionedRun
)

func (s PathShape) String() string {
	switch s {
	case ShapeConnectorPeriod:
		return "connector-period"
	case ShapeConnectorReportPeriod:
		return "connector-report-period"
	case ShapeTenantReportPeriod:
		return "tenant-report-period"
	case ShapePartitionedRun:
		return "partitioned-run"
	default:
		return fmt.Sprintf("PathShape(%d)", int(s))
	}
}

// FormatError reports an export path that has none of the recognized shapes.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid path format %q: %s", e.Path, e.Reason)
}

// BillingPath is the structured form of an export path.
type BillingPath struct {
	Shape       PathShape
	Root        string
	ConnectorID string
	TenantID    string
	Period      PeriodFolder
	// Prefix is the object listing prefix holding the period's exports,
	// without a trailing slash.
	Prefix           string
	IsPartitionedCSV bool
}

// ParsePath derives the structured form of an export path. A single
// trailing slash is ignored.
func ParsePath(p string) (BillingPath, error) {
	trimmed := strings.TrimSuffix(p, "/")
	segments := strings.Split(trimmed, "/")
	for _, s := range segments {
		if s == "" {
			return BillingPath{}, &FormatError{Path: p, Reason: "empty path segment"}
		}
	}

	bp := BillingPath{Root: segments[0]}
	var periodName string
	switch len(segments) {
	case 3:
		bp.Shape = ShapeConnectorPeriod
		periodName = segments[2]
		bp.Prefix = trimmed
	case 4:
		bp.Shape = ShapeConnectorReportPeriod
		periodName = segments[3]
		bp.Prefix = trimmed
	case 5:
		bp.Shape = ShapeTenantReportPeriod
		bp.TenantID = segments[2]
		periodName = segments[4]
		bp.Prefix = trimmed
	case 7:
		bp.Shape = ShapePartitionedRun
		bp.TenantID = segments[2]
		periodName = segments[4]
		bp.Prefix = strings.Join(segments[:5], "/")
		bp.IsPartitionedCSV = true
	default:
		return BillingPath{}, &FormatError{Path: p, Reason: fmt.Sprintf("unsupported number of segments %d", len(segments))}
	}
	bp.ConnectorID = segments[1]

	period, err := ParsePeriodFolder(periodName)
	if err != nil {
		return BillingPath{}, &FormatError{Path: p, Reason: err.Error()}
	}
	bp.Period = period
	return bp, nil
}
