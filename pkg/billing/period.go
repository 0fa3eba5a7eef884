package billing

import (
	"fmt"
	"strings"
	"time"
)

const (
	// BillingDateFormat is the layout of the 'yyyymmdd' dates in a period folder name.
	BillingDateFormat = "20060102"
)

// PeriodFolder is a parsed "<yyyymmdd>-<yyyymmdd>" export folder name.
type PeriodFolder struct {
	Name  string
	Start time.Time
	End   time.Time
}

// ParsePeriodFolder validates name as a period folder: two 8 digit calendar
// dates joined by a dash, the end strictly after the start.
func ParsePeriodFolder(name string) (PeriodFolder, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 2 {
		return PeriodFolder{}, fmt.Errorf("period folder %q is not of the form yyyymmdd-yyyymmdd", name)
	}
	startStr, endStr := parts[0], parts[1]
	if len(startStr) != 8 || len(endStr) != 8 {
		return PeriodFolder{}, fmt.Errorf("period folder %q dates must have 8 digits", name)
	}
	start, err := parseBillingDate(startStr)
	if err != nil {
		return PeriodFolder{}, fmt.Errorf("period folder %q has an invalid start date: %v", name, err)
	}
	end, err := parseBillingDate(endStr)
	if err != nil {
		return PeriodFolder{}, fmt.Errorf("period folder %q has an invalid end date: %v", name, err)
	}
	if !end.After(start) {
		return PeriodFolder{}, fmt.Errorf("period folder %q ends before it starts", name)
	}
	return PeriodFolder{Name: name, Start: start, End: end}, nil
}

// IsPeriodFolder reports whether the last segment of folder is a valid
// period folder name.
func IsPeriodFolder(folder string) bool {
	if i := strings.LastIndex(folder, "/"); i >= 0 {
		folder = folder[i+1:]
	}
	_, err := ParsePeriodFolder(folder)
	return err == nil
}

func parseBillingDate(s string) (time.Time, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("%q is not numeric", s)
		}
	}
	return time.Parse(BillingDateFormat, s)
}

// ReportYear is the 4 digit year of the period start.
func (p PeriodFolder) ReportYear() string {
	return p.Name[:4]
}

// ReportMonth is the 2 digit month of the period start.
func (p PeriodFolder) ReportMonth() string {
	return p.Name[4:6]
}

// MonthRange returns the first and last calendar day of the given month.
func MonthRange(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}
