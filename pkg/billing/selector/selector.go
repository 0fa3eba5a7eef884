// Package selector picks the export objects that hold the authoritative
// data for a billing period.
package selector

import (
	"strings"

	"github.com/kube-reporting/billing-ingest/pkg/billing"
	"github.com/kube-reporting/billing-ingest/pkg/objectstore"
)

// Layout distinguishes a single export file from a partitioned export.
type Layout int

const (
	// Unpartitioned is one file directly inside the period folder.
	Unpartitioned Layout = iota + 1
	// Partitioned is every CSV file of one subfolder below the period folder.
	Partitioned
)

func (l Layout) String() string {
	switch l {
	case Unpartitioned:
		return "unpartitioned"
	case Partitioned:
		return "partitioned"
	default:
		return "unknown"
	}
}

// Source is the selected input of a raw table load.
type Source struct {
	Layout Layout
	// Glob is the object pattern of the source: the key itself for an
	// unpartitioned file, "<folder>/*.csv", "<folder>/*.csv.gz" or
	// "<folder>/*.csv*" for a partitioned export depending on which
	// suffixes its partitions carry.
	Glob string
	// Keys are the objects to load, in listing order.
	Keys []string
	// Size is the total byte size of Keys.
	Size int64
}

// IsCSV reports whether key names a plain or gzipped CSV export.
func IsCSV(key string) bool {
	return strings.HasSuffix(key, ".csv") || strings.HasSuffix(key, ".csv.gz")
}

// partitionGlob returns the pattern matching every key of a partitioned
// export, all of which live directly under folder.
func partitionGlob(folder string, keys []string) string {
	var plain, gzipped bool
	for _, key := range keys {
		if strings.HasSuffix(key, ".csv.gz") {
			gzipped = true
		} else {
			plain = true
		}
	}
	switch {
	case gzipped && plain:
		return folder + "/*.csv*"
	case gzipped:
		return folder + "/*.csv.gz"
	default:
		return folder + "/*.csv"
	}
}

type group struct {
	size int64
	keys []string
}

// Select chooses between the largest file directly inside a period folder
// and the subfolder with the largest total size. Objects are evaluated in
// the given order: the first of equally sized files wins, and a subfolder
// becomes the partitioned winner only when its running total strictly
// exceeds the best total seen so far. The single file wins ties with the
// partitioned winner. ok is false when no object is a candidate.
func Select(objects []objectstore.Object) (src Source, ok bool) {
	var (
		singleKey  string
		singleSize int64
		bestFolder string
		bestSize   int64
		groups     = map[string]*group{}
	)

	for _, obj := range objects {
		if !IsCSV(obj.Key) {
			continue
		}
		folder := parentFolder(obj.Key)
		if billing.IsPeriodFolder(folder) {
			if obj.Size > singleSize {
				singleSize = obj.Size
				singleKey = obj.Key
			}
			continue
		}
		g, exists := groups[folder]
		if !exists {
			g = &group{}
			groups[folder] = g
		}
		g.size += obj.Size
		g.keys = append(g.keys, obj.Key)
		if g.size > bestSize {
			bestSize = g.size
			bestFolder = folder
		}
	}

	switch {
	case singleKey != "" && singleSize >= bestSize:
		return Source{
			Layout: Unpartitioned,
			Glob:   singleKey,
			Keys:   []string{singleKey},
			Size:   singleSize,
		}, true
	case bestFolder != "":
		g := groups[bestFolder]
		return Source{
			Layout: Partitioned,
			Glob:   partitionGlob(bestFolder, g.keys),
			Keys:   append([]string(nil), g.keys...),
			Size:   g.size,
		}, true
	default:
		return Source{}, false
	}
}

func parentFolder(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[:i]
	}
	return ""
}
