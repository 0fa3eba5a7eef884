package loader

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

const (
	// DefaultPeekBytes is how much of the first source object is sampled
	// to detect the export schema.
	DefaultPeekBytes = 64 << 10

	utf8BOM = "\uFEFF"

	typeDouble  = "double"
	typeVarchar = "varchar"
)

var invalidColumnChars = regexp.MustCompile(`[^a-z0-9_]`)

// DetectSchema infers the raw table columns from the leading bytes of an
// export. complete is false when sample is a prefix of a larger object, in
// which case the trailing partial line is dropped.
func DetectSchema(key string, sample []byte, complete bool) ([]presto.Column, error) {
	data := sample
	if strings.HasSuffix(key, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(sample))
		if err != nil {
			return nil, fmt.Errorf("unable to read gzipped export %s: %v", key, err)
		}
		// a truncated sample ends mid-stream, keep whatever was inflated
		data, err = io.ReadAll(zr)
		if err != nil && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("unable to read gzipped export %s: %v", key, err)
		}
		if err == io.ErrUnexpectedEOF {
			complete = false
		}
	}
	if !complete {
		if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
			data = data[:i+1]
		}
	}

	header, rows, err := readSample(data)
	if err != nil {
		return nil, fmt.Errorf("unable to read export %s header: %v", key, err)
	}

	names := columnNames(header)
	columns := make([]presto.Column, len(names))
	for i, name := range names {
		columns[i] = presto.Column{Name: name, Type: inferType(rows, i)}
	}
	return columns, nil
}

func readSample(data []byte) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("no header row")
	}
	if err != nil {
		return nil, nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// sampling stops at the first malformed record
			break
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// columnNames turns export headers into Hive identifiers. Duplicates are
// suffixed by an incrementing ordinal.
func columnNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := invalidColumnChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "_")
		if name == "" {
			name = "_c" + strconv.Itoa(i)
		}
		times, exists := seen[name]
		if exists {
			name += strconv.Itoa(times)
		}
		seen[name] = times + 1
		out[i] = name
	}
	return out
}

// inferType returns double when every non-empty sampled value of column i
// is a number, varchar otherwise.
func inferType(rows [][]string, i int) string {
	numeric := false
	for _, row := range rows {
		if i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return typeVarchar
		}
		numeric = true
	}
	if numeric {
		return typeDouble
	}
	return typeVarchar
}
