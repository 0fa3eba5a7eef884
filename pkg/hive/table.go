package hive

import (
	"context"
	"net/url"
	"path"
	"strconv"

	"github.com/kube-reporting/billing-ingest/pkg/db"
)

const (
	// OpenCSVSerde reads quoted CSV fields as strings.
	OpenCSVSerde = "org.apache.hadoop.hive.serde2.OpenCSVSerde"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type TableParameters struct {
	Database string   `json:"database,omitempty"`
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`

	Location        string            `json:"location,omitempty"`
	SerdeFormat     string            `json:"serdeFormat,omitempty"`
	SerdeProperties map[string]string `json:"serdeProperties,omitempty"`
	FileFormat      string            `json:"fileFormat,omitempty"`
	TableProperties map[string]string `json:"tableProperties,omitempty"`
	External        bool              `json:"external,omitempty"`
}

// CSVTableParameters describes an external text table over CSV objects
// stored at location, skipping headerLines leading lines of every file.
func CSVTableParameters(database, name, location string, columns []Column, headerLines int) TableParameters {
	props := map[string]string{}
	if headerLines > 0 {
		props["skip.header.line.count"] = strconv.Itoa(headerLines)
	}
	return TableParameters{
		Database:    database,
		Name:        name,
		Columns:     columns,
		Location:    location,
		SerdeFormat: OpenCSVSerde,
		SerdeProperties: map[string]string{
			"separatorChar": ",",
			"quoteChar":     `"`,
		},
		FileFormat:      "TEXTFILE",
		TableProperties: props,
		External:        true,
	}
}

func ExecuteCreateTable(ctx context.Context, execer db.Execer, params TableParameters, ignoreExists bool) error {
	_, err := execer.ExecContext(ctx, generateCreateTableSQL(params, ignoreExists))
	return err
}

func ExecuteDropTable(ctx context.Context, execer db.Execer, dbName, tableName string, ignoreNotExists bool) error {
	_, err := execer.ExecContext(ctx, generateDropTableSQL(dbName, tableName, ignoreNotExists, false))
	return err
}

// S3Location returns the HDFS path based on an S3 bucket and prefix.
func S3Location(bucket, prefix string) (string, error) {
	bucket = path.Join(bucket, prefix)
	// Ensure the bucket URL has a trailing slash
	if bucket[len(bucket)-1] != '/' {
		bucket = bucket + "/"
	}
	location := "s3a://" + bucket

	locationURL, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return locationURL.String(), nil
}
