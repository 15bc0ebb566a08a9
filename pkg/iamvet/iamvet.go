// Package iamvet is the library entry point for vetting IAM scenario data
// against a criteria catalog.
package iamvet

import (
	"context"
	"fmt"

	"github.com/iamcompact/iamvet-cli/internal/catalog"
	"github.com/iamcompact/iamvet-cli/internal/dataset"
	"github.com/iamcompact/iamvet-cli/internal/iamio"
	"github.com/iamcompact/iamvet-cli/internal/report"
	"github.com/iamcompact/iamvet-cli/internal/vetting"
)

type (
	Dataset = dataset.Dataset
	Point   = dataset.Point
	Catalog = catalog.Catalog
	Options = vetting.Options
	Event   = vetting.Event
	Result  = vetting.Result
	Table   = report.Table
	Column  = report.Column
)

// Report columns.
const (
	InRange  = report.InRange
	Distance = report.Distance
	Value    = report.Value
)

// ReadScenarios reads IAMC data from path. format is csv, xlsx, json, yaml
// or auto.
func ReadScenarios(path, format string) (*Dataset, error) {
	return iamio.ReadDataset(path, format)
}

// LoadCatalog loads and builds the catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	return catalog.Load(path)
}

// Vet evaluates every criterion of c on scenarios.
func Vet(ctx context.Context, scenarios *Dataset, c *Catalog, opts Options) (*Result, error) {
	return vetting.Run(ctx, scenarios, c.Targets(), opts)
}

// VetFiles reads the scenarios and the catalog and vets them.
func VetFiles(ctx context.Context, scenariosPath, catalogPath string, opts Options) (*Result, error) {
	subject, err := ReadScenarios(scenariosPath, iamio.FormatAuto)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}
	c, err := LoadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}
	return Vet(ctx, subject, c, opts)
}

// WriteReport writes the tables of res, preceded by a summary of col, to
// path. format is csv, xlsx, json, yaml, html or auto.
func WriteReport(path string, res *Result, col Column, format string) error {
	tables, err := res.AllTables(col, report.DictKeys)
	if err != nil {
		return err
	}
	return iamio.WriteTables(path, tables, iamio.WriteOptions{Format: format, RunID: res.RunID})
}
