package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/studioops/funnelio/pkg/csv"
	"github.com/studioops/funnelio/pkg/funnel"
	"github.com/studioops/funnelio/pkg/models"
	"github.com/studioops/funnelio/pkg/parser"
)

// Store is the slice of the persistence layer the processor needs. A nil
// Store runs imports without persisting anything.
type Store interface {
	Catalog(ctx context.Context, userID string) (models.Catalog, error)
	SaveResult(ctx context.Context, userID string, result *models.ImportResult, buckets []models.FunnelBucket) error
}

// Outcome is the combined product of one processing run over any number of
// report files: all bookings, the merged funnel series, and every message
// the importers emitted.
type Outcome struct {
	Bookings []models.Booking
	Funnel   []models.FunnelBucket
	Catalog  models.Catalog
	Warnings []string
	Errors   []string
}

type Processor struct {
	logger *log.Logger
	parser *parser.Parser
	store  Store
	output string
}

func NewProcessor(logger *log.Logger, store Store, outputPath string) *Processor {
	return &Processor{
		logger: logger,
		parser: parser.New(logger),
		store:  store,
		output: outputPath,
	}
}

// ProcessDirectory imports every report file in a directory.
func (p *Processor) ProcessDirectory(ctx context.Context, dir, userID string) (*Outcome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var reports []models.Report
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".xls") {
			continue
		}
		reports = append(reports, models.Report{FilePath: filepath.Join(dir, entry.Name())})
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("no report files found in %s", dir)
	}

	return p.Run(ctx, reports, userID)
}

// RunManifest imports the files listed in a YAML manifest.
func (p *Processor) RunManifest(ctx context.Context, path, userID string) (*Outcome, error) {
	manifest, err := models.ManifestFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("error loading manifest: %w", err)
	}
	if manifest.UserID != "" {
		userID = manifest.UserID
	}
	return p.Run(ctx, manifest.Reports, userID)
}

// Run imports each report against the tenant's catalog, threading newly
// proposed entities into subsequent files, merges the two importers' funnel
// sets, persists when a store is configured, and writes output CSVs.
func (p *Processor) Run(ctx context.Context, reports []models.Report, userID string) (*Outcome, error) {
	catalog := models.Catalog{}
	if p.store != nil {
		var err error
		catalog, err = p.store.Catalog(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("error loading catalog: %w", err)
		}
	}

	outcome := &Outcome{}
	leads := bucketAccumulator{}
	booked := bucketAccumulator{}

	for _, report := range reports {
		path, err := report.File()
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading report file: %w", err)
		}
		filename := filepath.Base(path)

		reportType := parser.ReportType(report.Type)
		if reportType == "" {
			reportType, err = p.parser.DetectReportType(data, filename)
			if err != nil {
				return nil, err
			}
		}

		p.logger.Info("processing report", "file", filename, "type", reportType)
		result, err := p.parser.Import(data, reportType, filename, catalog)
		if err != nil {
			return nil, err
		}

		// Later files see entities proposed by earlier ones.
		catalog = models.Catalog{ServiceTypes: result.ServiceTypes, LeadSources: result.LeadSources}

		outcome.Bookings = append(outcome.Bookings, result.Bookings...)
		outcome.Warnings = append(outcome.Warnings, prefix(filename, result.Warnings)...)
		outcome.Errors = append(outcome.Errors, prefix(filename, result.Errors)...)

		switch reportType {
		case parser.LeadsReport:
			leads.add(result.FunnelData)
		case parser.BookedReport:
			booked.add(result.FunnelData)
		}

		for _, w := range result.Warnings {
			p.logger.Warn("import warning", "file", filename, "msg", w)
		}
		for _, e := range result.Errors {
			p.logger.Error("import error", "file", filename, "msg", e)
		}
	}

	outcome.Catalog = catalog
	outcome.Funnel = funnel.Merge(leads.slice(), booked.slice())

	if p.store != nil {
		aggregate := &models.ImportResult{
			Bookings:     outcome.Bookings,
			FunnelData:   outcome.Funnel,
			ServiceTypes: catalog.ServiceTypes,
			LeadSources:  catalog.LeadSources,
		}
		if err := p.store.SaveResult(ctx, userID, aggregate, outcome.Funnel); err != nil {
			return nil, fmt.Errorf("error persisting import: %w", err)
		}
	}

	if p.output != "" {
		if err := p.writeOutputs(outcome); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

func (p *Processor) writeOutputs(outcome *Outcome) error {
	if err := os.MkdirAll(p.output, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	result := &models.ImportResult{
		Bookings:     outcome.Bookings,
		ServiceTypes: outcome.Catalog.ServiceTypes,
		LeadSources:  outcome.Catalog.LeadSources,
	}
	bookingsPath := filepath.Join(p.output, "bookings.csv")
	if err := os.WriteFile(bookingsPath, csv.Bookings(result, nil), 0644); err != nil {
		return fmt.Errorf("error writing bookings csv: %w", err)
	}

	funnelPath := filepath.Join(p.output, "funnel.csv")
	if err := os.WriteFile(funnelPath, csv.Funnel(outcome.Funnel), 0644); err != nil {
		return fmt.Errorf("error writing funnel csv: %w", err)
	}

	p.logger.Info("wrote outputs", "bookings", bookingsPath, "funnel", funnelPath)
	return nil
}

func prefix(filename string, msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, fmt.Sprintf("%s: %s", filename, m))
	}
	return out
}

// bucketAccumulator sums buckets from multiple files of the same report
// type by (year, month) before the cross-type merge.
type bucketAccumulator map[[2]int]*models.FunnelBucket

func (a bucketAccumulator) add(buckets []models.FunnelBucket) {
	for _, b := range buckets {
		key := [2]int{b.Year, b.Month}
		acc, ok := a[key]
		if !ok {
			acc = &models.FunnelBucket{Year: b.Year, Month: b.Month}
			a[key] = acc
		}
		acc.Inquiries += b.Inquiries
		acc.Closes += b.Closes
		acc.RevenueCents += b.RevenueCents
	}
}

func (a bucketAccumulator) slice() []models.FunnelBucket {
	out := make([]models.FunnelBucket, 0, len(a))
	for _, b := range a {
		out = append(out, *b)
	}
	return out
}
