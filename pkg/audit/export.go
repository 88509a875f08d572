package audit

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTimeRange is returned when start time is after end time.
	ErrInvalidTimeRange = errors.New("audit: start_time must be before end_time")
	// ErrLogNotConfigured is returned when export is invoked without a
	// backing evidence log (fail-closed).
	ErrLogNotConfigured = errors.New("audit: evidence log not configured")
)

// ExportRequest defines the period to export.
type ExportRequest struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Archiver stores a finished evidence pack and returns a reference to it.
// S3ArchiveStore and GCSArchiveStore implement it.
type Archiver interface {
	Archive(ctx context.Context, name string, data []byte) (string, error)
}

// Exporter bundles evidence-log entries into checksummed zip packs.
type Exporter struct {
	log *EvidenceLog
}

// NewExporter creates an exporter over the given evidence log.
func NewExporter(log *EvidenceLog) *Exporter {
	return &Exporter{log: log}
}

// GeneratePack creates a zip containing the chained entries for the period
// plus a manifest carrying the chain head, and returns the zip bytes and
// their SHA-256 checksum.
func (e *Exporter) GeneratePack(_ context.Context, req ExportRequest) ([]byte, string, error) {
	if !req.StartTime.IsZero() && !req.EndTime.IsZero() && req.StartTime.After(req.EndTime) {
		return nil, "", ErrInvalidTimeRange
	}
	if e.log == nil {
		return nil, "", ErrLogNotConfigured
	}

	entries := e.log.EntriesBetween(req.StartTime, req.EndTime)
	entriesJSON, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, "", err
	}

	manifest := map[string]any{
		"generatedAt": time.Now().UTC(),
		"entryCount":  len(entries),
		"chainHead":   e.log.ChainHead(),
		"period": map[string]any{
			"start": req.StartTime,
			"end":   req.EndTime,
		},
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("audit: marshal manifest: %w", err)
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	f, err := w.Create("entries.json")
	if err != nil {
		return nil, "", err
	}
	_, _ = f.Write(entriesJSON)

	f, err = w.Create("manifest.json")
	if err != nil {
		return nil, "", err
	}
	_, _ = f.Write(manifestJSON)

	f, err = w.Create("README.txt")
	if err != nil {
		return nil, "", err
	}
	_, _ = fmt.Fprintf(f, "Compliance evidence pack\nGenerated at %s\nEntries: %d\n",
		time.Now().UTC().Format(time.RFC3339), len(entries))

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	zipBytes := buf.Bytes()
	hash := sha256.Sum256(zipBytes)
	return zipBytes, hex.EncodeToString(hash[:]), nil
}

// GenerateAndArchive builds a pack and pushes it to the archiver. The
// returned reference is archiver-specific (e.g. an S3 object hash).
func (e *Exporter) GenerateAndArchive(ctx context.Context, req ExportRequest, arc Archiver) (string, error) {
	pack, checksum, err := e.GeneratePack(ctx, req)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("evidence-pack-%s-%s.zip",
		time.Now().UTC().Format("20060102T150405Z"), checksum[:12])
	return arc.Archive(ctx, name, pack)
}
