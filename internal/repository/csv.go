package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"moodwatch/internal/models"
)

// timestampLayouts are tried in order after RFC 3339.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// CSVEntryRepository reads entries from an entries.csv export with the columns
// id,account_id,handle,mood,comment,sleep_hours,appetite,concentration,created.
// The file is re-read on every call so each read is a fresh snapshot.
type CSVEntryRepository struct {
	path   string
	logger *zap.Logger
}

func NewCSVEntryRepository(path string, logger *zap.Logger) *CSVEntryRepository {
	return &CSVEntryRepository{path: path, logger: logger}
}

func (r *CSVEntryRepository) ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Entry{}, nil
		}
		return nil, fmt.Errorf("failed to open entries file: %w", err)
	}
	defer f.Close()

	entries, err := r.parse(ctx, f)
	if err != nil {
		return nil, err
	}

	out := entries[:0]
	for _, e := range entries {
		if filter.Since != nil && e.Created.Before(*filter.Since) {
			continue
		}
		if filter.Handle != "" && e.UserHandle != filter.Handle {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *CSVEntryRepository) CreateEntry(context.Context, *models.Entry) error {
	return ErrReadOnly
}

func (r *CSVEntryRepository) parse(ctx context.Context, in io.Reader) ([]models.Entry, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"handle", "mood", "created"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("entries file is missing column %q", required)
		}
	}

	entries := make([]models.Entry, 0)
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		row := csvRow{record: record, columns: columns}
		entry, ok := r.entryFromRow(row, line)
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// entryFromRow converts one record. Rows without a usable mood or timestamp are skipped;
// malformed optional ratings are treated as missing.
func (r *CSVEntryRepository) entryFromRow(row csvRow, line int) (models.Entry, bool) {
	mood, ok := parseInt(row.get("mood"))
	if !ok {
		r.logger.Warn("Skipping entry with unparseable mood", zap.Int("line", line), zap.String("mood", row.get("mood")))
		return models.Entry{}, false
	}
	created, ok := parseTimestamp(row.get("created"))
	if !ok {
		r.logger.Warn("Skipping entry with unparseable timestamp", zap.Int("line", line), zap.String("created", row.get("created")))
		return models.Entry{}, false
	}

	entry := models.Entry{
		UserHandle: row.get("handle"),
		Mood:       mood,
		Created:    created,
	}
	if id, ok := parseInt(row.get("id")); ok {
		entry.ID = int64(id)
	}
	if v, ok := r.optionalFloat(row, "sleep_hours", line); ok {
		entry.SleepHours = &v
	}
	if v, ok := r.optionalInt(row, "appetite", line); ok {
		entry.Appetite = &v
	}
	if v, ok := r.optionalInt(row, "concentration", line); ok {
		entry.Concentration = &v
	}
	if comment := row.get("comment"); comment != "" {
		entry.Comment = &comment
	}
	return entry, true
}

func (r *CSVEntryRepository) optionalFloat(row csvRow, column string, line int) (float64, bool) {
	raw := row.get(column)
	if raw == "" {
		return 0, false
	}
	v, ok := parseFloat(raw)
	if !ok {
		r.logger.Debug("Ignoring malformed field", zap.Int("line", line), zap.String("column", column), zap.String("value", raw))
	}
	return v, ok
}

func (r *CSVEntryRepository) optionalInt(row csvRow, column string, line int) (int, bool) {
	raw := row.get(column)
	if raw == "" {
		return 0, false
	}
	v, ok := parseInt(raw)
	if !ok {
		r.logger.Debug("Ignoring malformed field", zap.Int("line", line), zap.String("column", column), zap.String("value", raw))
	}
	return v, ok
}

type csvRow struct {
	record  []string
	columns map[string]int
}

func (r csvRow) get(column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseInt accepts integral floats such as "7.0", which spreadsheet exports produce.
func parseInt(s string) (int, bool) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, ok := parseFloat(s)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
