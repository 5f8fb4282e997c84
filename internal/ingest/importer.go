package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
)

// SnapshotWriter persists imported snapshots. The Postgres implementation
// upserts on the natural key, so re-imports overwrite.
type SnapshotWriter interface {
	UpsertSnapshot(ctx context.Context, s *domain.MetricSnapshot) error
}

// Result summarizes one import run. RowErrors carries one human-readable
// string per rejected row; a bad row never aborts the run.
type Result struct {
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	RowErrors []string `json:"row_errors,omitempty"`
}

// Importer reads CSV streams of per-workflow channel metrics and writes
// snapshots.
type Importer struct {
	writer SnapshotWriter
}

// NewImporter creates a CSV snapshot importer.
func NewImporter(writer SnapshotWriter) *Importer {
	return &Importer{writer: writer}
}

// maxRowErrors caps the error list so a wholly malformed file does not
// balloon the response.
const maxRowErrors = 100

// ImportFromReader reads a CSV stream, maps columns to canonical fields, and
// upserts one snapshot per row. Returns per-row errors alongside the counts.
func (imp *Importer) ImportFromReader(ctx context.Context, r io.Reader, sourceFile string) (*Result, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &Result{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapping := MapColumns(header)
	if mapping == nil {
		return nil, fmt.Errorf("no workflow or period-start column detected in header: %v", header)
	}

	res := &Result{}
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.reject(line, fmt.Sprintf("malformed row: %v", err))
			continue
		}

		snap, perr := parseRow(row, mapping)
		if perr != nil {
			res.reject(line, perr.Error())
			continue
		}

		if err := imp.writer.UpsertSnapshot(ctx, snap); err != nil {
			log.Printf("[ingest.Importer] upsert %s/%s %s failed: %v",
				snap.WorkflowID, snap.Channel, snap.PeriodStartDate.Format("2006-01-02"), err)
			res.reject(line, fmt.Sprintf("store rejected row: %v", err))
			continue
		}
		res.Imported++
	}

	log.Printf("[ingest.Importer] %s: imported=%d skipped=%d", sourceFile, res.Imported, res.Skipped)
	return res, nil
}

func (r *Result) reject(line int, msg string) {
	r.Skipped++
	if len(r.RowErrors) < maxRowErrors {
		r.RowErrors = append(r.RowErrors, fmt.Sprintf("line %d: %s", line, msg))
	}
}

func parseRow(row []string, mapping map[int]CanonicalField) (*domain.MetricSnapshot, error) {
	snap := &domain.MetricSnapshot{
		Channel:    domain.ChannelEmail,
		PeriodType: domain.PeriodWeek,
	}

	for i, field := range mapping {
		if i >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[i])
		if val == "" {
			continue
		}
		if err := applyField(snap, field, val); err != nil {
			return nil, err
		}
	}

	if snap.WorkflowID == "" {
		return nil, fmt.Errorf("missing workflow_id")
	}
	if snap.PeriodStartDate.IsZero() {
		return nil, fmt.Errorf("missing period_start_date")
	}
	deriveRates(snap)
	return snap, nil
}

func applyField(snap *domain.MetricSnapshot, field CanonicalField, val string) error {
	switch field {
	case FieldWorkflowID:
		snap.WorkflowID = val
	case FieldChannel:
		c, err := parseChannel(val)
		if err != nil {
			return err
		}
		snap.Channel = c
	case FieldPeriodType:
		switch strings.ToLower(val) {
		case "week", "weekly":
			snap.PeriodType = domain.PeriodWeek
		case "month", "monthly":
			snap.PeriodType = domain.PeriodMonth
		default:
			return fmt.Errorf("unknown period_type %q", val)
		}
	case FieldPeriodStartDate:
		d, err := parseDate(val)
		if err != nil {
			return err
		}
		snap.PeriodStartDate = d
	case FieldSends, FieldDelivered, FieldOpens, FieldClicks, FieldUnsubs, FieldBounces, FieldComplaints:
		n, err := parseCount(val)
		if err != nil {
			return fmt.Errorf("bad %s %q", field, val)
		}
		switch field {
		case FieldSends:
			snap.Sends = n
		case FieldDelivered:
			snap.Delivered = n
		case FieldOpens:
			snap.Opens = n
		case FieldClicks:
			snap.Clicks = n
		case FieldUnsubs:
			snap.Unsubs = n
		case FieldBounces:
			snap.Bounces = n
		case FieldComplaints:
			snap.Complaints = n
		}
	case FieldOpenRate, FieldClickRate, FieldUnsubRate, FieldBounceRate, FieldComplaintRate:
		f, err := parseRate(val)
		if err != nil {
			return fmt.Errorf("bad %s %q", field, val)
		}
		switch field {
		case FieldOpenRate:
			snap.OpenRate = &f
		case FieldClickRate:
			snap.ClickRate = &f
		case FieldUnsubRate:
			snap.UnsubRate = &f
		case FieldBounceRate:
			snap.BounceRate = &f
		case FieldComplaintRate:
			snap.ComplaintRate = &f
		}
	}
	return nil
}

// deriveRates fills any rate the source did not carry from its count and
// sends. Zero sends leaves the rate nil rather than dividing.
func deriveRates(snap *domain.MetricSnapshot) {
	if snap.Sends <= 0 {
		return
	}
	pct := func(count int) *float64 {
		v := float64(count) / float64(snap.Sends) * 100
		return &v
	}
	if snap.OpenRate == nil {
		snap.OpenRate = pct(snap.Opens)
	}
	if snap.ClickRate == nil {
		snap.ClickRate = pct(snap.Clicks)
	}
	if snap.UnsubRate == nil {
		snap.UnsubRate = pct(snap.Unsubs)
	}
	if snap.BounceRate == nil {
		snap.BounceRate = pct(snap.Bounces)
	}
	if snap.ComplaintRate == nil {
		snap.ComplaintRate = pct(snap.Complaints)
	}
}

func parseChannel(val string) (domain.Channel, error) {
	switch strings.ToLower(strings.ReplaceAll(val, "-", "_")) {
	case "email":
		return domain.ChannelEmail, nil
	case "push", "push_notification":
		return domain.ChannelPush, nil
	case "sms", "text":
		return domain.ChannelSMS, nil
	case "in_app", "inapp", "in_app_message":
		return domain.ChannelInApp, nil
	}
	return "", fmt.Errorf("unknown channel %q", val)
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006-01-02T15:04:05Z07:00"}

func parseDate(val string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, val); err == nil {
			return d.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", val)
}

func parseCount(val string) (int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(val, ",", ""))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("not a count")
	}
	return n, nil
}

// parseRate accepts "21.5" or "21.5%".
func parseRate(val string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(val, "%"), 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("not a rate")
	}
	return f, nil
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := r.Read(buf)
	if err != nil || n < 3 {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
