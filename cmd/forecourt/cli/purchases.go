package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ap"
)

// PurchaseRecorder is the slice of the AP service the importer needs.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, input ap.RecordPurchaseInput) (ap.Purchase, error)
}

// PurchaseImportCLI backfills historical supplier purchases from CSV, for
// stations migrating off paper records.
type PurchaseImportCLI struct {
	recorder PurchaseRecorder
}

// NewPurchaseImportCLI constructs the importer.
func NewPurchaseImportCLI(recorder PurchaseRecorder) *PurchaseImportCLI {
	return &PurchaseImportCLI{recorder: recorder}
}

// ImportMode enumerates supported execution strategies.
type ImportMode string

const (
	// ImportModeDry previews rows without recording them.
	ImportModeDry ImportMode = "dry"
	// ImportModeApply records purchases after confirmation.
	ImportModeApply ImportMode = "apply"
)

// ImportOptions configures the import command execution.
type ImportOptions struct {
	Mode         ImportMode
	Source       string
	SourceReader io.Reader
	JSONOutput   bool
	Stdout       io.Writer
	Stderr       io.Writer
	Stdin        io.Reader
	Confirm      func(io.Reader, io.Writer) (bool, error)
}

// ImportRow is one parsed purchase candidate.
type ImportRow struct {
	SupplierID int64  `json:"supplier_id"`
	Date       string `json:"date"`
	TotalCost  string `json:"total_cost"`
	Note       string `json:"note,omitempty"`
}

// ImportSummary captures the structured reporting outcome.
type ImportSummary struct {
	Mode     ImportMode  `json:"mode"`
	Rows     []ImportRow `json:"rows"`
	Recorded int         `json:"recorded"`
}

// ImportCommand executes the purchase backfill workflow.
func (c *PurchaseImportCLI) ImportCommand(ctx context.Context, opts ImportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Mode == "" {
		opts.Mode = ImportModeDry
	}
	mode := ImportMode(strings.ToLower(string(opts.Mode)))
	switch mode {
	case ImportModeDry, ImportModeApply:
	default:
		fmt.Fprintf(opts.Stderr, "import: invalid mode %q (expected dry or apply)\n", opts.Mode)
		return 1
	}

	rows, err := loadImportRows(opts)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "import: %v\n", err)
		return 1
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].SupplierID < rows[j].SupplierID
	})
	summary := ImportSummary{Mode: mode, Rows: rows}

	if mode == ImportModeDry || len(rows) == 0 {
		if err := writeImportOutput(opts, summary); err != nil {
			fmt.Fprintf(opts.Stderr, "import: %v\n", err)
			return 1
		}
		return 0
	}

	confirm := opts.Confirm
	if confirm == nil {
		confirm = defaultImportConfirm
	}
	ok, err := confirm(opts.Stdin, opts.Stdout)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "import: confirmation failed: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(opts.Stderr, "import: cancelled by user")
		return 1
	}

	for _, row := range rows {
		total, err := decimal.NewFromString(row.TotalCost)
		if err != nil {
			fmt.Fprintf(opts.Stderr, "import: invalid total for supplier %d: %v\n", row.SupplierID, err)
			return 1
		}
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			fmt.Fprintf(opts.Stderr, "import: invalid date %q: %v\n", row.Date, err)
			return 1
		}
		if _, err := c.recorder.RecordPurchase(ctx, ap.RecordPurchaseInput{
			SupplierID: row.SupplierID,
			TotalCost:  total,
			Date:       date,
			Note:       row.Note,
		}); err != nil {
			fmt.Fprintf(opts.Stderr, "import: record purchase for supplier %d on %s: %v\n", row.SupplierID, row.Date, err)
			return 1
		}
		summary.Recorded++
	}

	if err := writeImportOutput(opts, summary); err != nil {
		fmt.Fprintf(opts.Stderr, "import: %v\n", err)
		return 1
	}
	return 0
}

func loadImportRows(opts ImportOptions) ([]ImportRow, error) {
	var data []byte
	var err error
	switch {
	case opts.SourceReader != nil:
		data, err = io.ReadAll(opts.SourceReader)
	case opts.Source == "-":
		if opts.Stdin == nil {
			return nil, errors.New("source - requires stdin")
		}
		data, err = io.ReadAll(opts.Stdin)
	case strings.TrimSpace(opts.Source) == "":
		return nil, errors.New("--source is required")
	default:
		data, err = os.ReadFile(opts.Source)
	}
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := nextNonEmptyRecord(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	indexes := map[string]int{"supplier_id": -1, "date": -1, "total": -1, "note": -1}
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "supplier_id", "supplier":
			indexes["supplier_id"] = i
		case "date":
			indexes["date"] = i
		case "total", "total_cost":
			indexes["total"] = i
		case "note", "description":
			indexes["note"] = i
		}
	}
	if indexes["supplier_id"] < 0 || indexes["date"] < 0 || indexes["total"] < 0 {
		return nil, errors.New("missing required columns in source (need supplier_id, date, total)")
	}

	var rows []ImportRow
	for {
		record, err := nextNonEmptyRecord(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if indexes["supplier_id"] >= len(record) || indexes["date"] >= len(record) || indexes["total"] >= len(record) {
			return nil, errors.New("invalid record length in source")
		}
		supplierID, err := strconv.ParseInt(strings.TrimSpace(record[indexes["supplier_id"]]), 10, 64)
		if err != nil || supplierID <= 0 {
			return nil, fmt.Errorf("invalid supplier_id %q in source", record[indexes["supplier_id"]])
		}
		dateStr := strings.TrimSpace(record[indexes["date"]])
		if _, err := time.Parse("2006-01-02", dateStr); err != nil {
			return nil, fmt.Errorf("invalid date %q in source (expected YYYY-MM-DD)", dateStr)
		}
		total, err := decimal.NewFromString(strings.TrimSpace(record[indexes["total"]]))
		if err != nil || !total.IsPositive() {
			return nil, fmt.Errorf("invalid total %q for supplier %d", record[indexes["total"]], supplierID)
		}
		row := ImportRow{
			SupplierID: supplierID,
			Date:       dateStr,
			TotalCost:  total.StringFixed(2),
		}
		if idx := indexes["note"]; idx >= 0 && idx < len(record) {
			row.Note = strings.TrimSpace(record[idx])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func nextNonEmptyRecord(r *csv.Reader) ([]string, error) {
	for {
		record, err := r.Read()
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		skip := true
		for _, field := range record {
			trimmed := strings.TrimSpace(field)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "#") {
				continue
			}
			skip = false
		}
		if skip {
			continue
		}
		return record, nil
	}
}

func writeImportOutput(opts ImportOptions, summary ImportSummary) error {
	if opts.JSONOutput {
		return json.NewEncoder(opts.Stdout).Encode(summary)
	}
	fmt.Fprintf(opts.Stdout, "Purchase import (%s): %d row(s)\n", summary.Mode, len(summary.Rows))
	for _, row := range summary.Rows {
		fmt.Fprintf(opts.Stdout, " - supplier %d on %s total %s\n", row.SupplierID, row.Date, row.TotalCost)
	}
	if summary.Recorded > 0 {
		fmt.Fprintf(opts.Stdout, "Recorded %d purchase(s)\n", summary.Recorded)
	}
	return nil
}

func defaultImportConfirm(r io.Reader, w io.Writer) (bool, error) {
	fmt.Fprint(w, "Record imported purchases? Type YES to confirm: ")
	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response := strings.TrimSpace(line)
	return strings.EqualFold(response, "YES"), nil
}
