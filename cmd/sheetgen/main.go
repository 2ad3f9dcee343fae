// Command sheetgen writes sample spreadsheets for trying out sheetview: a
// multi-sheet .xlsx workbook or a .csv file that can keep growing at a fixed
// rate to exercise auto sync and append following.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

var orderHeaders = []string{"Order", "Date", "Customer", "Region", "Product", "Qty", "Amount", "Paid"}

func main() {
	var (
		format      string
		outPath     string
		rows        int
		rate        float64
		durationStr string
	)

	flag.StringVar(&format, "format", formatXLSX, "Output format: xlsx or csv")
	flag.StringVar(&outPath, "out", "", "Output file path. Defaults to simulateddata/orders.<format>")
	flag.IntVar(&rows, "rows", 60, "Initial data rows (per sheet for xlsx)")
	flag.Float64Var(&rate, "rate", 0, "csv only: rows appended per second after the initial rows; 0 exits right away")
	flag.StringVar(&durationStr, "duration", "", "Optional append duration (e.g., 30s, 2m). Empty means run until interrupted")
	flag.Parse()

	format = strings.ToLower(strings.TrimSpace(format))
	if format != formatCSV && format != formatXLSX {
		fmt.Fprintf(os.Stderr, "unsupported format: %s\n", format)
		os.Exit(2)
	}
	if outPath == "" {
		if err := os.MkdirAll("simulateddata", 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create simulateddata: %v\n", err)
			os.Exit(1)
		}
		outPath = filepath.Join("simulateddata", "orders."+format)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if format == formatXLSX {
		if err := writeWorkbook(outPath, rows, rng); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "wrote %s (3 sheets, %d rows each)\n", outPath, rows)
		return
	}

	// Setup interrupt handling
	var interrupted atomic.Bool
	abort := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		interrupted.Store(true)
		close(abort)
	}()

	var deadline time.Time
	if durationStr != "" {
		d, err := time.ParseDuration(durationStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid duration: %v\n", err)
			os.Exit(2)
		}
		deadline = time.Now().Add(d)
	}
	shouldStop := func() bool {
		select {
		case <-abort:
			return true
		default:
		}
		return !deadline.IsZero() && time.Now().After(deadline)
	}

	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	writeCSVRow(w, orderHeaders)
	for i := 0; i < rows; i++ {
		writeCSVRow(w, randomOrder(rng, time.Now()))
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if rate <= 0 {
		fmt.Fprintf(os.Stderr, "wrote %s (%d rows)\n", outPath, rows)
		return
	}
	fmt.Fprintf(os.Stderr, "appending orders -> %s at %.2f rows/s\n", outPath, rate)
	runAppend(w, rate, rng, shouldStop)
	if interrupted.Load() {
		fmt.Fprintln(os.Stderr, "interrupted")
	}
}

func writeWorkbook(path string, rows int, rng *rand.Rand) error {
	f := excelize.NewFile()
	defer f.Close()
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return err
	}
	sheets := []string{"Orders", "Returns", "Notes"}
	if err := f.SetSheetName("Sheet1", sheets[0]); err != nil {
		return err
	}
	for _, name := range sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	now := time.Now()
	for _, name := range sheets[:2] {
		if err := setRow(f, name, 1, toAny(orderHeaders)); err != nil {
			return err
		}
		for r := 0; r < rows; r++ {
			rec := randomOrderValues(rng, now)
			if err := setRow(f, name, r+2, rec); err != nil {
				return err
			}
			cell, _ := excelize.CoordinatesToCellName(2, r+2)
			if err := f.SetCellStyle(name, cell, cell, dateStyle); err != nil {
				return err
			}
		}
	}
	// Notes is header-only so the empty state shows up
	if err := setRow(f, "Notes", 1, []any{"Note", "Author"}); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	for c, v := range vals {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func runAppend(w *bufio.Writer, rate float64, rng *rand.Rand, shouldStop func() bool) {
	interval := time.Duration(float64(time.Second) / rate)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if shouldStop() {
			return
		}
		writeCSVRow(w, randomOrder(rng, time.Now()))
		_ = w.Flush()
	}
}

// writeCSVRow quotes every field, the way Google's CSV export does.
func writeCSVRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

var (
	customers = []string{"Acme Corp", "Globex", "Initech", "Umbrella", "Stark Industries", "Wayne Enterprises", "O'Brien & Sons"}
	regions   = []string{"North", "South", "East", "West"}
	products  = []string{"Widget", "Gadget", "Gizmo", "Doohickey", `Thing "Pro"`}
)

func randomOrderValues(rng *rand.Rand, now time.Time) []any {
	qty := rng.Intn(20) + 1
	price := 5 + rng.Float64()*95
	return []any{
		uuid.NewString()[:8],
		now.AddDate(0, 0, -rng.Intn(90)),
		customers[rng.Intn(len(customers))],
		regions[rng.Intn(len(regions))],
		products[rng.Intn(len(products))],
		qty,
		float64(int(float64(qty)*price*100)) / 100,
		rng.Intn(3) > 0,
	}
}

func randomOrder(rng *rand.Rand, now time.Time) []string {
	vals := randomOrderValues(rng, now)
	out := make([]string, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case time.Time:
			out[i] = t.Format("2006-01-02")
		case bool:
			if t {
				out[i] = "TRUE"
			} else {
				out[i] = "FALSE"
			}
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}
