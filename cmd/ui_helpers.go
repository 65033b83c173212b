package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"powerdata/cli/internal/httperrors"
	"powerdata/cli/internal/model"

	"github.com/goccy/go-json"
	"github.com/pterm/pterm"
)

// startInlineSpinner animates frames followed by text on one line of w until
// the returned stop function is called. The line is cleared on stop.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}

var spinnerFrames = []string{"-", "\\", "|", "/"}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}

// printResult renders a successful result, or presents the failure and
// returns it as an error.
func printResult(operation string, res model.OperationResult) error {
	if !res.Success {
		if jsonOutput {
			_ = printJSON(res)
		}
		return httperrors.FormatOperationError(operation, res)
	}
	if jsonOutput {
		return printJSON(res)
	}
	switch data := res.Data.(type) {
	case []any:
		if err := renderRows(data); err != nil {
			return err
		}
	case map[string]any:
		if err := renderRecord(data); err != nil {
			return err
		}
	case nil:
		pterm.Success.Println(operation)
	default:
		fmt.Println(cell(data))
	}
	if res.SkipToken != "" {
		pterm.Info.Printfln("More records available: --skiptoken %s", res.SkipToken)
	}
	return nil
}

// renderRows prints records as a table with one column per field.
func renderRows(rows []any) error {
	if len(rows) == 0 {
		pterm.Info.Println("No records")
		return nil
	}
	columns := columnsOf(rows)
	data := pterm.TableData{columns}
	for _, r := range rows {
		rec, _ := r.(map[string]any)
		line := make([]string, len(columns))
		for i, c := range columns {
			line[i] = cell(rec[c])
		}
		data = append(data, line)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Printfln("%d record(s)", len(rows))
	return nil
}

// renderRecord prints one record as field/value rows.
func renderRecord(rec map[string]any) error {
	keys := visibleKeys(rec)
	data := pterm.TableData{{"Field", "Value"}}
	for _, k := range keys {
		data = append(data, []string{k, cell(rec[k])})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// columnsOf returns the union of visible fields across rows, sorted.
func columnsOf(rows []any) []string {
	seen := map[string]bool{}
	for _, r := range rows {
		if rec, ok := r.(map[string]any); ok {
			for _, k := range visibleKeys(rec) {
				seen[k] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// visibleKeys drops OData annotations.
func visibleKeys(rec map[string]any) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if strings.HasPrefix(k, "@") || strings.Contains(k, "@odata.") || strings.Contains(k, "@OData.") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// parseObject decodes a JSON object flag value. "-" reads stdin.
func parseObject(raw string) (map[string]any, error) {
	if raw == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		raw = string(b)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("invalid JSON object: null")
	}
	return out, nil
}
