package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hupe1980/snowduck/engine"
	"github.com/hupe1980/snowduck/translator"
)

// runShell starts an interactive SQL shell on one engine session.
func runShell(eng *engine.Engine, cfg translator.Config) {
	sess := engine.NewSession(eng, cfg)

	fmt.Fprintln(os.Stderr, "Snowduck shell (type \\q to exit)")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, bufio.MaxScanTokenSize), 1024*1024) // 1MB max line

	var buf strings.Builder

	// mu protects queryCancel and buf from concurrent access
	// between the main goroutine and the signal goroutine.
	var mu sync.Mutex
	var queryCancel context.CancelFunc

	cancelCh := make(chan os.Signal, 1)
	signal.Notify(cancelCh, syscall.SIGINT)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-cancelCh:
				mu.Lock()
				cancel := queryCancel
				if cancel != nil {
					mu.Unlock()
					cancel()
				} else {
					buf.Reset()
					mu.Unlock()
					fmt.Fprint(os.Stderr, "\n"+prompt(sess))
				}
			case <-done:
				return
			}
		}
	}()

	defer func() {
		signal.Stop(cancelCh)
		close(done)
	}()

	fmt.Fprint(os.Stderr, prompt(sess))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		mu.Lock()
		bufEmpty := buf.Len() == 0
		mu.Unlock()
		if bufEmpty && (trimmed == `\q` || trimmed == ".quit" || trimmed == ".exit") {
			break
		}

		mu.Lock()
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		// Statement is complete when it ends with a semicolon.
		// NOTE: simple heuristic -- it doesn't handle semicolons inside
		// string literals or comments. Acceptable for a REPL.
		accumulated := strings.TrimSpace(buf.String())
		mu.Unlock()

		if accumulated == "" {
			fmt.Fprint(os.Stderr, prompt(sess))
			continue
		}
		if !strings.HasSuffix(accumulated, ";") {
			fmt.Fprint(os.Stderr, "       -> ")
			continue
		}

		ctx, cancel := context.WithCancel(context.Background())
		mu.Lock()
		queryCancel = cancel
		mu.Unlock()

		executeShellStatement(ctx, sess, strings.TrimSuffix(accumulated, ";"))
		cancel()

		mu.Lock()
		queryCancel = nil
		buf.Reset()
		mu.Unlock()

		fmt.Fprint(os.Stderr, prompt(sess))
	}

	fmt.Fprintln(os.Stderr)
}

// prompt renders the current namespace, Snowflake-style.
func prompt(sess *engine.Session) string {
	ctx := sess.Context()
	if ctx.CurrentDatabase == "" {
		return "snowduck> "
	}
	if ctx.CurrentSchema == "" {
		return ctx.CurrentDatabase + "> "
	}
	return ctx.CurrentDatabase + "." + ctx.CurrentSchema + "> "
}

// runScript executes a semicolon-separated statement list and exits.
func runScript(eng *engine.Engine, cfg translator.Config, script string) error {
	sess := engine.NewSession(eng, cfg)
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		res, err := sess.Execute(context.Background(), stmt)
		if err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
		printResult(res)
	}
	return nil
}

// executeShellStatement runs a single statement and prints results to stdout.
func executeShellStatement(ctx context.Context, sess *engine.Session, stmt string) {
	res, err := sess.Execute(ctx, stmt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return
	}
	printResult(res)
}

func printResult(res *engine.ExecResult) {
	if len(res.Columns) == 0 {
		if res.RowsAffected > 0 {
			fmt.Printf("OK (%d row%s affected)\n", res.RowsAffected, plural(int(res.RowsAffected)))
		} else {
			fmt.Println("OK")
		}
		return
	}

	header := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c.Name
	}

	allRows := make([][]string, len(res.Rows))
	for r, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		allRows[r] = cells
	}

	widths := make([]int, len(header))
	for i, c := range header {
		widths[i] = len(c)
	}
	for _, row := range allRows {
		for i, v := range row {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	var hb strings.Builder
	var sep strings.Builder
	for i, c := range header {
		if i > 0 {
			hb.WriteString(" | ")
			sep.WriteString("-+-")
		}
		hb.WriteString(fmt.Sprintf("%-*s", widths[i], c))
		sep.WriteString(strings.Repeat("-", widths[i]))
	}
	fmt.Println(hb.String())
	fmt.Println(sep.String())

	for _, row := range allRows {
		var line strings.Builder
		for i, v := range row {
			if i > 0 {
				line.WriteString(" | ")
			}
			line.WriteString(fmt.Sprintf("%-*s", widths[i], v))
		}
		fmt.Println(line.String())
	}

	fmt.Fprintf(os.Stderr, "(%d row%s)\n", len(allRows), plural(len(allRows)))
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case decimal.Decimal:
		return val.String()
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
