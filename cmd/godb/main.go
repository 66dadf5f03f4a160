// Command godb is the process entry point: it reads SQL statements from
// standard input, executes each against a persistent on-disk database,
// and writes result rows and status lines to standard output (spec.md
// §6.1).
//
// Grounded on the teacher's cmd/godb-server/main.go REPL loop (buffered
// stdin reader, semicolon-terminated statement accumulation), trimmed
// of its interactive ".meta" commands and prompt printing since this
// spec treats stdin as a plain statement stream rather than a line
// editor.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"goDB/internal/dberrors"
	"goDB/internal/engine"
	"goDB/internal/sql"
	"goDB/internal/sqlval"
)

func main() {
	disableIndex := flag.Bool("disable-index", false, "force full table scans, ignoring all indexes")
	flag.Parse()

	baseDir := "./data"
	if args := flag.Args(); len(args) > 0 {
		baseDir = args[0]
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "godb: cannot create base directory %q: %v\n", baseDir, err)
		os.Exit(1)
	}

	eng := engine.New(baseDir, *disableIndex)
	runErr := run(eng, os.Stdin, os.Stdout)
	closeErr := eng.Close()
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "godb:", runErr)
		os.Exit(1)
	}
	if closeErr != nil {
		fmt.Fprintln(os.Stderr, "godb:", closeErr)
		os.Exit(1)
	}
}

func run(eng *engine.Engine, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	var buf strings.Builder
	inString := false

	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if r == '\'' {
			inString = !inString
		}
		buf.WriteRune(r)
		if r == ';' && !inString {
			if err := execStatement(eng, buf.String(), out); err != nil {
				return err
			}
			buf.Reset()
		}
	}

	if strings.TrimSpace(buf.String()) != "" {
		if err := execStatement(eng, buf.String(), out); err != nil {
			return err
		}
	}
	return nil
}

// execStatement runs one statement and prints its result or status line.
// It returns nil even on a rejected statement (spec.md §7: a syntax,
// semantic, or constraint error aborts only the current statement and
// processing continues), but returns the error itself when the failure is
// fatal (I/O or corruption, spec.md §7), which stops the input loop.
func execStatement(eng *engine.Engine, text string, out io.Writer) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	stmt, err := sql.Parse(text)
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return nil
	}
	cols, rows, status, err := eng.Execute(stmt)
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		if dberrors.Fatal(err) {
			return err
		}
		return nil
	}
	if len(cols) > 0 {
		printResultSet(cols, rows, out)
		return nil
	}
	if status != "" {
		fmt.Fprintln(out, status)
	}
	return nil
}

// printResultSet writes a header row then each data row, comma
// separated, strings unquoted, NULL as the literal "NULL" (spec.md §6.1).
func printResultSet(cols []string, rows [][]sqlval.Value, out io.Writer) {
	fmt.Fprintln(out, strings.Join(cols, ","))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Fprintln(out, strings.Join(cells, ","))
	}
}
