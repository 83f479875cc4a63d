package cli

import (
	"fmt"
	"io"

	"github.com/Freeeeeet/contract_scheduler/internal/app"
	"github.com/fatih/color"
)

var (
	// fatih/color сам отключает цвета, если вывод не TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

func printError(w io.Writer, msg string) {
	_, _ = errorColor.Fprintf(w, "✗ %s\n", msg)
}

// printMigrationStatus таблица миграций: версия, состояние, файл
func printMigrationStatus(w io.Writer, statuses []app.MigrationStatus) {
	if len(statuses) == 0 {
		_, _ = dimColor.Fprintln(w, "no migrations found")
		return
	}

	pending := 0
	for _, s := range statuses {
		state := successColor.Sprint("applied")
		if !s.Applied {
			state = warningColor.Sprint("pending")
			pending++
		}
		fmt.Fprintf(w, "  %05d  %-7s  %s\n", s.Version, state, dimColor.Sprint(s.Source))
	}

	fmt.Fprintln(w)
	if pending == 0 {
		printSuccess(w, "database is up to date")
		return
	}
	_, _ = warningColor.Fprintf(w, "⚠ %d pending migration(s), run `scheduler migrate up`\n", pending)
}
