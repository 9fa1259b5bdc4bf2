package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"dtp/internal/domain"
	"dtp/internal/storage"
)

// ErrorViewer is an interactive TUI over the failures of the last run:
// a failure list on the left, details on the right, and an R key to mark
// failures resolved (persisted back to the results file).
type ErrorViewer struct {
	storage storage.Storage
}

// NewErrorViewer creates a new ErrorViewer
func NewErrorViewer(st storage.Storage) *ErrorViewer {
	return &ErrorViewer{storage: st}
}

// View runs the TUI until the user exits.
func (ev *ErrorViewer) View(results *domain.TestResultsOutput) error {
	if len(results.Details) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	itemText := func(index int) string {
		failure := results.Details[index]
		name := failure.TestName
		if name == "" {
			name = fmt.Sprintf("Test %d", index+1)
		}
		if failure.Resolved {
			return fmt.Sprintf("[gray]✓ %d. %s[white]", index+1, name)
		}
		return fmt.Sprintf("[yellow]%d.[white] %s", index+1, name)
	}
	for i := range results.Details {
		list.AddItem(itemText(i), "", 0, nil)
	}

	statsView := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	detailsView := tview.NewTextView().SetDynamicColors(true).SetWrap(true).SetWordWrap(true)
	headerView := tview.NewTextView().SetTextAlign(tview.AlignCenter).SetDynamicColors(true)

	updateHeader := func() {
		unresolved := 0
		for _, failure := range results.Details {
			if !failure.Resolved {
				unresolved++
			}
		}
		headerView.SetText(fmt.Sprintf(
			" Test Failures (%d total, %d unresolved) | ↑↓ navigate, [yellow]R[white] resolve, → details, ← back, Ctrl+C exit ",
			len(results.Details), unresolved))
	}

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(results.Details) {
			return
		}
		failure := results.Details[index]
		statsView.SetText(fmt.Sprintf("[cyan]path:[white] [yellow]%s[white]::[yellow]%s[white]\n",
			failure.FilePath, failure.TestName))
		detailsView.SetText(formatFailure(failure))
	}

	toggleResolved := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(results.Details) {
			return
		}
		results.Details[index].Resolved = !results.Details[index].Resolved
		list.SetItemText(index, itemText(index), "")
		updateHeader()
		// Persist immediately so resolutions survive an abrupt exit.
		_ = ev.storage.SaveOutput(results)
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				toggleResolved()
				return nil
			}
		}
		return event
	})
	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyLeft || event.Key() == tcell.KeyEsc {
			app.SetFocus(list)
			return nil
		}
		return event
	})
	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})

	updateHeader()
	updateDetails()

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsView, 0, 1, false)
	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)
	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(body, 0, 1, true)

	if err := app.SetRoot(layout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("run failure viewer: %w", err)
	}
	return nil
}

// formatFailure renders one failure with tview color tags.
func formatFailure(failure domain.TestFailure) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[red]✗ Test: %s[white]\n\n", failure.TestName)
	fmt.Fprintf(&b, "[cyan]File: %s[white]\n", failure.FilePath)
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(&b, "[yellow]Location: %s:%d[white]\n", failure.File, failure.Line)
	}
	b.WriteString("\n")

	if failure.Message != "" {
		fmt.Fprintf(&b, "[yellow]Message:[white]\n%s\n\n", failure.Message)
	}
	if len(failure.StackTrace) > 0 {
		b.WriteString("[yellow]Stack Trace:[white]\n")
		for i, trace := range failure.StackTrace {
			if i == 10 {
				fmt.Fprintf(&b, "  [gray]... and %d more lines[white]\n", len(failure.StackTrace)-10)
				break
			}
			fmt.Fprintf(&b, "  %s\n", trace)
		}
	}
	return b.String()
}
