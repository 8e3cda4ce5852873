// Package ledger appends reservation events to an external spreadsheet so
// finance staff can follow holds, conversions and cancellations.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"budgetcare/internal/core"
	"budgetcare/internal/export"
	"budgetcare/internal/ports"
)

// DefaultSheetName is the ledger tab name before the year prefix.
const DefaultSheetName = "Reservations"

// Header is the first row of a ledger sheet: the event columns followed by
// the CSV export columns.
func Header() []string {
	return append([]string{"Événement", "Horodatage", "Plan"}, export.Columns()...)
}

// Row renders ev in Header order.
func Row(ev core.ReservationEvent) []string {
	return append([]string{
		string(ev.Type),
		ev.OccurredAt.UTC().Format(time.RFC3339),
		ev.PlanName,
	}, export.Fields(ev.Reservation, ev.CategoryLabel, ev.Currency)...)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// Memory keeps ledger rows in process. It stands in for the spreadsheet
// when none is configured.
type Memory struct {
	mu   sync.Mutex
	rows map[string][][]string
}

var (
	_ ports.LedgerWriter = (*Memory)(nil)
	_ ports.LedgerWriter = (*Client)(nil)
)

func NewMemory() *Memory {
	return &Memory{rows: make(map[string][][]string)}
}

// AppendEvent stores the row under the event year's sheet and returns a
// synthetic reference.
func (m *Memory) AppendEvent(_ context.Context, ev core.ReservationEvent) (string, error) {
	sheet := yearPrefixedName(DefaultSheetName, ev.OccurredAt.Year())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[sheet] = append(m.rows[sheet], Row(ev))
	return fmt.Sprintf("mem:%s:%d", sheet, len(m.rows[sheet])), nil
}

// Rows returns a copy of the rows appended to sheet.
func (m *Memory) Rows(sheet string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows[sheet]))
	copy(out, m.rows[sheet])
	return out
}
