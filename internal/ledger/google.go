package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetcare/internal/core"
	"budgetcare/internal/log"
)

var ErrMissingSpreadsheet = errors.New("missing GOOGLE_SPREADSHEET_ID")

type Config struct {
	SpreadsheetID string
	// SheetName is the tab base name; the event year is prefixed.
	SheetName string
}

// Client appends ledger rows to a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger

	mu         sync.Mutex
	headerDone map[string]bool
}

// New builds a client. Without opts the service account credentials are
// read from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, ErrMissingSpreadsheet
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = DefaultSheetName
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)

	if len(opts) == 0 {
		creds, err := serviceAccountCredentials(ctx, logger)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: id,
		sheetBase:     base,
		logger:        logger,
		headerDone:    make(map[string]bool),
	}, nil
}

func serviceAccountCredentials(ctx context.Context, logger *log.Logger) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	if inline != "" {
		logger.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	}

	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	logger.DebugContext(ctx, "Read service account credentials", "path", path, "size", len(data))
	return data, nil
}

// AppendEvent writes the header on first use of a year's sheet, then appends
// the event row. The returned reference is the updated A1 range.
func (c *Client) AppendEvent(ctx context.Context, ev core.ReservationEvent) (string, error) {
	sheet := yearPrefixedName(c.sheetBase, ev.OccurredAt.Year())

	if err := c.ensureHeader(ctx, sheet); err != nil {
		return "", err
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheetRange(sheet, "A:"+lastColumn()), &gsheet.ValueRange{
		Values: [][]any{toCells(Row(ev))},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append ledger row: %w", err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Ledger row appended",
		log.FieldOperation, log.OpAppend,
		log.FieldReservationID, ev.Reservation.ID,
		log.FieldEvent, ev.Type,
		log.FieldLedgerRef, ref,
	)
	return ref, nil
}

func (c *Client) ensureHeader(ctx context.Context, sheet string) error {
	c.mu.Lock()
	done := c.headerDone[sheet]
	c.mu.Unlock()
	if done {
		return nil
	}

	first := sheetRange(sheet, "A1:"+lastColumn()+"1")
	got, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, first).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ledger header: %w", err)
	}
	if len(got.Values) == 0 {
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, first, &gsheet.ValueRange{
			Values: [][]any{toCells(Header())},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
		c.logger.InfoContext(ctx, "Ledger header written", "sheet", sheet)
	}

	c.mu.Lock()
	c.headerDone[sheet] = true
	c.mu.Unlock()
	return nil
}

func sheetRange(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

// lastColumn is the A1 letter of the final header column.
func lastColumn() string {
	n := len(Header())
	col := ""
	for n > 0 {
		n--
		col = string(rune('A'+n%26)) + col
		n /= 26
	}
	return col
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
