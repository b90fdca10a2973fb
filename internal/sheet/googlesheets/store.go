package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"realitease/internal/httpretry"
	"realitease/internal/services"
	"realitease/internal/sheet"
)

const maxRetries = 5

var (
	timeNow = time.Now
	sleep   = httpretry.SleepWithContext
)

// Store implements sheet.Store on a Google spreadsheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string

	// mu serializes appends so concurrent writers never target the same rows.
	mu sync.Mutex
}

var _ sheet.Store = (*Store)(nil)

// Open authenticates with the service-account file and binds the spreadsheet.
func Open(ctx context.Context, spreadsheetID, credentialsFile string, opts ...option.ClientOption) (*Store, error) {
	base := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if strings.TrimSpace(credentialsFile) != "" {
		base = append(base, option.WithCredentialsFile(credentialsFile))
	}
	return New(ctx, spreadsheetID, append(base, opts...)...)
}

// New binds spreadsheetID using the given client options as-is.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Store, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sheet", "open", "spreadsheet id required", nil)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sheet", "open", "create sheets client", err)
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Close is a no-op; the API client holds no resources.
func (s *Store) Close() error { return nil }

// Tables lists worksheet titles in spreadsheet order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var doc *sheets.Spreadsheet
	err := retry(ctx, func() error {
		var err error
		doc, err = s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	names := make([]string, 0, len(doc.Sheets))
	for _, sh := range doc.Sheets {
		if sh.Properties != nil {
			names = append(names, sh.Properties.Title)
		}
	}
	return names, nil
}

// EnsureTable adds the worksheet when absent and extends its header row.
func (s *Store) EnsureTable(ctx context.Context, name string, header []string) error {
	names, err := s.Tables(ctx)
	if err != nil {
		return err
	}
	exists := false
	for _, n := range names {
		if n == name {
			exists = true
			break
		}
	}
	if !exists {
		req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
		}}}
		err := retry(ctx, func() error {
			_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
			return err
		})
		if err != nil {
			return fmt.Errorf("add worksheet %s: %w", name, err)
		}
	}

	var current []string
	if exists {
		values, err := s.values(ctx, fmt.Sprintf("%s!%d:%d", sheet.QuoteName(name), sheet.HeaderRow, sheet.HeaderRow))
		if err != nil {
			return err
		}
		if len(values) > 0 {
			current = values[0]
		}
	}
	merged, changed := sheet.MergeHeader(current, header)
	if exists && !changed {
		return nil
	}
	return s.writeRange(ctx, sheet.A1(name, 0, sheet.HeaderRow), [][]string{merged})
}

// Read fetches every populated row. Fully blank rows are skipped but keep
// their numbering.
func (s *Store) Read(ctx context.Context, name string) (*sheet.Table, error) {
	values, err := s.values(ctx, sheet.QuoteName(name))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range") {
			return nil, fmt.Errorf("%w: %s", sheet.ErrTableNotFound, name)
		}
		return nil, err
	}
	table := &sheet.Table{Name: name}
	if len(values) == 0 {
		return table, nil
	}
	table.Header = values[0]
	for i, cells := range values[1:] {
		if blank(cells) {
			continue
		}
		table.Rows = append(table.Rows, sheet.Row{
			Number: sheet.FirstDataRow + i,
			Values: sheet.RowValues(table.Header, cells),
		})
	}
	return table, nil
}

// Append writes rows directly below the last populated row.
func (s *Store) Append(ctx context.Context, name string, rows []map[string]string) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.Read(ctx, name)
	if err != nil {
		return err
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells, err := sheet.Cells(table.Header, row)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, cells)
	}
	return s.writeRange(ctx, sheet.A1(name, 0, table.NextRow()), out)
}

// Update writes each cell with a single batch request.
func (s *Store) Update(ctx context.Context, name string, updates []sheet.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	headerRows, err := s.values(ctx, fmt.Sprintf("%s!%d:%d", sheet.QuoteName(name), sheet.HeaderRow, sheet.HeaderRow))
	if err != nil {
		return err
	}
	table := &sheet.Table{}
	if len(headerRows) > 0 {
		table.Header = headerRows[0]
	}
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		idx := table.ColumnIndex(u.Column)
		if idx < 0 {
			return fmt.Errorf("%s: %w %q", name, sheet.ErrUnknownColumn, u.Column)
		}
		if u.Row < sheet.FirstDataRow {
			return fmt.Errorf("%w: %s row %d", sheet.ErrRowOutOfRange, name, u.Row)
		}
		data = append(data, &sheets.ValueRange{
			Range:  sheet.A1(name, idx, u.Row),
			Values: [][]any{{u.Value}},
		})
	}
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
	err = retry(ctx, func() error {
		_, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", name, err)
	}
	return nil
}

func (s *Store) values(ctx context.Context, rng string) ([][]string, error) {
	var resp *sheets.ValueRange
	err := retry(ctx, func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
			ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		out = append(out, cells)
	}
	return out, nil
}

func (s *Store) writeRange(ctx context.Context, rng string, rows [][]string) error {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		values = append(values, cells)
	}
	err := retry(ctx, func() error {
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// retry re-runs op while the API reports quota exhaustion or server errors.
func retry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		var apiErr *googleapi.Error
		if err == nil || !errors.As(err, &apiErr) || !httpretry.RetriableStatus(apiErr.Code) {
			return err
		}
		if attempt == maxRetries {
			break
		}
		delay := httpretry.Backoff(httpretry.DefaultInitialBackoff, httpretry.DefaultMaxBackoff, attempt)
		if hint, ok := httpretry.RetryAfter(apiErr.Header.Get("Retry-After"), timeNow()); ok && hint > delay {
			delay = hint
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %w", services.ErrTransient, err)
}
