package googlesheet

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hayatoa/threads-auto-post-gs/domain/model"
	"github.com/hayatoa/threads-auto-post-gs/domain/repository"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/logger"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Config represents the Google Sheets row store configuration.
type Config struct {
	SpreadsheetURL  string
	Tab             string
	CredentialsFile string
	Location        *time.Location
}

// Store is the Sheets-backed row store. It is the sole owner of row
// identity: rows are addressed by 1-based sheet position and callers are
// expected to re-read before acting, so nothing here caches row data.
type Store struct {
	service       *sheets.Service
	spreadsheetID string
	tab           string
	loc           *time.Location

	// header as of the last EnsureHeader call; only used to locate the
	// status/posted_at/error columns when writing results.
	header []string
}

// NewSheetStore opens the spreadsheet with service account credentials.
// When the key file is absent it falls back to application default
// credentials.
func NewSheetStore(ctx context.Context, cfg *Config) (repository.IRowStore, error) {
	spreadsheetID, err := SpreadsheetID(cfg.SpreadsheetURL)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if data, readErr := os.ReadFile(cfg.CredentialsFile); readErr == nil {
		jwtConfig, jwtErr := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
		if jwtErr != nil {
			return nil, fmt.Errorf("failed to parse service account key %s: %w", cfg.CredentialsFile, jwtErr)
		}
		opts = append(opts, option.WithHTTPClient(jwtConfig.Client(ctx)))
	} else {
		logger.GetLogger().WithField("path", cfg.CredentialsFile).
			Debug("Service account key not readable, using application default credentials")
		opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		service:       service,
		spreadsheetID: spreadsheetID,
		tab:           cfg.Tab,
		loc:           loc,
	}, nil
}

func (s *Store) rangeName(ref string) string {
	if s.tab == "" {
		return ref
	}
	return fmt.Sprintf("'%s'!%s", s.tab, ref)
}

func (s *Store) getAllValues(ctx context.Context) ([][]interface{}, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeName("A1:ZZ")).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet values: %w", err)
	}
	return resp.Values, nil
}

func (s *Store) updateRange(ctx context.Context, ref string, values [][]interface{}) error {
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeName(ref),
		&sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update range %s: %w", ref, err)
	}
	return nil
}

// EnsureHeader guarantees row 1 carries every required column, appending
// missing ones after the existing columns. An empty sheet gets the full
// required set.
func (s *Store) EnsureHeader(ctx context.Context) ([]string, error) {
	values, err := s.getAllValues(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		header := make([]string, len(model.RequiredColumns))
		copy(header, model.RequiredColumns)
		if err := s.updateRange(ctx, "1:1", [][]interface{}{toCells(header)}); err != nil {
			return nil, err
		}
		s.header = header
		return header, nil
	}

	existing := make([]string, len(values[0]))
	for i, cell := range values[0] {
		existing[i] = cellString(cell)
	}
	header, changed := MergeHeader(existing, model.RequiredColumns)
	if changed {
		if err := s.updateRange(ctx, "1:1", [][]interface{}{toCells(header)}); err != nil {
			return nil, err
		}
		logger.GetLogger().WithField("header", header).Info("Appended missing columns to sheet header")
	}
	s.header = header
	return header, nil
}

// ReadRows returns every data row in ascending sheet order (indexes start
// at 2, the header occupying row 1).
func (s *Store) ReadRows(ctx context.Context, header []string) ([]model.PostRow, error) {
	values, err := s.getAllValues(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) <= 1 {
		return nil, nil
	}
	rows := make([]model.PostRow, 0, len(values)-1)
	for i, raw := range values[1:] {
		rows = append(rows, model.PostRow{
			Index:  i + 2,
			Fields: RowFields(header, raw),
		})
	}
	return rows, nil
}

// WriteResult records one row's outcome with individual cell updates.
// There is no batching; a failure mid-update surfaces to the caller and
// aborts the current firing.
func (s *Store) WriteResult(ctx context.Context, rowIdx int, status string, errMsg string) error {
	header := s.header
	if header == nil {
		var err error
		if header, err = s.EnsureHeader(ctx); err != nil {
			return err
		}
	}
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[col] = i + 1
	}

	postedAt := ""
	if status == model.StatusPosted {
		postedAt = time.Now().In(s.loc).Format("2006-01-02 15:04:05")
	}
	errCell := ""
	if status == model.StatusFailed {
		errCell = truncateRunes(errMsg, model.MaxErrorLength)
	}

	cells := []struct {
		col string
		val string
	}{
		{"status", status},
		{"posted_at", postedAt},
		{"error", errCell},
	}
	for _, c := range cells {
		ref := fmt.Sprintf("%s%d", ColumnLetter(colIdx[c.col]), rowIdx)
		if err := s.updateRange(ctx, ref, [][]interface{}{{c.val}}); err != nil {
			return err
		}
	}
	return nil
}

// truncateRunes keeps the first max characters, not bytes, so multibyte
// error text is not split mid-rune.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func toCells(header []string) []interface{} {
	cells := make([]interface{}, len(header))
	for i, col := range header {
		cells[i] = col
	}
	return cells
}
