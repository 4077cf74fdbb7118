package google

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	applog "opsdesk/internal/log"
	ports "opsdesk/internal/sheets"
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger
}

var _ ports.SummaryExporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Inline JSON wins over the file path.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *applog.Logger) *Client {
	if sheetName == "" {
		sheetName = "Expense summary"
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(applog.ComponentSheets),
	}
}

// ExportSummary creates the target sheet if needed, clears it and writes the
// report from A1.
func (c *Client) ExportSummary(ctx context.Context, r ports.Report) (ports.ExportResult, error) {
	if c.svc == nil {
		return ports.ExportResult{}, errors.New("sheets service not initialized")
	}

	sheetID, err := c.ensureSheet(ctx)
	if err != nil {
		return ports.ExportResult{}, err
	}

	target := quoteSheet(c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, target, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return ports.ExportResult{}, fmt.Errorf("clear sheet: %w", err)
	}

	values := ports.Values(r)
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, target+"!A1", &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return ports.ExportResult{}, fmt.Errorf("write summary: %w", err)
	}

	rows := len(values)
	if resp != nil && resp.UpdatedRows > 0 {
		rows = int(resp.UpdatedRows)
	}

	c.logger.InfoContext(ctx, "Exported expense summary",
		"sheet", c.sheetName,
		applog.FieldRange, r.Range.String(),
		"rows", rows)

	return ports.ExportResult{URL: c.sheetURL(sheetID), Rows: rows}, nil
}

func (c *Client) ensureSheet(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			return sh.Properties.SheetId, nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: c.sheetName}},
		}},
	}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %q: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Created export sheet", "sheet", c.sheetName)
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		return resp.Replies[0].AddSheet.Properties.SheetId, nil
	}
	return 0, nil
}

func (c *Client) sheetURL(sheetID int64) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", url.PathEscape(c.spreadsheetID), sheetID)
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
