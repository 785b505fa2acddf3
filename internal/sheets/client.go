package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Value input modes accepted by the values API.
const (
	UserEntered = "USER_ENTERED"
	Raw         = "RAW"
)

// ValuesAPI is the slice of the spreadsheet values API the writers use.
type ValuesAPI interface {
	ReadRange(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error)
	ClearRange(ctx context.Context, spreadsheetID, range_ string) error
	UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}, inputOption string) (int64, error)
	AppendRows(ctx context.Context, spreadsheetID, range_ string, rows [][]interface{}, inputOption string) (int64, error)
}

type Client struct {
	service *sheets.Service
}

// NewClient builds a Sheets client authorized by ts. Extra options are
// applied after the token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
	}, nil
}

func (c *Client) ReadRange(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, range_).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	return resp.Values, nil
}

func (c *Client) ClearRange(ctx context.Context, spreadsheetID, range_ string) error {
	_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, range_, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear range: %w", err)
	}

	return nil
}

// UpdateRange overwrites values starting at range_ and returns the number of updated cells.
func (c *Client) UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}, inputOption string) (int64, error) {
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	resp, err := c.service.Spreadsheets.Values.Update(spreadsheetID, range_, valueRange).
		ValueInputOption(inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to update range: %w", err)
	}

	return resp.UpdatedCells, nil
}

// AppendRows inserts rows after the table found at range_ and returns the number of appended rows.
func (c *Client) AppendRows(ctx context.Context, spreadsheetID, range_ string, rows [][]interface{}, inputOption string) (int64, error) {
	valueRange := &sheets.ValueRange{
		Values: rows,
	}

	resp, err := c.service.Spreadsheets.Values.Append(spreadsheetID, range_, valueRange).
		ValueInputOption(inputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to append rows: %w", err)
	}

	if resp.Updates == nil {
		return 0, nil
	}
	return resp.Updates.UpdatedRows, nil
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	return values
}

func a1(sheet, cells string) string {
	return sheet + "!" + cells
}
