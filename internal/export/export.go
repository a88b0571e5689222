// Package export renders a planner grid as a shareable Google Sheet. Row
// building is pure so it can be tested without credentials; the Exporter
// wraps the Sheets and Drive services.
package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/auditgrid/auditgrid/internal/planner"
	"github.com/auditgrid/auditgrid/internal/schema"
)

// Column layout of the exported sheet.
var headers = []interface{}{
	"Year", "Quarter", "Course Slot 1", "Course Slot 2", "Course Slot 3", "Term Units", "Notes",
}

// quarterLabels maps grid quarters to the display names used in the sheet.
var quarterLabels = map[schema.Quarter]string{
	schema.QuarterFall:   "Fall",
	schema.QuarterWinter: "Winter",
	schema.QuarterSpring: "Spring",
}

// BuildRows flattens a grid into sheet rows: a header row, then one row per
// year and term with the first three course slots, the term's unit total,
// and an empty notes column. Missing year labels default to "Year N".
func BuildRows(g planner.Grid, yearLabels []string) [][]interface{} {
	rows := [][]interface{}{headers}

	for y := range g {
		label := fmt.Sprintf("Year %d", y+1)
		if y < len(yearLabels) && yearLabels[y] != "" {
			label = yearLabels[y]
		}
		for _, q := range schema.Quarters {
			slots := g.Term(y, q)
			row := []interface{}{label, quarterLabels[q]}
			for i := 0; i < 3; i++ {
				row = append(row, courseDisplay(slots, i))
			}
			row = append(row, unitsDisplay(g.TermUnits(y, q)), "")
			rows = append(rows, row)
		}
	}
	return rows
}

func courseDisplay(slots planner.TermSlots, i int) string {
	if i >= len(slots) || slots[i] == nil {
		return ""
	}
	return slots[i].CourseID
}

// unitsDisplay renders a unit total, leaving empty terms blank.
func unitsDisplay(units float64) string {
	if units <= 0 {
		return ""
	}
	return strconv.FormatFloat(units, 'f', -1, 64)
}

// Result identifies a created spreadsheet.
type Result struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	URL           string `json:"url"`
}

// Exporter creates spreadsheets through the Sheets and Drive APIs using a
// service account.
type Exporter struct {
	sheets *sheets.Service
	drive  *drive.Service
}

// NewExporter builds an exporter from a service-account key file. An empty
// path means export is not configured; callers should surface that as a
// service-unavailable condition rather than an error at startup.
func NewExporter(ctx context.Context, credentialsPath string) (*Exporter, error) {
	if credentialsPath == "" {
		return nil, nil
	}
	sheetsSvc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("export: sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("export: drive service: %w", err)
	}
	return &Exporter{sheets: sheetsSvc, drive: driveSvc}, nil
}

// Export creates a new spreadsheet titled after the student, writes the
// grid rows, bolds the header, resizes the columns, and opens the sheet to
// anyone with the link.
func (e *Exporter) Export(ctx context.Context, g planner.Grid, yearLabels []string, studentName string) (*Result, error) {
	if studentName == "" {
		studentName = "Student"
	}
	title := fmt.Sprintf("%s's Audit - %s", studentName, time.Now().Format("1/2/2006"))

	created, err := e.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: "Course Schedule"}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("export: create spreadsheet: %w", err)
	}
	spreadsheetID := created.SpreadsheetId
	sheetID := created.Sheets[0].Properties.SheetId

	rows := BuildRows(g, yearLabels)
	_, err = e.sheets.Spreadsheets.Values.Update(spreadsheetID, "A1", &sheets.ValueRange{
		Values: rows,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("export: write values: %w", err)
	}

	_, err = e.sheets.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:       sheetID,
						StartRowIndex: 0,
						EndRowIndex:   1,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat.bold",
				},
			},
			{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   int64(len(headers)),
					},
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("export: format spreadsheet: %w", err)
	}

	_, err = e.drive.Permissions.Create(spreadsheetID, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("export: share spreadsheet: %w", err)
	}

	return &Result{
		SpreadsheetID: spreadsheetID,
		URL:           "https://docs.google.com/spreadsheets/d/" + spreadsheetID,
	}, nil
}
