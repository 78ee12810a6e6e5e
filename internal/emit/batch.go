// Package emit turns a grid layout into a declarative Google Sheets v4 instruction set
// and hands it to a sink.
package emit

import (
	"errors"
	"fmt"
	"strings"

	sheets "google.golang.org/api/sheets/v4"

	"metagrid/internal/grid"
)

// ErrInvalidGrid is returned when there is nothing coherent to emit
var ErrInvalidGrid = errors.New("invalid grid")

// Batch is everything needed to render one grid. Apply BatchUpdate before writing Values:
// its first request grows the sheet to fit the grid and the second clears old merges.
// Formatting set there is kept when the values are written.
type Batch struct {
	SpreadsheetID string                                `json:"spreadsheetId"`
	SheetName     string                                `json:"sheetName"`
	SheetID       int64                                 `json:"sheetId"`
	Values        *sheets.ValueRange                    `json:"values"`
	BatchUpdate   *sheets.BatchUpdateSpreadsheetRequest `json:"batchUpdate"`
}

const (
	alignFields  = "userEnteredFormat(horizontalAlignment,verticalAlignment,wrapStrategy)"
	headerFields = "userEnteredFormat(backgroundColor,textFormat,horizontalAlignment,verticalAlignment,wrapStrategy)"
)

// Build renders g with style
func Build(g *grid.Grid, style Style) (*Batch, error) {
	if g == nil || g.Columns < grid.FixedColumns || len(g.Header) != g.Columns {
		return nil, fmt.Errorf("%w: missing or malformed header", ErrInvalidGrid)
	}

	b := &builder{g: g, style: style, rows: int64(g.RowCount()), cols: int64(g.Columns)}
	return &Batch{
		SpreadsheetID: style.SpreadsheetID,
		SheetName:     style.SheetName,
		SheetID:       style.SheetID,
		Values:        b.values(),
		BatchUpdate:   &sheets.BatchUpdateSpreadsheetRequest{Requests: b.requests()},
	}, nil
}

// CellValue returns what gets written for one cell: text as-is, images as IMAGE formulas
func CellValue(c grid.Content) string {
	switch v := c.(type) {
	case grid.Text:
		return string(v)
	case grid.Image:
		return imageFormula(v)
	default:
		return ""
	}
}

func imageFormula(img grid.Image) string {
	if img.URL == "" {
		return ""
	}
	url := strings.ReplaceAll(img.URL, `"`, `""`)
	if img.PixelSize > 0 {
		return fmt.Sprintf(`=IMAGE("%s", 4, %d, %d)`, url, img.PixelSize, img.PixelSize)
	}
	return fmt.Sprintf(`=IMAGE("%s")`, url)
}

// A1Range returns "'Sheet name'!A1"
func A1Range(sheetName string) string {
	if sheetName == "" {
		return "A1"
	}
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'!A1"
}

type builder struct {
	g     *grid.Grid
	style Style
	rows  int64
	cols  int64
	reqs  []*sheets.Request
}

func (b *builder) values() *sheets.ValueRange {
	values := make([][]interface{}, 0, b.rows)
	for r := 0; r < int(b.rows); r++ {
		row := make([]interface{}, b.cols)
		for c := 0; c < int(b.cols); c++ {
			row[c] = CellValue(b.g.Cell(r, c))
		}
		values = append(values, row)
	}
	return &sheets.ValueRange{
		Range:          A1Range(b.style.SheetName),
		MajorDimension: "ROWS",
		Values:         values,
	}
}

func (b *builder) requests() []*sheets.Request {
	b.resize()
	b.unmerge()
	b.header()
	b.freeze()
	b.columnWidths()
	for i, block := range b.g.Blocks {
		b.block(i, block)
	}
	return b.reqs
}

func (b *builder) add(r *sheets.Request) {
	b.reqs = append(b.reqs, r)
}

func (b *builder) gridRange(startRow, endRow, startCol, endCol int64) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          b.style.SheetID,
		StartRowIndex:    startRow,
		EndRowIndex:      endRow,
		StartColumnIndex: startCol,
		EndColumnIndex:   endCol,
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}

func (b *builder) dimension(dim string, start, end int64) *sheets.DimensionRange {
	return &sheets.DimensionRange{
		SheetId:         b.style.SheetID,
		Dimension:       dim,
		StartIndex:      start,
		EndIndex:        end,
		ForceSendFields: []string{"SheetId", "StartIndex"},
	}
}

func (b *builder) sized(dim string, start, end, px int64) {
	if px <= 0 || end <= start {
		return
	}
	b.add(&sheets.Request{UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
		Range:      b.dimension(dim, start, end),
		Properties: &sheets.DimensionProperties{PixelSize: px},
		Fields:     "pixelSize",
	}})
}

// resize grows the sheet so every later range is within bounds
func (b *builder) resize() {
	b.add(&sheets.Request{UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
		Properties: &sheets.SheetProperties{
			SheetId: b.style.SheetID,
			GridProperties: &sheets.GridProperties{
				RowCount:    max(b.rows, b.style.MinRows),
				ColumnCount: max(b.cols, b.style.MinColumns),
			},
			ForceSendFields: []string{"SheetId"},
		},
		Fields: "gridProperties.rowCount,gridProperties.columnCount",
	}})
}

// unmerge clears merges left by a previous render; clearing values does not
func (b *builder) unmerge() {
	b.add(&sheets.Request{UnmergeCells: &sheets.UnmergeCellsRequest{
		Range: b.gridRange(0, max(b.rows, b.style.MinRows), 0, max(b.cols, b.style.MinColumns)),
	}})
}

func (b *builder) header() {
	paint := func(startCol, endCol int64, bg RGB) {
		b.add(&sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
			Range: b.gridRange(0, 1, startCol, endCol),
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				BackgroundColor:     bg.color(),
				TextFormat:          &sheets.TextFormat{Bold: true, ForegroundColor: gray(1)},
				HorizontalAlignment: "CENTER",
				VerticalAlignment:   "MIDDLE",
				WrapStrategy:        "WRAP",
			}},
			Fields: headerFields,
		}})
	}
	paint(0, grid.FixedColumns, b.style.FixedHeaderColor)
	paint(grid.FirstChampionColumn, b.cols, b.style.ChampionHeaderColor)

	outer := &sheets.Border{Style: "SOLID_MEDIUM", Width: 2, Color: gray(0.12)}
	inner := &sheets.Border{Style: "SOLID", Width: 1, Color: gray(0.2)}
	b.add(&sheets.Request{UpdateBorders: &sheets.UpdateBordersRequest{
		Range:           b.gridRange(0, 1, 0, b.cols),
		Top:             outer,
		Bottom:          outer,
		Left:            outer,
		Right:           outer,
		InnerHorizontal: inner,
		InnerVertical:   inner,
	}})
}

func (b *builder) freeze() {
	b.add(&sheets.Request{UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
		Properties: &sheets.SheetProperties{
			SheetId:         b.style.SheetID,
			GridProperties:  &sheets.GridProperties{FrozenRowCount: 1},
			ForceSendFields: []string{"SheetId"},
		},
		Fields: "gridProperties.frozenRowCount",
	}})
}

func (b *builder) columnWidths() {
	for col, px := range b.style.FixedColumnWidths {
		b.sized("COLUMNS", int64(col), int64(col)+1, px)
	}
	b.sized("COLUMNS", grid.FirstChampionColumn, b.cols, b.style.ChampionColumnWidth)
}

func (b *builder) block(i int, block grid.Block) {
	start := int64(block.OriginRow)
	end := start + int64(block.Height)

	shade := b.style.BandShades[i%2]
	b.add(&sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
		Range:  b.gridRange(start, end, 0, b.cols),
		Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{BackgroundColor: gray(shade)}},
		Fields: "userEnteredFormat(backgroundColor)",
	}})

	if c, ok := b.style.TierColors[block.Tier]; ok {
		b.add(&sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
			Range: b.gridRange(start, end, grid.ColTier, grid.ColTier+1),
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				BackgroundColor: c.color(),
				TextFormat:      &sheets.TextFormat{Bold: true, FontSize: 18, ForegroundColor: gray(1)},
			}},
			Fields: "userEnteredFormat(backgroundColor,textFormat)",
		}})
	}

	for j, cost := range block.Costs {
		c, ok := b.style.CostColors[cost]
		if !ok {
			continue
		}
		col := int64(grid.FirstChampionColumn + j)
		b.add(&sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
			Range: b.gridRange(start+1, start+2, col, col+1),
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				BackgroundColor:     c.color(),
				TextFormat:          &sheets.TextFormat{Bold: true, ForegroundColor: gray(1)},
				HorizontalAlignment: "CENTER",
			}},
			Fields: "userEnteredFormat(backgroundColor,textFormat,horizontalAlignment)",
		}})
	}

	b.sized("ROWS", start, start+1, b.style.PortraitRowHeight)
	b.sized("ROWS", start+1, start+2, b.style.NameRowHeight)
	b.sized("ROWS", start+2, end, b.style.ItemRowHeight)

	for _, m := range block.Merges {
		if b.style.KeepSynergyRows && m.Column == grid.ColSynergies && hasExtraSynergies(block) {
			continue
		}
		r := b.gridRange(int64(m.StartRow), int64(m.EndRow), int64(m.Column), int64(m.Column)+1)
		b.add(&sheets.Request{MergeCells: &sheets.MergeCellsRequest{Range: r, MergeType: "MERGE_ALL"}})
		b.add(&sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
			Range: r,
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				HorizontalAlignment: "CENTER",
				VerticalAlignment:   "MIDDLE",
				WrapStrategy:        "WRAP",
			}},
			Fields: alignFields,
		}})
	}
}

func hasExtraSynergies(block grid.Block) bool {
	for r := 2; r < len(block.Rows); r++ {
		if !grid.IsEmpty(block.Rows[r][grid.ColSynergies]) {
			return true
		}
	}
	return false
}
