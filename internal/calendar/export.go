package calendar

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetName is the worksheet written by SaveXLSX.
const SheetName = "Imsakiyah"

// WriteCSV writes a header line followed by one record per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return eris.Wrap(err, "calendar: write csv header")
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return eris.Wrapf(err, "calendar: write csv row %s", r.Date)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "calendar: flush csv")
}

// NewWorkbook renders rows into a single-sheet workbook.
func NewWorkbook(rows []Row) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "calendar: add sheet")
	}
	addRow(sheet, Header())
	for _, r := range rows {
		addRow(sheet, r.Record())
	}
	return f, nil
}

// SaveXLSX writes rows to an XLSX file at path.
func SaveXLSX(path string, rows []Row) error {
	f, err := NewWorkbook(rows)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "calendar: save %s", path)
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
