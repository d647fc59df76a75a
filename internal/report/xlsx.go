package report

import (
	"fmt"

	"github.com/tealeg/xlsx/v3"
)

const sheetName = "Adherence"

// BuildWorkbook arma el xlsx descargable: fila de headers más una fila por
// dosis, mismas columnas y mismo orden que BuildRows.
func BuildWorkbook(title string, rows []Row) (*xlsx.File, error) {
	f := xlsx.NewFile()

	sh, err := f.AddSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	tr := sh.AddRow()
	tr.AddCell().SetString(title)
	sh.AddRow() // separador

	hr := sh.AddRow()
	for _, h := range Headers {
		hr.AddCell().SetString(h)
	}

	for _, row := range rows {
		r := sh.AddRow()
		r.AddCell().SetString(row.Date)
		r.AddCell().SetString(row.Weekday)
		r.AddCell().SetString(row.Medicine)
		r.AddCell().SetString(row.Scheduled)
		r.AddCell().SetString(row.Taken)
		r.AddCell().SetString(row.Status)
	}

	return f, nil
}
