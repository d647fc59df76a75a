package report

import (
	"testing"
	"time"

	"medtimer/internal/domain/medicines"
)

func testMeds() []medicines.Medicine {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local) // lunes

	aspirin := medicines.Medicine{
		Name:  "Aspirin",
		Doses: medicines.ExpandDoses(start, 3, []medicines.TimeOfDay{{Hour: 9, Minute: 0}}),
	}
	// primera dosis tomada a horario, segunda tarde
	at900 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	aspirin.Doses[0].Taken = true
	aspirin.Doses[0].TakenAt = &at900
	at930 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.Local)
	aspirin.Doses[1].Taken = true
	aspirin.Doses[1].TakenAt = &at930

	ibuprofen := medicines.Medicine{
		Name:  "Ibuprofen",
		Doses: medicines.ExpandDoses(start, 2, []medicines.TimeOfDay{{Hour: 8, Minute: 0}, {Hour: 20, Minute: 0}}),
	}

	return []medicines.Medicine{aspirin, ibuprofen}
}

func TestBuildRows_CountAndOrder(t *testing.T) {
	rows := BuildRows(testMeds(), medicines.DefaultReportTolerance)

	// 3 dosis de Aspirin + 4 de Ibuprofen, en orden de expansión
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	for i, want := range []string{"Aspirin", "Aspirin", "Aspirin", "Ibuprofen", "Ibuprofen", "Ibuprofen", "Ibuprofen"} {
		if rows[i].Medicine != want {
			t.Fatalf("row %d: expected medicine %s, got %s", i, want, rows[i].Medicine)
		}
	}
}

func TestBuildRows_Formats(t *testing.T) {
	rows := BuildRows(testMeds(), medicines.DefaultReportTolerance)

	first := rows[0]
	if first.Date != "01-01-2024" {
		t.Fatalf("expected date 01-01-2024, got %s", first.Date)
	}
	if first.Weekday != "Monday" {
		t.Fatalf("expected Monday, got %s", first.Weekday)
	}
	if first.Scheduled != "09:00" {
		t.Fatalf("expected scheduled 09:00, got %s", first.Scheduled)
	}
	if first.Taken != "09:00" {
		t.Fatalf("expected taken 09:00, got %s", first.Taken)
	}
	if first.Status != "On Time" {
		t.Fatalf("expected On Time, got %s", first.Status)
	}

	if rows[1].Status != "Late" || rows[1].Taken != "09:30" {
		t.Fatalf("expected Late at 09:30, got %s at %s", rows[1].Status, rows[1].Taken)
	}

	// dosis sin tomar: guion y Not Taken
	if rows[2].Taken != "-" || rows[2].Status != "Not Taken" {
		t.Fatalf("expected - / Not Taken, got %s / %s", rows[2].Taken, rows[2].Status)
	}
}

func TestBuildRows_Empty(t *testing.T) {
	rows := BuildRows(nil, medicines.DefaultReportTolerance)
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestBuildWorkbook(t *testing.T) {
	rows := BuildRows(testMeds(), medicines.DefaultReportTolerance)

	f, err := BuildWorkbook("Medicine Adherence Report | Patient: Ana", rows)
	if err != nil {
		t.Fatalf("BuildWorkbook error: %v", err)
	}

	sh, ok := f.Sheet[sheetName]
	if !ok {
		t.Fatalf("expected sheet %q", sheetName)
	}

	// título + separador + headers + 7 filas de datos
	if sh.MaxRow != 3+len(rows) {
		t.Fatalf("expected %d rows in sheet, got %d", 3+len(rows), sh.MaxRow)
	}

	cell, err := sh.Cell(2, 0)
	if err != nil {
		t.Fatalf("Cell error: %v", err)
	}
	if cell.String() != "Date" {
		t.Fatalf("expected header Date, got %q", cell.String())
	}

	cell, err = sh.Cell(3, 2)
	if err != nil {
		t.Fatalf("Cell error: %v", err)
	}
	if cell.String() != "Aspirin" {
		t.Fatalf("expected first data row medicine Aspirin, got %q", cell.String())
	}
}
