package export

import (
	"testing"
	"time"

	"github.com/Spok95/school-app-bot/internal/audit"
)

func TestNewAuditWorkbook(t *testing.T) {
	loc := time.UTC
	events := []audit.Event{
		{DeviceID: 100, UserID: 7, Event: "login", Detail: "teacher",
			CreatedAt: time.Date(2026, 2, 1, 10, 30, 0, 0, loc)},
		{DeviceID: 100, UserID: 7, Event: "logout",
			CreatedAt: time.Date(2026, 2, 1, 11, 0, 0, 0, loc)},
	}

	wb, err := NewAuditWorkbook([]SheetSpec{BuildAuditSheet(events, loc)})
	if err != nil {
		t.Fatalf("сборка книги: %v", err)
	}

	sheets := wb.File.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Журнал" {
		t.Fatalf("ожидали единственный лист 'Журнал', получили %v", sheets)
	}

	if got, _ := wb.File.GetCellValue("Журнал", "A1"); got != "Время" {
		t.Fatalf("заголовок A1: %q", got)
	}
	if got, _ := wb.File.GetCellValue("Журнал", "D2"); got != "login" {
		t.Fatalf("ожидали событие login в D2, получили %q", got)
	}
	if got, _ := wb.File.GetCellValue("Журнал", "E2"); got != "teacher" {
		t.Fatalf("ожидали деталь teacher в E2, получили %q", got)
	}
	if got, _ := wb.File.GetCellValue("Журнал", "A2"); got != "01.02.2026 10:30:00" {
		t.Fatalf("формат времени: %q", got)
	}
}

func TestColName(t *testing.T) {
	cases := map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 28: "AB"}
	for n, want := range cases {
		if got := colName(n); got != want {
			t.Fatalf("colName(%d): ожидали %q, получили %q", n, want, got)
		}
	}
}
