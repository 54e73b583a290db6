package feed

import (
	"strings"
	"testing"
)

func TestReadRecords_SkipsBlankAndReportsMalformedLines(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"sourcePlatform":"gotsport","sourceMatchKey":"g-1","homeName":"Sporting BV Pre-NAL 15","awayName":"KC Fusion 15B Elite","date":"2025-09-06","homeScore":2,"awayScore":1}`,
		``,
		`{"sourcePlatform":"gotsport","sourceMatchKey":`,
		`  {"sourcePlatform":"sincsports","sourceMatchKey":"s-9","homeName":"Solar SC ECNL B12","awayName":"FC Dallas 2012","date":"2025-09-07","divisionHint":"U13 Boys"}  `,
	}, "\n")

	records, invalid, err := ReadRecords(t.Context(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].HomeScore == nil || *records[0].HomeScore != 2 {
		t.Fatalf("score not decoded: %+v", records[0])
	}
	if records[1].DivisionHint != "U13 Boys" {
		t.Fatalf("division hint not decoded: %+v", records[1])
	}
	if len(invalid) != 1 || invalid[0].Line != 3 {
		t.Fatalf("expected line 3 reported as malformed, got %+v", invalid)
	}
}

func TestReadRatings(t *testing.T) {
	t.Parallel()

	input := `{"teamId":"team-a","rating":1510.2,"nationalRank":88,"date":"2026-01-15"}
{"teamId":"team-b","rating":1475,"date":"2025-11-15"}`

	rows, invalid, err := ReadRatings(t.Context(), strings.NewReader(input))
	if err != nil || len(invalid) != 0 {
		t.Fatalf("read: err=%v invalid=%v", err, invalid)
	}
	if len(rows) != 2 || rows[0].NationalRank == nil || *rows[0].NationalRank != 88 || rows[1].NationalRank != nil {
		t.Fatalf("unexpected rating rows: %+v", rows)
	}
}
