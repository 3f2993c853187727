package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/boothdesk/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(DriverSQLite, filepath.Join(dir, "boothdesk.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func importCSV(t *testing.T, st *Store, table, data string) int {
	t.Helper()
	records, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	n, err := st.Import(context.Background(), table, records)
	if err != nil {
		t.Fatalf("import %s: %v", table, err)
	}
	return n
}

func seed(t *testing.T, st *Store) {
	t.Helper()
	importCSV(t, st, "district", "id,name\n1,Kottayam\n")
	importCSV(t, st, "assembly", "id,district_id,number,name\n10,1,93,Pala\n11,1,94,Kaduthuruthy\n")
	importCSV(t, st, "localbody", "id,district_id,name,type\n20,1,Pala,Municipality\n21,1,Meenachil,Grama Panchayat\n")
	importCSV(t, st, "booth", strings.Join([]string{
		"id,assembly_id,number,suffix,name,localbody_id,winnable,gap_percent,verdict",
		"100,10,1,,Govt LPS,20,true,2.5,MAJORITY",
		"101,10,2,A,Town Hall,,,,",
		"102,11,1,,St Marys HS,,,,",
	}, "\n"))
	importCSV(t, st, "ward", "id,localbody_id,number,name,assembly_id\n200,20,1,Market,10\n201,20,2,Temple,\n")
	importCSV(t, st, "booth_vote", strings.Join([]string{
		"booth_id,candidate,party,alliance,votes",
		"100,Anil,CPI(M),LDF,120",
		"100,Biju,INC,UDF,80",
		"100,Cini,KC(M),UDF,5",
		"100,Devi,IND,XYZ,20",
		"101,Anil,CPI(M),LDF,30",
		"102,Anil,CPI(M),LDF,99",
	}, "\n"))
}

func TestOptions(t *testing.T) {
	st := openTestStore(t)
	seed(t, st)
	ctx := context.Background()

	districts, err := st.Districts(ctx)
	if err != nil {
		t.Fatalf("districts: %v", err)
	}
	if len(districts) != 1 || districts[0].Name != "Kottayam" {
		t.Fatalf("unexpected districts: %+v", districts)
	}
	assemblies, err := st.Assemblies(ctx, 1)
	if err != nil {
		t.Fatalf("assemblies: %v", err)
	}
	if len(assemblies) != 2 || assemblies[0].Number != "93" {
		t.Fatalf("unexpected assemblies: %+v", assemblies)
	}
	localbodies, err := st.Localbodies(ctx, 1)
	if err != nil {
		t.Fatalf("localbodies: %v", err)
	}
	if len(localbodies) != 2 || localbodies[1].Type != "Grama Panchayat" {
		t.Fatalf("unexpected localbodies: %+v", localbodies)
	}
	empty, err := st.Assemblies(ctx, 99)
	if err != nil {
		t.Fatalf("assemblies: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}
}

func TestEntities(t *testing.T) {
	st := openTestStore(t)
	seed(t, st)
	ctx := context.Background()

	booths, err := st.Entities(ctx, model.KindBooth, 10)
	if err != nil {
		t.Fatalf("booths: %v", err)
	}
	if len(booths) != 2 {
		t.Fatalf("expected 2 booths, got %d", len(booths))
	}
	first := booths[0]
	if first.AssignedID == nil || *first.AssignedID != 20 || first.AssignedName != "Pala" || first.AssignedType != "Municipality" {
		t.Fatalf("unexpected assignment: %+v", first)
	}
	if first.Verdict == nil || !first.Verdict.Winnable || first.Verdict.Class != model.VerdictMajority {
		t.Fatalf("unexpected verdict: %+v", first.Verdict)
	}
	if booths[1].DisplayNumber() != "2A" || booths[1].AssignedID != nil || booths[1].Verdict != nil {
		t.Fatalf("unexpected second booth: %+v", booths[1])
	}

	wards, err := st.Entities(ctx, model.KindWard, 20)
	if err != nil {
		t.Fatalf("wards: %v", err)
	}
	if len(wards) != 2 || wards[0].AssignedName != "Pala" || wards[1].AssignedID != nil {
		t.Fatalf("unexpected wards: %+v", wards)
	}
}

func TestVoteRowsSumsByAlliance(t *testing.T) {
	st := openTestStore(t)
	seed(t, st)

	rows, err := st.VoteRows(context.Background(), model.KindBooth, 10)
	if err != nil {
		t.Fatalf("vote rows: %v", err)
	}
	got := map[int64]map[string]int64{}
	for _, r := range rows {
		if got[r.EntityID] == nil {
			got[r.EntityID] = map[string]int64{}
		}
		got[r.EntityID][r.Alliance] = r.Votes
	}
	if got[100]["UDF"] != 85 || got[100]["LDF"] != 120 || got[100]["XYZ"] != 20 {
		t.Fatalf("unexpected booth 100 votes: %v", got[100])
	}
	if got[101]["LDF"] != 30 {
		t.Fatalf("unexpected booth 101 votes: %v", got[101])
	}
	if _, ok := got[102]; ok {
		t.Fatalf("expected booth 102 outside the scope")
	}
	if rows[0].EntityID != 100 {
		t.Fatalf("expected rows ordered by entity id, got %+v", rows[0])
	}
}

func TestAssignAndClear(t *testing.T) {
	st := openTestStore(t)
	seed(t, st)
	ctx := context.Background()

	target := int64(21)
	n, err := st.Assign(ctx, model.KindBooth, []int64{100, 101}, &target)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows updated, got %d", n)
	}
	booths, err := st.Entities(ctx, model.KindBooth, 10)
	if err != nil {
		t.Fatalf("booths: %v", err)
	}
	for _, b := range booths {
		if b.AssignedID == nil || *b.AssignedID != 21 {
			t.Fatalf("expected booth %d assigned to 21, got %+v", b.ID, b.AssignedID)
		}
	}

	if _, err := st.Assign(ctx, model.KindBooth, []int64{100}, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	booths, err = st.Entities(ctx, model.KindBooth, 10)
	if err != nil {
		t.Fatalf("booths: %v", err)
	}
	if booths[0].AssignedID != nil {
		t.Fatalf("expected booth 100 unassigned, got %v", *booths[0].AssignedID)
	}
}

func TestAssignUnknownTarget(t *testing.T) {
	st := openTestStore(t)
	seed(t, st)

	target := int64(999)
	_, err := st.Assign(context.Background(), model.KindWard, []int64{200}, &target)
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
}

func TestImportUpsertsByKey(t *testing.T) {
	st := openTestStore(t)
	seed(t, st)

	if n := importCSV(t, st, "district", "id,name\n1,Kottayam North\n2,Idukki\n\n"); n != 2 {
		t.Fatalf("expected 2 rows imported, got %d", n)
	}
	districts, err := st.Districts(context.Background())
	if err != nil {
		t.Fatalf("districts: %v", err)
	}
	if len(districts) != 2 || districts[0].Name != "Kottayam North" {
		t.Fatalf("unexpected districts after upsert: %+v", districts)
	}
}

func TestImportRejectsBadHeaders(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.Import(ctx, "district", [][]string{{"id", "colour"}}); err == nil {
		t.Fatalf("expected unknown column error")
	}
	if _, err := st.Import(ctx, "district", [][]string{{"name"}}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := st.Import(ctx, "sessions", [][]string{{"id"}}); err == nil {
		t.Fatalf("expected unknown table error")
	}
}

func TestImportFileXLSX(t *testing.T) {
	st := openTestStore(t)
	path := filepath.Join(t.TempDir(), "districts.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{{"id", "name"}, {3, "Alappuzha"}}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &rows[i]); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = f.Close()

	n, err := st.ImportFile(context.Background(), "district", path)
	if err != nil {
		t.Fatalf("import file: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row imported, got %d", n)
	}
	districts, err := st.Districts(context.Background())
	if err != nil {
		t.Fatalf("districts: %v", err)
	}
	if len(districts) != 1 || districts[0].ID != 3 {
		t.Fatalf("unexpected districts: %+v", districts)
	}
}

func TestImportFileRejectsUnknownExtension(t *testing.T) {
	st := openTestStore(t)
	path := filepath.Join(t.TempDir(), "districts.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := st.ImportFile(context.Background(), "district", path); err == nil {
		t.Fatalf("expected unsupported file error")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
