package archive

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/scharissis/coh3-replay-analyser/internal/filter"
	"github.com/scharissis/coh3-replay-analyser/internal/model"
)

func openStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	store, err := OpenAndMigrate(ctx, filepath.Join(t.TempDir(), "nested", "archive.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, ctx
}

func str(s string) *string { return &s }

func sampleReport() model.ReplayReport {
	version := uint16(10612)
	build := model.Command{Timestamp: 5000, CommandType: model.CategoryBuildSquad, PBGID: str("198355")}
	ability := model.Command{Timestamp: 125, CommandType: model.CategoryUseAbility}
	return model.ReplayReport{
		Success:         true,
		MapName:         "twin_beach",
		MapFilename:     "id_11240",
		DurationSeconds: 1200,
		DurationTicks:   9600,
		GameVersion:     &version,
		GameType:        str("Skirmish"),
		MatchHistoryID:  str("987654"),
		Teams:           []model.Team{},
		Players: []model.Player{
			{
				PlayerID:      0,
				PlayerName:    "alice",
				TeamID:        1,
				Faction:       str("Americans"),
				IsHuman:       true,
				Commands:      []model.Command{build, ability, build},
				BuildCommands: []model.Command{build, build},
				ChatMessages:  []model.GameMessage{},
			},
			{PlayerID: 1, PlayerName: "bob", TeamID: 2},
		},
		Messages: []model.GameMessage{},
	}
}

func TestSaveGetAndReport(t *testing.T) {
	store, ctx := openStore(t)
	created := time.Date(2024, 3, 1, 18, 22, 5, 0, time.UTC)

	entry, err := store.Save(ctx, SaveInput{
		SourceName: "match.json",
		Content:    []byte("replay bytes"),
		Policy:     filter.BuildOnly(),
		Report:     sampleReport(),
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if entry.ReportID == "" || entry.PlayerCount != 2 || entry.PayloadBytes == 0 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	got, err := store.Get(ctx, entry.ReportID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SourceName != "match.json" || got.MapName != "twin_beach" || !got.Success || got.DurationSeconds != 1200 {
		t.Fatalf("unexpected stored entry: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at=%v want=%v", got.CreatedAt, created)
	}
	if got.GameVersion == nil || *got.GameVersion != 10612 || got.GameType == nil || *got.GameType != "Skirmish" {
		t.Fatalf("migration 2 columns not round-tripped: %+v", got)
	}
	if got.MatchHistoryID == nil || *got.MatchHistoryID != "987654" || got.ErrorMessage != nil {
		t.Fatalf("optional columns: %+v", got)
	}
	if got.FilterKey != FilterKey(filter.BuildOnly()) {
		t.Fatalf("filter key=%q", got.FilterKey)
	}

	report, err := store.Report(ctx, entry.ReportID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Players) != 2 || report.Players[0].Commands[0].PBGID == nil || *report.Players[0].Commands[0].PBGID != "198355" {
		t.Fatalf("payload not round-tripped: %+v", report)
	}
}

func TestSaveDuplicate(t *testing.T) {
	store, ctx := openStore(t)
	in := SaveInput{SourceName: "a", Content: []byte("same"), Policy: filter.BuildOnly(), Report: sampleReport()}

	first, err := store.Save(ctx, in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := store.Save(ctx, in)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if again.ReportID != first.ReportID {
		t.Fatalf("duplicate should return existing id %q, got %q", first.ReportID, again.ReportID)
	}

	in.Policy = filter.AllCommands()
	if _, err := store.Save(ctx, in); err != nil {
		t.Fatalf("same content under another policy should be stored: %v", err)
	}
	n, err := store.CountRows(ctx, "reports")
	if err != nil || n != 2 {
		t.Fatalf("reports=%d err=%v", n, err)
	}
}

func TestConcurrentDuplicateSavesShareID(t *testing.T) {
	store, ctx := openStore(t)
	in := SaveInput{SourceName: "a", Content: []byte("race"), Policy: filter.BuildOnly(), Report: sampleReport()}

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := store.Save(ctx, in)
			ids[i], errs[i] = entry.ReportID, err
		}()
	}
	wg.Wait()

	stored := 0
	for i := range workers {
		switch {
		case errs[i] == nil:
			stored++
		case !errors.Is(errs[i], ErrDuplicate):
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] == "" || ids[i] != ids[0] {
			t.Fatalf("worker %d got id %q, want %q", i, ids[i], ids[0])
		}
	}
	if stored != 1 {
		t.Fatalf("stored=%d, want exactly one insert", stored)
	}
}

func TestCommandCounts(t *testing.T) {
	store, ctx := openStore(t)
	entry, err := store.Save(ctx, SaveInput{Content: []byte("x"), Policy: filter.BuildOnly(), Report: sampleReport()})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	counts, err := store.CommandCounts(ctx, entry.ReportID)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("counts=%+v", counts)
	}
	byType := map[model.CommandCategory]CommandCount{}
	for _, c := range counts {
		byType[c.CommandType] = c
	}
	if c := byType[model.CategoryBuildSquad]; c.Total != 2 || c.Filtered != 2 {
		t.Fatalf("build_squad=%+v", c)
	}
	if c := byType[model.CategoryUseAbility]; c.Total != 1 || c.Filtered != 0 {
		t.Fatalf("use_ability=%+v", c)
	}
}

func TestFailureReportIsArchived(t *testing.T) {
	store, ctx := openStore(t)
	entry, err := store.Save(ctx, SaveInput{Content: []byte("bad"), Report: model.FailureReport("Failed to parse replay: boom")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if entry.Success || entry.ErrorMessage == nil || entry.FilterKey != "none" {
		t.Fatalf("unexpected failure entry: %+v", entry)
	}

	list, err := store.List(ctx, ListOptions{SuccessOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("success-only list should be empty, got %d", len(list))
	}
}

func TestListOrderAndPaging(t *testing.T) {
	store, ctx := openStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		e, err := store.Save(ctx, SaveInput{
			Content:   []byte{byte(i)},
			Report:    sampleReport(),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		ids = append(ids, e.ReportID)
	}

	list, err := store.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ReportID != ids[2] || list[2].ReportID != ids[0] {
		t.Fatalf("list not newest first: %+v", list)
	}

	page, err := store.List(ctx, ListOptions{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 1 || page[0].ReportID != ids[1] {
		t.Fatalf("page=%+v", page)
	}
}

func TestDeleteAndPurge(t *testing.T) {
	store, ctx := openStore(t)
	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	a, err := store.Save(ctx, SaveInput{Content: []byte("a"), Report: sampleReport(), CreatedAt: old})
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	b, err := store.Save(ctx, SaveInput{Content: []byte("b"), Report: sampleReport(), CreatedAt: recent})
	if err != nil {
		t.Fatalf("save b: %v", err)
	}

	n, err := store.PurgeBefore(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || n != 1 {
		t.Fatalf("purge=%d err=%v", n, err)
	}
	if _, err := store.Get(ctx, a.ReportID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected purged report to be gone, got %v", err)
	}
	players, err := store.CountRows(ctx, "report_players")
	if err != nil || players != 2 {
		t.Fatalf("report_players=%d err=%v (cascade)", players, err)
	}

	if err := store.Delete(ctx, b.ReportID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, b.ReportID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := store.Report(ctx, b.ReportID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted payload, got %v", err)
	}
	counts, err := store.CountRows(ctx, "report_command_counts")
	if err != nil || counts != 0 {
		t.Fatalf("report_command_counts=%d err=%v", counts, err)
	}
}
