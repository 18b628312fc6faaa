package records

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/almeera/ultah/internal/logging"
	"github.com/google/go-cmp/cmp"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 9, 0, 0, 0, time.Local)
	}
}

func TestUpdateReminders_MatchesToday(t *testing.T) {
	now := time.Now()
	rs := []*Record{
		FromPairs("Nama", "Alice", "Tanggal lahir", fmt.Sprintf("%02d/%02d/1990", now.Day(), int(now.Month())), "ULTAH REMINDER", ""),
		FromPairs("Nama", "Bob", "Tanggal lahir", "15/06/1985", "ULTAH REMINDER", ""),
	}
	// Keep Bob off today's date whatever day the test runs.
	if now.Month() == time.June && now.Day() == 15 {
		rs[1].Set("Tanggal lahir", "16/06/1985")
	}

	changed, err := UpdateReminders(rs, "")
	if err != nil {
		t.Fatalf("update reminders: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected 1 changed record, got %d", changed)
	}
	if got := rs[0].Value("ULTAH REMINDER"); got != Sentinel {
		t.Fatalf("expected Alice flagged, got %q", got)
	}
	if got := rs[1].Value("ULTAH REMINDER"); got != "" {
		t.Fatalf("expected Bob cleared, got %q", got)
	}
}

func TestUpdater_IdempotentSameDay(t *testing.T) {
	u := Updater{Now: fixedClock(2026, time.December, 9)}
	rs := []*Record{
		FromPairs("Nama", "Alice", "Tanggal lahir", "09/12/1990"),
		FromPairs("Nama", "Bob", "Tanggal lahir", "1985-06-15", "ULTAH REMINDER", Sentinel),
	}

	first, err := u.Update(rs, "")
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first != 2 {
		t.Fatalf("expected 2 changes on first pass, got %d", first)
	}

	second, err := u.Update(rs, "")
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second != 0 {
		t.Fatalf("expected no changes on second pass, got %d", second)
	}
}

func TestUpdater_ClearsStaleReminderOnLaterDay(t *testing.T) {
	rs := []*Record{FromPairs("Nama", "Alice", "Tanggal lahir", "09/12/1990")}

	onBirthday := Updater{Now: fixedClock(2026, time.December, 9)}
	if changed, _ := onBirthday.Update(rs, ""); changed != 1 {
		t.Fatalf("expected flag on birthday, changed=%d", changed)
	}

	nextDay := Updater{Now: fixedClock(2026, time.December, 10)}
	changed, err := nextDay.Update(rs, "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected stale flag to count as change, got %d", changed)
	}
	if got, ok := rs[0].Get("ULTAH REMINDER"); !ok || got != "" {
		t.Fatalf("expected reminder cleared to empty, got %q (present=%v)", got, ok)
	}
}

func TestUpdater_FallbackMonthDayFields(t *testing.T) {
	u := Updater{Now: fixedClock(2026, time.March, 7)}
	rs := []*Record{
		FromPairs("Nama", "A", "Tanggal lahir", "", "BULAN", "3", "TANGGAL", "7"),
		FromPairs("Nama", "B", "Tanggal lahir", "unknown", "BULAN", " 03 ", "TANGGAL", "07"),
		FromPairs("Nama", "C", "BULAN", "3", "TANGGAL", ""),
		FromPairs("Nama", "D", "BULAN", "maret", "TANGGAL", "7"),
		// A parseable date wins over the fallback columns.
		FromPairs("Nama", "E", "Tanggal lahir", "08/03/1999", "BULAN", "3", "TANGGAL", "7"),
	}

	changed, err := u.Update(rs, "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 changes, got %d", changed)
	}
	want := []string{Sentinel, Sentinel, "", "", ""}
	for i, r := range rs {
		if got := r.Value("ULTAH REMINDER"); got != want[i] {
			t.Fatalf("record %s: expected %q, got %q", r.Value("Nama"), want[i], got)
		}
	}
	if _, ok := rs[2].Get("ULTAH REMINDER"); ok {
		t.Fatalf("unchanged empty reminder should not add the field")
	}
}

func TestUpdater_CustomFields(t *testing.T) {
	u := Updater{
		Fields: Fields{DateOfBirth: "dob", Reminder: "flag"},
		Now:    fixedClock(2026, time.July, 1),
	}
	rs := []*Record{FromPairs("dob", "2000-07-01")}

	if changed, err := u.Update(rs, ""); err != nil || changed != 1 {
		t.Fatalf("update: changed=%d err=%v", changed, err)
	}
	if rs[0].Value("flag") != Sentinel {
		t.Fatalf("expected custom reminder field to be set, got %#v", fieldMap(rs[0]))
	}
}

func TestUpdater_SnapshotNormalizesHeterogeneousKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "updated_leads.csv")
	u := Updater{Now: fixedClock(2026, time.December, 9)}
	rs := []*Record{
		FromPairs("Nama", "Alice", "Tanggal lahir", "09/12/1990"),
		FromPairs("Nama", "Bob", "No Whatsapp", "0812", "Tanggal lahir", "01/01/1980"),
	}

	if _, err := u.Update(rs, path); err != nil {
		t.Fatalf("update: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	want := "Nama,Tanggal lahir,ULTAH REMINDER,No Whatsapp\n" +
		"Alice,09/12/1990,ULTAH HARI INI,\n" +
		"Bob,01/01/1980,,0812\n"
	if diff := cmp.Diff(want, string(raw)); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	// The in-memory set keeps its own key sets.
	if _, ok := rs[0].Get("No Whatsapp"); ok {
		t.Fatalf("normalization must not mutate source records")
	}
}

func TestUpdater_SnapshotFailureKeepsMutation(t *testing.T) {
	boom := errors.New("disk full")
	u := Updater{
		Now:  fixedClock(2026, time.December, 9),
		Save: func(string, []*Record) error { return boom },
	}
	rs := []*Record{FromPairs("Tanggal lahir", "09/12/1990")}

	changed, err := u.Update(rs, "snapshot.csv")
	if !errors.Is(err, boom) {
		t.Fatalf("expected snapshot error, got %v", err)
	}
	if changed != 1 || rs[0].Value("ULTAH REMINDER") != Sentinel {
		t.Fatalf("expected mutation to survive snapshot failure, changed=%d", changed)
	}
}

func TestFilterByField(t *testing.T) {
	rs := []*Record{
		FromPairs("Nama", "Alice", "Status", "ULTAH HARI INI"),
		FromPairs("Nama", "Bob", "Status", ""),
		FromPairs("Nama", "Charlie", "Status", " ULTAH HARI INI "),
	}

	got := FilterByField(rs, "Status", "ULTAH HARI INI")
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Value("Nama") != "Alice" || got[1].Value("Nama") != "Charlie" {
		t.Fatalf("unexpected order: %q, %q", got[0].Value("Nama"), got[1].Value("Nama"))
	}
	if got[0] != rs[0] {
		t.Fatalf("expected filtered records to share identity with the source set")
	}
}

func TestFilterByField_AbsentFieldMatchesEmpty(t *testing.T) {
	rs := []*Record{
		FromPairs("Nama", "Alice"),
		FromPairs("Nama", "Bob", "Status", "x"),
	}
	got := FilterByField(rs, "Status", "  ")
	if len(got) != 1 || got[0].Value("Nama") != "Alice" {
		t.Fatalf("expected only Alice, got %d records", len(got))
	}
}

func TestBirthdays(t *testing.T) {
	rs := []*Record{
		FromPairs("Nama", "A", "ULTAH REMINDER", Sentinel),
		FromPairs("Nama", "B", "ULTAH REMINDER", ""),
	}
	got := Birthdays(rs, Fields{})
	if len(got) != 1 || got[0].Value("Nama") != "A" {
		t.Fatalf("unexpected birthdays: %d", len(got))
	}
}
