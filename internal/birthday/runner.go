// Package birthday runs the daily pass: flag today's birthdays, write each
// customer a greeting, and deliver or preview it.
package birthday

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/almeera/ultah/internal/agent"
	"github.com/almeera/ultah/internal/channels"
	"github.com/almeera/ultah/internal/config"
	"github.com/almeera/ultah/internal/logging"
	"github.com/almeera/ultah/internal/records"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// Mode selects what happens to generated greetings.
type Mode int

const (
	// ModePreview prints greetings without sending them.
	ModePreview Mode = iota
	// ModeSend delivers greetings through the Sender and records the outcome.
	ModeSend
)

const (
	defaultName  = "Kak"
	defaultPhone = "-"
)

// Options locates the data files and names the sheet columns for one pass.
type Options struct {
	RecordsPath  string
	SnapshotPath string
	ReportDir    string

	Fields       records.Fields
	NameAliases  []string
	PhoneAliases []string

	TitleCaseNames bool
	Mode           Mode
	WriteReport    bool
}

// OptionsFromConfig resolves data paths against the home directory.
func OptionsFromConfig(cfg *config.Config, mode Mode) Options {
	return Options{
		RecordsPath:  cfg.RecordsPath(),
		SnapshotPath: cfg.SnapshotPath(),
		ReportDir:    cfg.ReportDir(),
		Fields: records.Fields{
			DateOfBirth: cfg.Fields.DateOfBirth,
			Reminder:    cfg.Fields.Reminder,
			Month:       cfg.Fields.Month,
			Day:         cfg.Fields.Day,
		},
		NameAliases:    cfg.Fields.NameAliases,
		PhoneAliases:   cfg.Fields.PhoneAliases,
		TitleCaseNames: cfg.Messages.TitleCaseNames,
		Mode:           mode,
		WriteReport:    mode == ModeSend,
	}
}

// Runner executes one birthday pass. Generator, Sender, and Notifier may be
// nil: greetings then use the fallback template, sends are skipped with a
// failed delivery, and no digest is posted.
type Runner struct {
	Options

	Generator *agent.Generator
	Sender    channels.Sender
	// Notifier receives a staff digest after a send pass.
	Notifier channels.Sender

	// Out receives human-readable progress. Nil discards it.
	Out io.Writer
	// Progress shows a progress bar on stderr while sending.
	Progress bool

	Now  func() time.Time
	Load func(path string) ([]*records.Record, error)
	Save func(path string, rs []*records.Record) error
}

// Entry is the outcome for one birthday customer.
type Entry struct {
	Timestamp time.Time
	Name      string
	Phone     string
	Message   string
	Outgoing  string
	Fallback  bool
	Delivery  channels.Delivery
}

// Summary reports one pass.
type Summary struct {
	RunID      string
	Date       time.Time
	Loaded     int
	Updated    int
	Entries    []Entry
	ReportPath string
}

// Targets returns how many records were flagged for today.
func (s *Summary) Targets() int {
	return len(s.Entries)
}

// Count returns how many deliveries ended with status.
func (s *Summary) Count(status channels.Status) int {
	n := 0
	for _, e := range s.Entries {
		if e.Delivery.Status == status {
			n++
		}
	}
	return n
}

// Run loads the records, refreshes the reminder flags, and greets every
// customer flagged for today. Collaborator failures degrade per customer;
// only a load failure, a report write failure, or cancellation is returned.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	now := r.now()
	summary := &Summary{RunID: uuid.NewString(), Date: now}
	log := logging.Logger().With("run_id", summary.RunID)

	rs, err := r.load(r.RecordsPath)
	if err != nil {
		return summary, fmt.Errorf("load records: %w", err)
	}
	summary.Loaded = len(rs)
	if len(rs) == 0 {
		r.printf("No data loaded; check data.records_path (%s).\n", r.RecordsPath)
		return summary, nil
	}

	updater := records.Updater{
		Fields: r.Fields,
		Now:    func() time.Time { return now },
		Save:   r.Save,
	}
	changed, err := updater.Update(rs, r.SnapshotPath)
	if err != nil {
		log.Warn("write reminder snapshot failed", "path", r.SnapshotPath, "err", err)
	}
	summary.Updated = changed
	r.printf("Updated %d rows (reminder flags).\n", changed)

	targets := records.Birthdays(rs, r.Fields)
	r.printf("Found %d target(s) for today.\n", len(targets))
	log.Info("birthday pass started", "records", len(rs), "targets", len(targets), "mode", r.Mode.String())

	// A canceled pass stops greeting but still reports what went out.
	var canceled error
	bar := r.newProgressBar(len(targets))
	for _, rec := range targets {
		if canceled = ctx.Err(); canceled != nil {
			log.Warn("birthday pass canceled", "greeted", len(summary.Entries), "targets", len(targets))
			break
		}

		log.Debug("greeting target", "record", rec)
		entry := r.greet(ctx, rec)
		switch r.Mode {
		case ModeSend:
			entry.Delivery = r.send(ctx, entry.Phone, entry.Outgoing)
			log.Info("birthday greeting delivered",
				"phone", entry.Phone,
				"status", string(entry.Delivery.Status),
				"fallback", entry.Fallback,
			)
			if bar != nil {
				_ = bar.Add(1)
			}
		default:
			r.printf("==== Message ====\nTo: %s | Name: %s\n%s\n\n", entry.Phone, entry.Name, entry.Message)
		}
		summary.Entries = append(summary.Entries, entry)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if r.Mode != ModeSend {
		return summary, canceled
	}

	if r.WriteReport {
		if err := r.writeReport(summary); err != nil {
			return summary, err
		}
	}
	for _, e := range summary.Entries {
		r.printf("To: %s (%s) - Sent: %s\n", e.Name, e.Phone, e.Delivery.ReportValue())
	}
	r.notify(context.WithoutCancel(ctx), summary)
	if canceled != nil {
		return summary, canceled
	}

	log.Info("birthday pass complete",
		"targets", summary.Targets(),
		"sent", summary.Count(channels.StatusSent),
		"failed", summary.Count(channels.StatusFailed),
		"simulated", summary.Count(channels.StatusSimulated),
	)
	return summary, nil
}

func (r *Runner) greet(ctx context.Context, rec *records.Record) Entry {
	name := records.FirstNonEmpty(rec, r.NameAliases, defaultName)
	if r.TitleCaseNames {
		name = agent.TitleName(name)
	}
	phone, ok := records.Lookup(rec, r.PhoneAliases)
	if !ok {
		phone = defaultPhone
	}

	result := r.Generator.Generate(ctx, name)
	return Entry{
		Timestamp: r.now(),
		Name:      name,
		Phone:     phone,
		Message:   result.Text,
		Outgoing:  agent.OutgoingText(name, result.Text),
		Fallback:  result.Fallback,
	}
}

func (r *Runner) send(ctx context.Context, phone, text string) channels.Delivery {
	if r.Sender == nil {
		return channels.Delivery{Status: channels.StatusFailed, Response: "no sender configured"}
	}
	return r.Sender.Send(ctx, phone, text)
}

func (r *Runner) writeReport(summary *Summary) error {
	if len(summary.Entries) == 0 {
		r.printf("No report rows to write.\n")
		return nil
	}
	path := ReportPath(r.ReportDir, summary.Date)
	rows := make([]*records.Record, 0, len(summary.Entries))
	for _, e := range summary.Entries {
		rows = append(rows, e.ReportRecord())
	}
	if err := r.save(path, rows); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	summary.ReportPath = path
	r.printf("Wrote report to %s\n", path)
	return nil
}

func (r *Runner) notify(ctx context.Context, summary *Summary) {
	if r.Notifier == nil {
		return
	}
	d := r.Notifier.Send(ctx, "", Digest(summary))
	if !d.OK() {
		logging.Logger().Warn("staff digest not delivered",
			"run_id", summary.RunID,
			"status", string(d.Status),
			"response", d.Response,
		)
	}
}

func (r *Runner) newProgressBar(count int) *progressbar.ProgressBar {
	if !r.Progress || r.Mode != ModeSend || count == 0 {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Sending greetings"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("messages"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)
}

func (r *Runner) printf(format string, args ...any) {
	if r.Out == nil {
		return
	}
	_, _ = fmt.Fprintf(r.Out, format, args...)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) load(path string) ([]*records.Record, error) {
	if r.Load != nil {
		return r.Load(path)
	}
	return records.Load(path)
}

func (r *Runner) save(path string, rs []*records.Record) error {
	if r.Save != nil {
		return r.Save(path, rs)
	}
	return records.Save(path, rs)
}

// ReportPath returns the per-day report file inside dir.
func ReportPath(dir string, day time.Time) string {
	return filepath.Join(dir, "birthday_report_"+day.Format("20060102")+".csv")
}

func (m Mode) String() string {
	if m == ModeSend {
		return "send"
	}
	return "preview"
}
