package records

import (
	"strconv"
	"strings"
	"time"

	"github.com/almeera/ultah/internal/logging"
)

// Sentinel marks a record whose birthday is today.
const Sentinel = "ULTAH HARI INI"

// Fields names the columns the reminder pass reads and writes.
type Fields struct {
	DateOfBirth string
	Reminder    string
	Month       string
	Day         string
}

// DefaultFields returns the column names used by the clinic's lead sheet.
func DefaultFields() Fields {
	return Fields{
		DateOfBirth: "Tanggal lahir",
		Reminder:    "ULTAH REMINDER",
		Month:       "BULAN",
		Day:         "TANGGAL",
	}
}

func (f Fields) withDefaults() Fields {
	d := DefaultFields()
	if f.DateOfBirth == "" {
		f.DateOfBirth = d.DateOfBirth
	}
	if f.Reminder == "" {
		f.Reminder = d.Reminder
	}
	if f.Month == "" {
		f.Month = d.Month
	}
	if f.Day == "" {
		f.Day = d.Day
	}
	return f
}

// Updater recomputes the reminder field of every record for one day. The zero
// value uses DefaultFields, the wall clock, and Save.
type Updater struct {
	Fields Fields
	Now    func() time.Time
	Save   func(path string, rs []*Record) error
}

// Update sets the reminder field to Sentinel on records whose birthday is
// today and clears it everywhere else, returning how many records changed.
// When snapshotPath is set, a normalized copy of rs is written there. The
// returned error only reports a snapshot failure; rs stays updated.
func (u *Updater) Update(rs []*Record, snapshotPath string) (int, error) {
	fields := u.Fields.withDefaults()
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	today := Of(now())

	changed := 0
	for _, r := range rs {
		md, ok := resolveBirthday(r, fields)
		target := ""
		if ok && md == today {
			target = Sentinel
		}
		if r.Value(fields.Reminder) != target {
			r.Set(fields.Reminder, target)
			changed++
		}
	}
	logging.Logger().Info("updated birthday reminders", "records", len(rs), "changed", changed)

	if snapshotPath == "" {
		return changed, nil
	}
	save := Save
	if u.Save != nil {
		save = u.Save
	}
	if err := save(snapshotPath, Normalize(rs)); err != nil {
		return changed, err
	}
	return changed, nil
}

// UpdateReminders runs an Updater with default fields against the wall clock.
func UpdateReminders(rs []*Record, snapshotPath string) (int, error) {
	var u Updater
	return u.Update(rs, snapshotPath)
}

func resolveBirthday(r *Record, fields Fields) (MonthDay, bool) {
	if md, ok := ParseDate(r.Value(fields.DateOfBirth)); ok {
		return md, true
	}
	month, err := strconv.Atoi(strings.TrimSpace(r.Value(fields.Month)))
	if err != nil {
		return MonthDay{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(r.Value(fields.Day)))
	if err != nil {
		return MonthDay{}, false
	}
	return MonthDay{Month: month, Day: day}, true
}

// FilterByField returns the records whose trimmed field value equals the
// trimmed want, in their original order. Absent fields read as "".
func FilterByField(rs []*Record, field, want string) []*Record {
	want = strings.TrimSpace(want)
	var out []*Record
	for _, r := range rs {
		if strings.TrimSpace(r.Value(field)) == want {
			out = append(out, r)
		}
	}
	return out
}

// Birthdays returns the records flagged with Sentinel in the reminder field.
func Birthdays(rs []*Record, fields Fields) []*Record {
	return FilterByField(rs, fields.withDefaults().Reminder, Sentinel)
}
