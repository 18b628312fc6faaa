package birthday

import (
	"fmt"
	"strings"
	"time"

	"github.com/almeera/ultah/internal/channels"
	"github.com/almeera/ultah/internal/records"
)

// Report columns, in file order.
const (
	ColumnTimestamp       = "Timestamp"
	ColumnName            = "Nama"
	ColumnPhone           = "Phone"
	ColumnMessage         = "Message"
	ColumnOutgoingMessage = "OutgoingMessage"
	ColumnSent            = "Sent"
	ColumnSendResponse    = "SendResponse"
)

// ReportRecord renders the entry as one report row.
func (e Entry) ReportRecord() *records.Record {
	return records.FromPairs(
		ColumnTimestamp, e.Timestamp.Format(time.RFC3339),
		ColumnName, e.Name,
		ColumnPhone, e.Phone,
		ColumnMessage, e.Message,
		ColumnOutgoingMessage, e.Outgoing,
		ColumnSent, e.Delivery.ReportValue(),
		ColumnSendResponse, e.Delivery.Response,
	)
}

// Digest renders a short markdown summary for staff.
func Digest(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Ulang tahun hari ini (%s)**\n\n", s.Date.Format("02/01/2006"))
	if len(s.Entries) == 0 {
		b.WriteString("Tidak ada pelanggan yang berulang tahun hari ini.")
		return b.String()
	}
	for _, e := range s.Entries {
		fmt.Fprintf(&b, "- %s (%s): %s\n", e.Name, e.Phone, e.Delivery.ReportValue())
	}
	fmt.Fprintf(&b, "\nTerkirim %d, gagal %d, simulasi %d.",
		s.Count(channels.StatusSent),
		s.Count(channels.StatusFailed),
		s.Count(channels.StatusSimulated),
	)
	return b.String()
}
