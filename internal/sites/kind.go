package sites

// ContentKind identifies how a monitored target's payload is validated.
// The set is closed; unknown kinds are rejected when the watch config is
// loaded, never at check time.
type ContentKind string

const (
	KindHTML   ContentKind = "html"
	KindCSV    ContentKind = "csv"
	KindExcel  ContentKind = "excel"
	KindPDF    ContentKind = "pdf"
	KindBinary ContentKind = "binary"
)

// Valid reports whether k is one of the five supported kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindHTML, KindCSV, KindExcel, KindPDF, KindBinary:
		return true
	}
	return false
}
