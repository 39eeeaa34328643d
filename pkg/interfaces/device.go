package interfaces

import "time"

// Annotation is a single highlight or note captured on the device. It
// mirrors the record produced by the (out-of-scope, per spec.md §6) device
// metadata parser.
type Annotation struct {
	Page     int
	Pos0     string
	Pos1     string
	Chapter  string
	DateTime time.Time
	Text     string
	Note     string
	Color    string
	Drawer   string
}

// DeviceMetadata is the typed record produced by the declarative-table
// parser for a device's per-book metadata sidecar file. The core consumes
// it; it never parses the sidecar format itself (spec.md §1, §6).
type DeviceMetadata struct {
	DocProps    DocProps
	Annotations []Annotation
	Pages       int
	MD5         string
	Identifiers map[string]string
	UID         string // optional device-side note UID hint, spec.md §4.5
	// Status is the device's own declarative reading status (e.g. a
	// KOReader-style summary.status of "complete"), independent of whatever
	// the statistics database reports. An explicit "complete" here upgrades
	// the normalized status regardless of the statistics waterfall
	// (spec.md §4.2).
	Status string
}

// DocProps carries the raw bibliographic fields lifted from the device
// metadata file, before normalization (internal/book.Normalize).
type DocProps struct {
	Title       string
	Authors     string
	Description string
	Keywords    string
	Series      string
	Language    string
	Rating      float64
}

// ReadingSession is one ordered session row from the device statistics
// database.
type ReadingSession struct {
	StartTime       time.Time
	DurationSeconds int64
	PagesRead       int
}

// BookStatistics is the optional row returned by the out-of-scope query
// layer over the device's statistics database (spec.md §6).
type BookStatistics struct {
	MD5                string
	Title              string
	Authors            string
	TotalReadSeconds   int64
	Progress           int // 0-100
	Status             string
	FirstRead          time.Time
	LastRead           time.Time
	HighlightCount     int
	NoteCount          int
	Sessions           []ReadingSession
	AverageTimePerPage time.Duration
}

// BookStatisticsProvider resolves BookStatistics by MD5 (preferred, when
// unique) or by (title, authors) fallback, per spec.md §6.
type BookStatisticsProvider interface {
	ByMD5(md5 string) (*BookStatistics, error)
	ByTitleAuthors(title, authors string) (*BookStatistics, error)
	// MD5IsUnique reports whether md5 identifies exactly one book in the
	// statistics database; a non-unique MD5 must not be treated as a
	// strong identity (spec.md §6).
	MD5IsUnique(md5 string) (bool, error)
}

// SourceDescriptor is one entry in a device scan, consumed by the planner
// (spec.md §4.5).
type SourceDescriptor struct {
	SourcePath string
	Mtime      time.Time
	Size       int64
	Metadata   DeviceMetadata
	Statistics *BookStatistics
}
