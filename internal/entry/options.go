package entry

import "slices"

// WithAuthor sets the author list.
func WithAuthor(authors ...string) Option {
	return func(e *Entry) { e.Author = slices.Clone(authors) }
}

func WithTitle(v string) Option     { return func(e *Entry) { e.Title = String(v) } }
func WithPublisher(v string) Option { return func(e *Entry) { e.Publisher = String(v) } }
func WithJournal(v string) Option   { return func(e *Entry) { e.Journal = String(v) } }
func WithVolume(v string) Option    { return func(e *Entry) { e.Volume = String(v) } }
func WithIssue(v string) Option     { return func(e *Entry) { e.Issue = String(v) } }
func WithPages(v string) Option     { return func(e *Entry) { e.Pages = String(v) } }
func WithMonth(v int) Option        { return func(e *Entry) { e.Month = Int(v) } }
func WithYear(v int) Option         { return func(e *Entry) { e.Year = Int(v) } }
func WithKeyword(v string) Option   { return func(e *Entry) { e.Keyword = String(v) } }
func WithURL(v string) Option       { return func(e *Entry) { e.URL = String(v) } }
func WithDOI(v string) Option       { return func(e *Entry) { e.DOI = String(v) } }
