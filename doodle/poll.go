package doodle

import (
	"strings"

	"cloud.google.com/go/civil"
)

type PollType string

const (
	PollTypeText PollType = "TEXT"
	PollTypeDate PollType = "DATE"
)

func (t PollType) valid() bool {
	return t == PollTypeText || t == PollTypeDate
}

type Initiator struct {
	Name  string
	Email string
}

// Poll describes a poll to be created on doodle.com. Either Description or
// Location must be set.
type Poll struct {
	Type        PollType
	Title       string
	Description string
	Location    string
	Hidden      bool
	Initiator   Initiator
	Options     []OptionEntry
}

// Option is one selectable choice. The date fields are only meaningful for
// DATE polls; no consistency between them is enforced.
type Option struct {
	Value    string
	Date     *civil.Date
	DateTime *civil.DateTime
	Start    *civil.DateTime
	End      *civil.DateTime
}

// OptionEntry is either a Text label or a full Option.
type OptionEntry interface {
	option() Option
}

// Text is a plain option label.
type Text string

func (t Text) option() Option { return Option{Value: string(t)} }

func (o Option) option() Option { return o }

// TextOptions turns plain labels into option entries.
func TextOptions(values ...string) []OptionEntry {
	entries := make([]OptionEntry, 0, len(values))
	for _, v := range values {
		entries = append(entries, Text(v))
	}
	return entries
}

type CreatePollResult struct {
	Location string
	Key      string
}

// ID returns the poll identifier, the last path segment of Location.
func (r CreatePollResult) ID() string {
	loc := strings.TrimRight(r.Location, "/")
	return loc[strings.LastIndex(loc, "/")+1:]
}

// PollData is the parsed poll document as returned by the service.
type PollData map[string]any
