package doodle

import (
	"encoding/xml"
	"fmt"

	"cloud.google.com/go/civil"
)

// Namespace is the XML namespace of every document exchanged with the service.
const Namespace = "http://doodle.com/xsd1"

const levels = 2

type pollXML struct {
	XMLName     xml.Name     `xml:"http://doodle.com/xsd1 poll"`
	Type        PollType     `xml:"type"`
	Hidden      bool         `xml:"hidden"`
	Levels      int          `xml:"levels"`
	Title       string       `xml:"title"`
	Description string       `xml:"description,omitempty"`
	Location    string       `xml:"location,omitempty"`
	Initiator   initiatorXML `xml:"initiator"`
	Options     optionsXML   `xml:"options"`
}

type initiatorXML struct {
	Name  string `xml:"name"`
	Email string `xml:"eMailAddress,omitempty"`
}

type optionsXML struct {
	Options []optionXML `xml:"option"`
}

type optionXML struct {
	Date          string `xml:"date,attr,omitempty"`
	DateTime      string `xml:"dateTime,attr,omitempty"`
	StartDateTime string `xml:"startDateTime,attr,omitempty"`
	End           string `xml:"end,attr,omitempty"`
	Value         string `xml:",chardata"`
}

// MarshalPoll renders p as the service's poll document. It does not check
// preconditions; CreatePoll does.
func MarshalPoll(p Poll) ([]byte, error) {
	pollType := p.Type
	if pollType == "" {
		pollType = PollTypeText
	}

	doc := pollXML{
		Type:        pollType,
		Hidden:      p.Hidden,
		Levels:      levels,
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		Initiator: initiatorXML{
			Name:  p.Initiator.Name,
			Email: p.Initiator.Email,
		},
	}
	for _, entry := range p.Options {
		if entry == nil {
			continue
		}
		doc.Options.Options = append(doc.Options.Options, optionElement(entry.option()))
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal poll: %w", err)
	}
	return out, nil
}

// MarshalOption renders a single <option> element.
func MarshalOption(o Option) ([]byte, error) {
	return xml.Marshal(struct {
		XMLName xml.Name `xml:"http://doodle.com/xsd1 option"`
		optionXML
	}{optionXML: optionElement(o)})
}

func optionElement(o Option) optionXML {
	return optionXML{
		Date:          formatDate(o.Date),
		DateTime:      formatDateTime(o.DateTime),
		StartDateTime: formatDateTime(o.Start),
		End:           formatDateTime(o.End),
		Value:         o.Value,
	}
}

func formatDate(d *civil.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func formatDateTime(dt *civil.DateTime) string {
	if dt == nil {
		return ""
	}
	return dt.String()
}
