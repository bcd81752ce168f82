package xmltv

import (
	"encoding/xml"
	"fmt"
)

// ParseError reports malformed feed XML or a channel/programme missing
// a required attribute.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xmltv: %s: %v", e.Msg, e.Err)
	}
	return "xmltv: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes feed XML text into a Document. It performs structural
// validation only: channels must carry an id, programmes must carry
// start, stop and channel attributes. Everything else is accepted
// verbatim.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Msg: "decode", Err: err}
	}
	for i, c := range doc.Channels {
		if c.ID == "" {
			return nil, &ParseError{Msg: fmt.Sprintf("channel %d: missing id attribute", i)}
		}
	}
	for i, p := range doc.Programs {
		switch {
		case p.Channel == "":
			return nil, &ParseError{Msg: fmt.Sprintf("programme %d: missing channel attribute", i)}
		case p.Start == "":
			return nil, &ParseError{Msg: fmt.Sprintf("programme %d: missing start attribute", i)}
		case p.Stop == "":
			return nil, &ParseError{Msg: fmt.Sprintf("programme %d: missing stop attribute", i)}
		}
	}
	return &doc, nil
}
