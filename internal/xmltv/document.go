package xmltv

import "encoding/xml"

// Document is one XMLTV feed in feed-native shape. Field normalization
// (defaults, time parsing, category flattening) is deferred to the
// convert package.
type Document struct {
	XMLName  xml.Name  `xml:"tv"`
	Channels []Channel `xml:"channel"`
	Programs []Program `xml:"programme"`
}

type Channel struct {
	ID          string      `xml:"id,attr"`
	DisplayName DisplayName `xml:"display-name"`
	Icon        *Icon       `xml:"icon"`
}

type DisplayName struct {
	Content string `xml:",chardata"`
}

type Program struct {
	Start       string         `xml:"start,attr"`
	Stop        string         `xml:"stop,attr"`
	Channel     string         `xml:"channel,attr"`
	Title       string         `xml:"title"`
	SubTitles   []string       `xml:"sub-title"`
	Description *Description   `xml:"desc"`
	Categories  []Category     `xml:"category"`
	Icons       []Icon         `xml:"icon"`
	EpisodeNum  *EpisodeNumber `xml:"episode-num"`
	Rating      *Rating        `xml:"rating"`
}

type Description struct {
	Lang    string `xml:"lang,attr"`
	Content string `xml:",chardata"`
}

type Category struct {
	Lang    string `xml:"lang,attr"`
	Content string `xml:",chardata"`
}

type Icon struct {
	Src string `xml:"src,attr"`
}

type EpisodeNumber struct {
	System  string `xml:"system,attr"`
	Content string `xml:",chardata"`
}

type Rating struct {
	System string       `xml:"system,attr"`
	Value  *RatingValue `xml:"value"`
	Icon   *Icon        `xml:"icon"`
}

type RatingValue struct {
	Content string `xml:",chardata"`
}
