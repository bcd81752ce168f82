package models

// Package tags recorded in channel_packages. Open string tags, not an
// enum: new feeds only need a new Feed entry below.
const (
	PackageAll = "ALL"
	PackageFR  = "FR"
	PackageTNT = "TNT"
)

// Feed describes one XMLTV source document: the archive file published
// under the XMLTV base URL and the package tag its channels receive.
type Feed struct {
	Package string
	Archive string
}

// Feeds lists every feed in ingestion order. The first entry is the
// base feed: its channel identities are authoritative and secondary
// feeds only contribute channels the base (or an earlier secondary
// feed) did not already introduce.
var Feeds = []Feed{
	{Package: PackageAll, Archive: "xmltv.zip"},
	{Package: PackageFR, Archive: "xmltv_fr.zip"},
	{Package: PackageTNT, Archive: "xmltv_tnt.zip"},
}
