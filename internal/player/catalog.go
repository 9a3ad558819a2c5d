package player

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// NodeKind distinguishes browsable containers from playable items.
type NodeKind int

const (
	NodeContainer NodeKind = iota
	NodeItem
)

// CatalogNode is one child of a media server directory. Title is nil when the
// server omitted it.
type CatalogNode struct {
	ID          string
	Title       *string
	AlbumArtURI string
	Class       string
}

// ListItem is one formatted, selectable entry of a browse page.
type ListItem struct {
	Title            string
	ThumbnailURI     string
	BrowseIdentifier string
	ActionIdentifier string
}

type didlLite struct {
	XMLName    xml.Name     `xml:"urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/ DIDL-Lite"`
	Containers []didlObject `xml:"urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/ container"`
	Items      []didlObject `xml:"urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/ item"`
}

type didlObject struct {
	ID          string   `xml:"id,attr"`
	Title       *string  `xml:"http://purl.org/dc/elements/1.1/ title"`
	Class       string   `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ class"`
	AlbumArtURI []string `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ albumArtURI"`
}

func (o didlObject) node() CatalogNode {
	n := CatalogNode{ID: o.ID, Title: o.Title, Class: strings.TrimSpace(o.Class)}
	for _, art := range o.AlbumArtURI {
		if art = strings.TrimSpace(art); art != "" {
			n.AlbumArtURI = art
			break
		}
	}
	return n
}

// ParseCatalog decodes a DIDL-Lite browse result into containers and items,
// each in document order.
func ParseCatalog(raw string) (containers, items []CatalogNode, err error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil, fmt.Errorf("%w: empty document", ErrMalformedCatalog)
	}
	var doc didlLite
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	for _, c := range doc.Containers {
		containers = append(containers, c.node())
	}
	for _, it := range doc.Items {
		items = append(items, it.node())
	}
	return containers, items, nil
}

// FormatNode converts a catalog node into a list item. Containers become
// browsable, items become actionable.
func FormatNode(node CatalogNode, kind NodeKind) (ListItem, error) {
	if node.Title == nil {
		return ListItem{}, fmt.Errorf("%w: node %q has no title", ErrMalformedCatalog, node.ID)
	}
	item := ListItem{Title: *node.Title, ThumbnailURI: node.AlbumArtURI}
	switch kind {
	case NodeContainer:
		if item.ThumbnailURI == "" {
			item.ThumbnailURI = FolderIcon
		}
		item.BrowseIdentifier = node.ID
	default:
		if item.ThumbnailURI == "" {
			item.ThumbnailURI = FileIcon
		}
		item.ActionIdentifier = node.ID
	}
	return item, nil
}

// CatalogList parses a browse result and formats every child, containers
// first.
func CatalogList(directory, raw string) ([]ListItem, error) {
	containers, items, err := ParseCatalog(raw)
	if err != nil {
		return nil, err
	}
	if len(containers) == 0 && len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDirectory, directory)
	}
	out := make([]ListItem, 0, len(containers)+len(items))
	for _, c := range containers {
		li, err := FormatNode(c, NodeContainer)
		if err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	for _, it := range items {
		li, err := FormatNode(it, NodeItem)
		if err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, nil
}
