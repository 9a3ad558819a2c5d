package player

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultLimit is both the default and the largest page window.
	DefaultLimit = 64
)

// EntryType is the kind of a page entry.
type EntryType string

const (
	EntryItem   EntryType = "item"
	EntryTiles  EntryType = "tiles"
	EntryHeader EntryType = "header"
)

// ListTile is an image tile of a tile row.
type ListTile struct {
	Title            string
	ThumbnailURI     string
	ActionIdentifier string
}

// ListButton is a page header button.
type ListButton struct {
	Title            string
	IconName         string
	Inverse          bool
	ActionIdentifier string
}

// Entry is one row of a browse page: an item, a tile row or a header.
type Entry struct {
	Type  EntryType
	Item  ListItem
	Tiles []ListTile
	Title string
}

func itemEntry(it ListItem) Entry {
	return Entry{Type: EntryItem, Item: it}
}

// BrowseParams selects the catalog node and the page window.
type BrowseParams struct {
	BrowseIdentifier string
	Offset           int
	Limit            int
}

// Page is one window of a browse list.
type Page struct {
	Title              string
	Entries            []Entry
	Buttons            []ListButton
	TotalMatchingItems int
	Offset             int
	Limit              int
	Next               *int
	Previous           *int
}

// Catalog lists the children of a media server node.
type Catalog interface {
	BrowseCatalog(ctx context.Context, id string) ([]ListItem, error)
}

// Loader plays catalog objects and records what was started.
type Loader interface {
	LoadSingle(ctx context.Context, deviceID, objectID string)
	Publish(deviceID string, c Component, value any)
}

// Browser synthesizes the root and queue pages and walks the remote catalog.
type Browser struct {
	log       *zap.Logger
	catalog   Catalog
	loader    Loader
	queueSize int
}

// NewBrowser creates a browser. queueSize is the length of the placeholder
// queue.
func NewBrowser(log *zap.Logger, catalog Catalog, loader Loader, queueSize int) *Browser {
	if log == nil {
		log = zap.NewNop()
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Browser{log: log, catalog: catalog, loader: loader, queueSize: queueSize}
}

// rendererToken prefixes action identifiers that address a renderer tile.
const rendererToken = "Renderer"

// Action starts playback of a selected entry. Empty identifiers and renderer
// tiles are accepted without effect.
func (b *Browser) Action(ctx context.Context, deviceID, actionID string) {
	b.log.Debug("browse action", zap.String("device", deviceID), zap.String("action", actionID))
	if actionID == "" {
		return
	}
	if head, _, _ := strings.Cut(actionID, ":"); head == rendererToken {
		return
	}
	if b.loader == nil {
		return
	}
	b.loader.LoadSingle(ctx, deviceID, actionID)
	b.loader.Publish(deviceID, ComponentTitle, actionID)
}

// Browse returns the page for directory, or for the catalog node named by
// params.BrowseIdentifier when one is given.
func (b *Browser) Browse(ctx context.Context, deviceID string, dir Directory, params BrowseParams) (Page, error) {
	b.log.Debug("browse",
		zap.String("device", deviceID),
		zap.String("directory", string(dir)),
		zap.String("browse_id", params.BrowseIdentifier),
		zap.Int("offset", params.Offset),
		zap.Int("limit", params.Limit),
	)
	if params.BrowseIdentifier == "" {
		switch dir {
		case DirectoryRoot:
			return b.rootPage(deviceID, params), nil
		case DirectoryQueue:
			return b.queuePage(params), nil
		default:
			return Page{}, fmt.Errorf("%w: %q", ErrUnknownDirectory, dir)
		}
	}
	return b.catalogPage(ctx, params)
}

func (b *Browser) rootPage(deviceID string, params BrowseParams) Page {
	list := newListBuilder(params)
	list.title = "Raumfeld Player: " + deviceID
	list.entries = rootEntries()
	return list.build()
}

// queuePage lists placeholder entries; the real playback queue is not exposed.
func (b *Browser) queuePage(params BrowseParams) Page {
	list := newListBuilder(params)
	list.title = "Player Queue"
	if list.offset == 0 {
		list.buttons = append([]ListButton(nil), queueButtons...)
	}
	list.total = b.queueSize
	list.entries = make([]Entry, 0, b.queueSize)
	for i := 1; i <= b.queueSize; i++ {
		list.entries = append(list.entries, itemEntry(queueItem(i)))
	}
	return list.build()
}

func (b *Browser) catalogPage(ctx context.Context, params BrowseParams) (Page, error) {
	if b.catalog == nil {
		return Page{}, ErrCatalogUnavailable
	}
	items, err := b.catalog.BrowseCatalog(ctx, params.BrowseIdentifier)
	if err != nil {
		return Page{}, fmt.Errorf("browse %s: %w", params.BrowseIdentifier, err)
	}
	list := newListBuilder(params)
	list.title = "Browsing " + params.BrowseIdentifier
	list.entries = make([]Entry, 0, len(items))
	for _, it := range items {
		list.entries = append(list.entries, itemEntry(it))
	}
	return list.build(), nil
}

type listBuilder struct {
	offset  int
	limit   int
	title   string
	buttons []ListButton
	entries []Entry
	total   int
}

func newListBuilder(params BrowseParams) *listBuilder {
	l := &listBuilder{offset: params.Offset, limit: params.Limit}
	if l.offset < 0 {
		l.offset = 0
	}
	if l.limit <= 0 || l.limit > DefaultLimit {
		l.limit = DefaultLimit
	}
	return l
}

// build applies the offset/limit window. The total defaults to the full entry
// count.
func (l *listBuilder) build() Page {
	size := len(l.entries)
	start := min(l.offset, size)
	end := min(start+l.limit, size)
	total := l.total
	if total == 0 {
		total = size
	}

	page := Page{
		Title:              l.title,
		Entries:            l.entries[start:end],
		Buttons:            l.buttons,
		TotalMatchingItems: total,
		Offset:             l.offset,
		Limit:              l.limit,
	}
	if end < size {
		next := end
		page.Next = &next
	}
	if l.offset > 0 {
		prev := max(0, l.offset-l.limit)
		page.Previous = &prev
	}
	return page
}
