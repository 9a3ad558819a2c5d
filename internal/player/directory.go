package player

import (
	"fmt"
	"strings"
)

// Directory names one of the two browse roots.
type Directory string

const (
	DirectoryRoot  Directory = "PLAYER_ROOT_DIRECTORY"
	DirectoryQueue Directory = "PLAYER_QUEUE_DIRECTORY"
)

// ParseDirectory accepts a directory name or its short label.
func ParseDirectory(name string) (Directory, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case string(DirectoryRoot), "ROOT":
		return DirectoryRoot, nil
	case string(DirectoryQueue), "QUEUE":
		return DirectoryQueue, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirectory, name)
}

// Label returns the short display label.
func (d Directory) Label() string {
	if d == DirectoryQueue {
		return "QUEUE"
	}
	return "ROOT"
}

const (
	FolderIcon = "https://neeo-sdk.neeo.io/folder.jpg"
	FileIcon   = "https://neeo-sdk.neeo.io/file.jpg"

	imageRTLBerlin = "https://u.imageresize.org/v2/bb991b3a-bc06-42ab-8459-7270ade675fd.jpeg"
	imageChillout  = "https://u.imageresize.org/v2/2675a3aa-268b-4a41-bd72-50f9c2741a81.jpeg"
	imageAntenne1  = "https://u.imageresize.org/v2/311061e8-b4ec-43a4-bb48-0d1c4e853950.jpeg"
	imageSWR3      = "https://u.imageresize.org/v2/2e54aba6-b7ee-4b3d-9be8-77523699dcdc.jpeg"
)

// Action identifiers of the queue header buttons.
const (
	QueueClear   = "QUEUE_CLEAR"
	QueueRepeat  = "QUEUE_REPEAT"
	QueueShuffle = "QUEUE_SHUFFLE"
)

const favorites = "0/RadioTime/Favorites/MyFavorites"

var rootTileRows = [][]ListTile{
	{
		{ThumbnailURI: imageRTLBerlin, ActionIdentifier: favorites + "/3"},
		{ThumbnailURI: imageChillout, ActionIdentifier: favorites + "/5"},
	},
	{
		{Title: "Antenne 1", ThumbnailURI: imageAntenne1, ActionIdentifier: favorites + "/2"},
		{ThumbnailURI: imageSWR3, ActionIdentifier: favorites + "/7"},
	},
}

var rootItems = []ListItem{
	{Title: "Favorite Radio Stations", ThumbnailURI: FolderIcon, BrowseIdentifier: favorites},
	{Title: "Playlists", ThumbnailURI: FolderIcon, BrowseIdentifier: "0/Playlists"},
	{Title: "Tune In", ThumbnailURI: FolderIcon, BrowseIdentifier: "0/RadioTime"},
	{Title: "Albums", ThumbnailURI: FolderIcon, BrowseIdentifier: "0/My Music/Albums"},
	{Title: "Root", ThumbnailURI: FolderIcon, BrowseIdentifier: "0"},
}

var queueButtons = []ListButton{
	{Title: "Clear", Inverse: true, ActionIdentifier: QueueClear},
	{IconName: "Repeat", ActionIdentifier: QueueRepeat},
	{IconName: "Shuffle", ActionIdentifier: QueueShuffle},
}

func rootEntries() []Entry {
	entries := make([]Entry, 0, len(rootTileRows)+1+len(rootItems))
	for _, row := range rootTileRows {
		entries = append(entries, Entry{Type: EntryTiles, Tiles: append([]ListTile(nil), row...)})
	}
	entries = append(entries, Entry{Type: EntryHeader, Title: "Browse"})
	for _, it := range rootItems {
		entries = append(entries, itemEntry(it))
	}
	return entries
}

func queueItem(n int) ListItem {
	title := fmt.Sprintf("Queue Item %d", n)
	return ListItem{Title: title, ThumbnailURI: FileIcon, ActionIdentifier: title}
}
