package brain

// ButtonPressBody is the payload for button.press.
type ButtonPressBody struct {
	DeviceID string `json:"deviceId"`
	Button   string `json:"button"`
}

// ComponentSetBody is the payload for component.set.
type ComponentSetBody struct {
	DeviceID  string `json:"deviceId"`
	Component string `json:"component"`
	Value     any    `json:"value"`
}

// ComponentGetBody is the payload for component.get.
type ComponentGetBody struct {
	DeviceID  string `json:"deviceId"`
	Component string `json:"component"`
}

// ComponentReply is returned by component.get.
type ComponentReply struct {
	DeviceID  string `json:"deviceId"`
	Component string `json:"component"`
	Value     any    `json:"value"`
}

// VolumeGetBody is the payload for volume.get.
type VolumeGetBody struct {
	DeviceID string `json:"deviceId"`
}

// VolumeReply is returned by volume.get.
type VolumeReply struct {
	DeviceID string `json:"deviceId"`
	Volume   int    `json:"volume"`
}

// BrowseListBody is the payload for browse.list.
type BrowseListBody struct {
	DeviceID         string `json:"deviceId"`
	Directory        string `json:"directory"`
	BrowseIdentifier string `json:"browseIdentifier,omitempty"`
	Offset           int    `json:"offset,omitempty"`
	Limit            int    `json:"limit,omitempty"`
}

// BrowseActionBody is the payload for browse.action.
type BrowseActionBody struct {
	DeviceID         string `json:"deviceId"`
	Directory        string `json:"directory"`
	ActionIdentifier string `json:"actionIdentifier,omitempty"`
}

// PlayURIBody is the payload for player.loadUri.
type PlayURIBody struct {
	DeviceID string `json:"deviceId"`
	URI      string `json:"uri"`
}

// Device is an entry returned by devices.discover.
type Device struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`
}

// DevicesReply is returned by devices.discover.
type DevicesReply struct {
	Devices []Device `json:"devices"`
}

// BrowsePage mirrors a browse list page.
type BrowsePage struct {
	Title              string       `json:"title"`
	TotalMatchingItems int          `json:"totalMatchingItems,omitempty"`
	Offset             int          `json:"offset"`
	Limit              int          `json:"limit"`
	Next               *int         `json:"next,omitempty"`
	Previous           *int         `json:"previous,omitempty"`
	Buttons            []ListButton `json:"buttons,omitempty"`
	Entries            []ListEntry  `json:"entries"`
}

// ListEntry is a row of the browse list: an item, a tile row or a header.
type ListEntry struct {
	Type             string     `json:"type"`
	Title            string     `json:"title,omitempty"`
	ThumbnailURI     string     `json:"thumbnailUri,omitempty"`
	BrowseIdentifier string     `json:"browseIdentifier,omitempty"`
	ActionIdentifier string     `json:"actionIdentifier,omitempty"`
	Tiles            []ListTile `json:"tiles,omitempty"`
}

// ListTile is a single tile in a tile row.
type ListTile struct {
	Title            string `json:"title,omitempty"`
	ThumbnailURI     string `json:"thumbnailUri"`
	ActionIdentifier string `json:"actionIdentifier,omitempty"`
}

// ListButton is a header button shown above a list.
type ListButton struct {
	Title            string `json:"title,omitempty"`
	IconName         string `json:"iconName,omitempty"`
	Inverse          bool   `json:"inverse,omitempty"`
	ActionIdentifier string `json:"actionIdentifier"`
}
