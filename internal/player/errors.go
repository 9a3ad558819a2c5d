package player

import "errors"

var (
	// ErrDeviceNotFound indicates no renderer handle exists for a device id.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrCatalogUnavailable indicates the media server cannot be reached.
	ErrCatalogUnavailable = errors.New("media server not available")
	// ErrMalformedCatalog indicates the media server returned an unparseable payload.
	ErrMalformedCatalog = errors.New("media server result parsing failed")
	// ErrEmptyDirectory indicates a catalog directory without children.
	ErrEmptyDirectory = errors.New("media server directory is empty")

	ErrUnknownButton    = errors.New("unknown button")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrUnknownComponent = errors.New("unknown component")
	ErrUnknownDirectory = errors.New("unknown directory")

	// ErrInvalidValue indicates a value that does not fit the component type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrReadOnly indicates a set on a sensor component.
	ErrReadOnly = errors.New("component is read only")
)
