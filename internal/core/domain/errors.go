package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPlaceNotFound   = errors.New("place not found")
	ErrCityNotFound    = errors.New("city not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrSurfaceNotReady = errors.New("map surface not ready")
)

// GeolocationCode mirrors the browser Geolocation API error codes.
type GeolocationCode int

const (
	GeolocationUnsupported         GeolocationCode = 0
	GeolocationPermissionDenied    GeolocationCode = 1
	GeolocationPositionUnavailable GeolocationCode = 2
	GeolocationTimeout             GeolocationCode = 3
)

func (c GeolocationCode) String() string {
	switch c {
	case GeolocationPermissionDenied:
		return "permission_denied"
	case GeolocationPositionUnavailable:
		return "position_unavailable"
	case GeolocationTimeout:
		return "timeout"
	default:
		return "unsupported"
	}
}

// GeolocationError is a failed position acquisition.
type GeolocationError struct {
	Code   GeolocationCode
	Detail string
}

func (e *GeolocationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("geolocation %s", e.Code)
	}
	return fmt.Sprintf("geolocation %s: %s", e.Code, e.Detail)
}

// Message is the text shown to the user for this failure.
func (e *GeolocationError) Message() string {
	switch e.Code {
	case GeolocationPermissionDenied:
		return "Location permission denied. Enable location access to see distances."
	case GeolocationPositionUnavailable:
		return "Your position is unavailable right now. Try again in a moment."
	case GeolocationTimeout:
		return "Locating you took too long. Please try again."
	default:
		return "Geolocation is not supported on this device."
	}
}

// AsGeolocationError converts any error from a locator into a GeolocationError.
// Unknown errors are reported as an unavailable position.
func AsGeolocationError(err error) *GeolocationError {
	var ge *GeolocationError
	if errors.As(err, &ge) {
		return ge
	}
	return &GeolocationError{Code: GeolocationPositionUnavailable, Detail: err.Error()}
}

// LocateOptions are passed to the device geolocation request.
type LocateOptions struct {
	HighAccuracy bool `json:"enable_high_accuracy"`
	TimeoutMs    int  `json:"timeout"`
	MaximumAgeMs int  `json:"maximum_age"`
}

// ErrPlaceNotVisible is returned when selecting a place outside the current filters.
var ErrPlaceNotVisible = errors.New("place not visible under current filters")

// ErrLocationSuperseded marks a geolocation result discarded because a newer
// request was issued.
var ErrLocationSuperseded = errors.New("geolocation superseded by a newer request")
