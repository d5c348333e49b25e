package validator

import (
	"encoding/base64"
	"strings"
)

const MaxPhotoBytes = 5 * 1024 * 1024

// ValidatePhoto checks an inline photo sent as a base64 data URL. Only image
// media types are accepted and the decoded payload must not exceed 5 MB.
func ValidatePhoto(dataURL string) error {
	if dataURL == "" {
		return nil
	}

	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return New("photo", "photo must be a data URL")
	}
	mediaType := strings.TrimPrefix(header, "data:")
	if !strings.HasPrefix(mediaType, "image/") {
		return New("photo", "Please select a valid image file")
	}
	if !strings.HasSuffix(mediaType, ";base64") {
		return New("photo", "photo must be base64 encoded")
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxPhotoBytes+2 {
		return New("photo", "Image file too large. Please select a file under 5MB")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return New("photo", "photo is not valid base64")
	}
	if len(decoded) > MaxPhotoBytes {
		return New("photo", "Image file too large. Please select a file under 5MB")
	}
	return nil
}

// ValidateCoordinates requires latitude and longitude to be given together
// and to lie within range.
func ValidateCoordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return New("location", "latitude and longitude must be provided together")
	}
	if *lat < -90 || *lat > 90 {
		return New("latitude", "latitude out of range")
	}
	if *lng < -180 || *lng > 180 {
		return New("longitude", "longitude out of range")
	}
	return nil
}
