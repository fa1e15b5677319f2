package core

import (
	"fmt"
	"strings"
)

// Device identifies the instrument model that wrote a log file.
type Device int

const (
	DeviceLI6800 Device = iota + 1
	DeviceLI6400
)

// Header keys written by the LI-6800 console.
const (
	HeaderConsoleSerial  = "Console s/n"
	HeaderConsoleVersion = "Console ver"
	HeaderHeadSerial     = "Head s/n"
	HeaderHeadVersion    = "Head ver"
	HeaderChamberType    = "Chamber type"
	HeaderChamberSerial  = "Chamber s/n"
	HeaderFluorometer    = "Fluorometer"
	HeaderFactoryCalDate = "Factory cal date"
	li6800FirmwareMarker = "Bluestem"
	li6400NotImplemented = "LI-6400 support not yet implemented"
)

// li6800RequiredHeaders are checked in order; the first missing key is reported.
var li6800RequiredHeaders = []string{
	HeaderConsoleSerial,
	HeaderConsoleVersion,
	HeaderHeadSerial,
}

// Devices returns every declared device in declaration order.
func Devices() []Device {
	return []Device{DeviceLI6800, DeviceLI6400}
}

// ParseDevice converts a CLI or API device name to a Device.
// Accepts "6800", "li6800" and "li-6800" in any case, and the 6400 equivalents.
func ParseDevice(s string) (Device, error) {
	key := strings.ReplaceAll(normalizeCell(s), "-", "")
	key = strings.TrimPrefix(key, "li")
	switch key {
	case "6800":
		return DeviceLI6800, nil
	case "6400":
		return DeviceLI6400, nil
	default:
		return 0, fmt.Errorf("unknown device %q (must be 6800 or 6400)", s)
	}
}

// Name returns the model name, e.g. "LI-6800".
func (d Device) Name() string {
	switch d {
	case DeviceLI6800:
		return "LI-6800"
	case DeviceLI6400:
		return "LI-6400"
	default:
		return "unknown"
	}
}

// String returns the short CLI name, e.g. "6800".
func (d Device) String() string {
	switch d {
	case DeviceLI6800:
		return "6800"
	case DeviceLI6400:
		return "6400"
	default:
		return "unknown"
	}
}

// Supported reports whether files from this device can be parsed.
func (d Device) Supported() bool {
	return d == DeviceLI6800
}

// ValidateHeader checks that the header carries the keys this device
// always writes and that it came from the expected firmware family.
func (d Device) ValidateHeader(header map[string]string) error {
	switch d {
	case DeviceLI6800:
		for _, field := range li6800RequiredHeaders {
			if _, ok := header[field]; !ok {
				return errMissingHeader(field)
			}
		}
		if !strings.Contains(header[HeaderConsoleVersion], li6800FirmwareMarker) {
			return errInvalidFormat(d.Name())
		}
		return nil
	case DeviceLI6400:
		return errInvalidFormat(li6400NotImplemented)
	default:
		return errInvalidFormat(d.Name())
	}
}

// ParseMetadata extracts device metadata from the header.
// Required keys are re-checked; optional keys are nil when absent.
func (d Device) ParseMetadata(header map[string]string) (Metadata, error) {
	switch d {
	case DeviceLI6800:
		serial, ok := header[HeaderConsoleSerial]
		if !ok {
			return Metadata{}, errMissingHeader(HeaderConsoleSerial)
		}
		version, ok := header[HeaderConsoleVersion]
		if !ok {
			return Metadata{}, errMissingHeader(HeaderConsoleVersion)
		}
		return Metadata{
			DeviceSerial:      serial,
			ConsoleVersion:    version,
			HeadSerial:        optionalHeader(header, HeaderHeadSerial),
			HeadVersion:       optionalHeader(header, HeaderHeadVersion),
			ChamberType:       optionalHeader(header, HeaderChamberType),
			ChamberSerial:     optionalHeader(header, HeaderChamberSerial),
			FluorometerSerial: optionalHeader(header, HeaderFluorometer),
			CalibrationDate:   optionalHeader(header, HeaderFactoryCalDate),
		}, nil
	case DeviceLI6400:
		return Metadata{}, errInvalidFormat(li6400NotImplemented)
	default:
		return Metadata{}, errInvalidFormat(d.Name())
	}
}

func optionalHeader(header map[string]string, key string) *string {
	v, ok := header[key]
	if !ok {
		return nil
	}
	return &v
}
