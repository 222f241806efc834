// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// SurveyKind identifies the acquisition geometry of a survey.
type SurveyKind string

const (
	// SurveyCH is a cross-hole survey with lateral channels only.
	SurveyCH SurveyKind = "CH"
	// SurveyDH is a downhole survey with a vertical pass plus lateral channels.
	SurveyDH SurveyKind = "DH"
)

// OutputFormat selects the final artifact format.
type OutputFormat string

const (
	// FormatMSEED writes MiniSEED files directly.
	FormatMSEED OutputFormat = "mseed"
	// FormatSEG2 writes MiniSEED and re-exports it through the external converter.
	FormatSEG2 OutputFormat = "seg2"
)

// ParseOutputFormat validates a user-supplied format selector.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatMSEED, FormatSEG2:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownFormat, s, FormatMSEED, FormatSEG2)
}

// Suffix returns the file suffix of the final artifact, including the dot.
func (f OutputFormat) Suffix() string {
	return "." + string(f)
}

// ChannelRole is the semantic role carried by a SEG2 channel number.
type ChannelRole struct {
	// Number is the CHANNEL_NUMBER label as written in the SEG2 trace strings.
	Number string

	// Tag names the role in output file names (e.g. "Channel_X").
	Tag string
}

var (
	ChannelV = ChannelRole{Number: "1", Tag: "Channel_V"}
	ChannelX = ChannelRole{Number: "2", Tag: "Channel_X"}
	ChannelY = ChannelRole{Number: "3", Tag: "Channel_Y"}
)

// Fixed extension layout of the field instrument.
const (
	ExtVertical = "1.seg2"
	ExtLateral2 = "2.seg2"
	ExtLateral3 = "3.seg2"
)

// LateralExtensions lists the lateral pass suffixes shared by CH and DH surveys.
func LateralExtensions() []string {
	return []string{ExtLateral2, ExtLateral3}
}

// OutputName builds the name of a MiniSEED output, e.g. "CH_Channel_X_2.seg2.mseed".
func OutputName(prefix SurveyKind, role ChannelRole, ext string) string {
	return fmt.Sprintf("%s_%s", prefix, OutputTemplate(role, ext))
}

// OutputTemplate builds the prefix-less part of an output name.
func OutputTemplate(role ChannelRole, ext string) string {
	return fmt.Sprintf("%s_%s.mseed", role.Tag, ext)
}
