// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package heading extracts compass headings from NMEA sentences.
package heading

import (
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Heading is one compass heading reading suitable for JSON and MQTT.
type Heading struct {
	Degrees float64 `json:"heading_deg"` // clockwise from north
	Source  string  `json:"source"`      // "hdt" (true heading) or "rmc" (course over ground)
	Time    string  `json:"time,omitempty"`
}

// Parse returns the heading carried by an NMEA line. HDT gives the true
// heading; a valid RMC gives the course over ground. Anything else,
// including unparseable or partial sentences, yields false.
func Parse(line string) (Heading, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Heading{}, false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Heading{}, false
	}

	switch sentence.DataType() {
	case nmea.TypeHDT:
		m := sentence.(nmea.HDT)
		return Heading{Degrees: m.Heading, Source: "hdt"}, true

	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			return Heading{}, false
		}
		h := Heading{Degrees: m.Course, Source: "rmc"}
		if m.Time.Valid {
			h.Time = m.Time.String()
		}
		return h, true

	default:
		// GGA, GSA, etc. carry no heading
		return Heading{}, false
	}
}
