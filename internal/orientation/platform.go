package orientation

import (
	"strings"

	"github.com/samber/lo"
)

// EventKind names the browser event a subscription listens to.
type EventKind string

const (
	// EventRelative is reported relative to an arbitrary start heading.
	EventRelative EventKind = "deviceorientation"
	// EventAbsolute is already referenced to magnetic north.
	EventAbsolute EventKind = "deviceorientationabsolute"
)

// appleMobilePlatforms are the navigator.platform values of iOS devices.
var appleMobilePlatforms = []string{
	"iPad Simulator",
	"iPhone Simulator",
	"iPod Simulator",
	"iPad",
	"iPhone",
	"iPod",
}

// Platform identifies the device that produces samples.
type Platform struct {
	Name      string `json:"platform"`
	UserAgent string `json:"userAgent"`
	Touch     bool   `json:"touch"`
}

// IsAppleMobile reports whether the platform is an iPhone/iPad/iPod, or an
// iPad that presents itself as a desktop Mac but has a touch screen.
func (p Platform) IsAppleMobile() bool {
	if lo.Contains(appleMobilePlatforms, p.Name) {
		return true
	}
	return strings.Contains(p.UserAgent, "Mac") && p.Touch
}

// EventKindFor picks the event to subscribe to. Apple mobile devices only
// deliver relative events and correct them with the compass heading.
func EventKindFor(appleMobile bool) EventKind {
	if appleMobile {
		return EventRelative
	}
	return EventAbsolute
}
