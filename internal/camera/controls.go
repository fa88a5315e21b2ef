package camera

import (
	"time"

	"github.com/relabs-tech/gyrocam/internal/orientation"
)

// DefaultDuration is how long the rig takes to reach a new target.
const DefaultDuration = 250 * time.Millisecond

// Animated channels. Yaw turns the group holding the camera; pitch and roll
// turn the camera inside it.
const (
	ChannelGroupY  = "group.rotation.y"
	ChannelCameraX = "camera.rotation.x"
	ChannelCameraZ = "camera.rotation.z"
)

// Sink smoothly moves a named channel toward a target value.
type Sink interface {
	To(channel string, target float64, d time.Duration)
	Value(channel string) float64
}

// Rig is the rotation of the camera group and of the camera, in radians.
type Rig struct {
	GroupY  float64 `json:"group_y"`
	CameraX float64 `json:"camera_x"`
	CameraZ float64 `json:"camera_z"`
}

// Controls drives a camera rig from resolved orientation angles.
type Controls struct {
	sink     Sink
	duration time.Duration
}

// NewControls returns controls animating through sink. A non-positive
// duration selects DefaultDuration.
func NewControls(sink Sink, duration time.Duration) *Controls {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Controls{sink: sink, duration: duration}
}

// Duration is the animation length used for every target.
func (c *Controls) Duration() time.Duration {
	return c.duration
}

// Apply sets a as the new target of the rig.
func (c *Controls) Apply(a orientation.Angles) {
	c.sink.To(ChannelGroupY, a.Yaw, c.duration)
	c.sink.To(ChannelCameraX, a.Roll, c.duration)
	c.sink.To(ChannelCameraZ, a.Pitch, c.duration)
}

// Rotation returns where the rig currently is.
func (c *Controls) Rotation() Rig {
	return Rig{
		GroupY:  c.sink.Value(ChannelGroupY),
		CameraX: c.sink.Value(ChannelCameraX),
		CameraZ: c.sink.Value(ChannelCameraZ),
	}
}
