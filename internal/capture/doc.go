// Package capture grabs single frames from the webcam and the screen.
//
// Frames are JPEG-encoded byte slices produced by one-shot ffmpeg
// invocations; a Source hands out at most one frame per call and carries no
// device handle between calls, so a crashed grab never wedges the device.
// The hotplug watcher reports webcam connect/disconnect events from the
// kernel via udev netlink.
package capture
