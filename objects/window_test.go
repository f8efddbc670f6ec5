package objects

import (
	"testing"

	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/value"
)

func TestWindowFullscreenAttributeAndPriority(t *testing.T) {
	win := NewWindow()
	if win.RenderPriority() != object.PriorityWindow {
		t.Fatalf("window should draw at PriorityWindow, got priority %v", win.RenderPriority())
	}

	ok, _ := win.SetAttribute("fullscreen", []value.Value{value.Bool(true)})
	if !ok {
		t.Fatalf("set fullscreen should succeed")
	}
	got, _ := win.GetAttribute("fullscreen")
	if len(got) != 1 || !value.Equal(got[0], value.Bool(true)) {
		t.Fatalf("got %v", got)
	}
}

func TestCameraFOVLocksAfterCalibration(t *testing.T) {
	cam := NewCamera()
	ok, _ := cam.SetAttribute("fov", []value.Value{value.Float(90.0)})
	if !ok {
		t.Fatalf("set fov should succeed before lock")
	}

	cam.LockFOV()
	ok, _ = cam.SetAttribute("fov", []value.Value{value.Float(45.0)})
	if ok {
		t.Fatalf("set fov should be rejected once locked")
	}

	got, _ := cam.GetAttribute("fov")
	if len(got) != 1 || !value.Equal(got[0], value.Float(90.0)) {
		t.Fatalf("fov should remain at the locked value, got %v", got)
	}
}
