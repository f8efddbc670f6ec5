package root

import (
	"net"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/splash-engine/splash/link"
	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/value"
)

func init() {
	object.Register("test-projector", func() object.Instance {
		return object.NewBase("test-projector", "")
	})
}

func TestWorldSaveLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	w1 := NewWorld(4, fs, "/splash.json")
	obj := object.NewBase("test-projector", "proj1")
	w1.RegisterObject(obj)
	w1.Set("proj1", "brightness", []value.Value{value.Float(0.42)}, false)

	if err := w1.SaveConfig(); err != nil {
		t.Fatalf("save: %v", err)
	}

	w2 := NewWorld(4, fs, "/splash.json")
	if err := w2.LoadConfig(); err != nil {
		t.Fatalf("load: %v", err)
	}
	restored, ok := w2.Lookup("proj1")
	if !ok {
		t.Fatalf("proj1 should have been reconstructed")
	}
	vals, ok := restored.GetAttribute("brightness")
	if !ok || !value.Equal(vals[0], value.Float(0.42)) {
		t.Fatalf("unexpected restored value: %v", vals)
	}
}

func TestSceneReportsTelemetryToWorld(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	worldLink := link.New(serverConn)
	defer worldLink.Close()
	sceneLink := link.New(clientConn)
	defer sceneLink.Close()

	received := make(chan link.Message, 1)
	worldLink.OnMessage = func(msg link.Message) { received <- msg }

	scene := NewScene(4, NoOpRenderLoop{}, true)
	scene.ConnectToWorld("world", sceneLink)
	if err := scene.RenderOneFrame(); err != nil {
		t.Fatalf("render: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Attribute != "answerMessage" || len(msg.Args) != 2 {
			t.Fatalf("unexpected telemetry message: %+v", msg)
		}
		if msg.Args[0].String() != "frameTimeMs" {
			t.Fatalf("unexpected telemetry key: %v", msg.Args[0])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for telemetry")
	}
}
