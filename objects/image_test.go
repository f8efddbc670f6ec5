package objects

import (
	"testing"
	"time"

	"github.com/splash-engine/splash/object"
)

func TestImageSerializeRoundTrip(t *testing.T) {
	img := NewImage()
	img.SetPixels(2, 2, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})

	buf, err := img.SerializePayload()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	other := NewImage()
	if !other.DeserializePayload(buf) {
		t.Fatalf("deserialize should succeed")
	}
	if other.width != 2 || other.height != 2 {
		t.Fatalf("got width=%d height=%d", other.width, other.height)
	}
}

func TestImageStageSerializedWiresThroughBufferable(t *testing.T) {
	img := NewImage()
	woke := make(chan struct{}, 1)
	img.OnUpdated = func() { woke <- struct{}{} }

	src := NewImage()
	src.SetPixels(1, 1, []byte{42})
	payload, _ := src.SerializePayload()

	pool := object.NewPool(2)
	if !img.StageSerialized(payload, img, pool, object.Now(), nil) {
		t.Fatalf("stage should succeed")
	}

	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatalf("OnUpdated never fired")
	}
	if img.width != 1 || img.height != 1 || len(img.pixels) != 1 || img.pixels[0] != 42 {
		t.Fatalf("unexpected deserialized state: %+v", img)
	}
}

func TestImageDeserializeRejectsShortPayload(t *testing.T) {
	img := NewImage()
	if img.DeserializePayload([]byte{1, 2, 3}) {
		t.Fatalf("short payload should be rejected")
	}
}
