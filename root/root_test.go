package root

import (
	"net"
	"testing"
	"time"

	"github.com/splash-engine/splash/link"
	"github.com/splash-engine/splash/object"
	"github.com/splash-engine/splash/value"
)

func TestRegisterAndSetAttribute(t *testing.T) {
	r := New(4)
	obj := object.NewBase("projector", "proj1")
	if !r.RegisterObject(obj) {
		t.Fatalf("register should succeed")
	}
	if r.RegisterObject(object.NewBase("projector", "proj1")) {
		t.Fatalf("duplicate name should be rejected")
	}

	if !r.Set("proj1", "brightness", []value.Value{value.Float(0.9)}, false) {
		t.Fatalf("set should succeed")
	}
	vals, ok := obj.GetAttribute("brightness")
	if !ok || len(vals) != 1 || !value.Equal(vals[0], value.Float(0.9)) {
		t.Fatalf("unexpected attribute value: %v", vals)
	}
}

func TestSetBroadcastReachesEveryObject(t *testing.T) {
	r := New(4)
	r.RegisterObject(object.NewBase("projector", "p1"))
	r.RegisterObject(object.NewBase("projector", "p2"))

	if !r.Set("__ALL__", "power", []value.Value{value.Bool(true)}, false) {
		t.Fatalf("broadcast set should succeed")
	}
	for _, name := range []string{"p1", "p2"} {
		obj, _ := r.Lookup(name)
		vals, ok := obj.GetAttribute("power")
		if !ok || !value.Equal(vals[0], value.Bool(true)) {
			t.Fatalf("%s did not receive the broadcast set", name)
		}
	}
}

func TestTaskQueueRunsFIFO(t *testing.T) {
	r := New(4)
	var order []int
	r.AddTask(func() { order = append(order, 1) })
	r.AddTask(func() { order = append(order, 2) })
	n := r.RunTasks()
	if n != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected task order: %v (ran %d)", order, n)
	}
}

func TestBufferUpdatedSignalWakesWaiter(t *testing.T) {
	r := New(4)
	done := make(chan bool, 1)
	go func() { done <- r.WaitSignalBufferUpdated(2 * time.Second) }()
	time.Sleep(20 * time.Millisecond)
	r.SignalBufferUpdated()
	if woke := <-done; !woke {
		t.Fatalf("waiter should have woken on signal")
	}
}

func TestBufferUpdatedSignalTimesOut(t *testing.T) {
	r := New(4)
	if woke := r.WaitSignalBufferUpdated(50 * time.Millisecond); woke {
		t.Fatalf("waiter should have timed out with no signal")
	}
}

func TestLatchedErrorRoundTrip(t *testing.T) {
	r := New(4)
	if _, ok := r.GetError(); ok {
		t.Fatalf("fresh Root should have no latched error")
	}
	r.LatchError("boom")
	msg, ok := r.GetError()
	if !ok || msg != "boom" {
		t.Fatalf("unexpected error state: %q %v", msg, ok)
	}
	if _, ok := r.GetError(); ok {
		t.Fatalf("GetError should clear the latch")
	}
}

type fakeBufferKind struct {
	*object.Object
	object.Bufferable
	payload []byte
}

func (f *fakeBufferKind) SerializePayload() ([]byte, error) { return f.payload, nil }
func (f *fakeBufferKind) DeserializePayload(b []byte) bool  { f.payload = b; return true }
func (f *fakeBufferKind) Base() *object.Object               { return f.Object }
func (f *fakeBufferKind) Buffer() *object.Bufferable         { return &f.Bufferable }

func TestWireBufferWakesWaiter(t *testing.T) {
	r := New(4)
	kind := &fakeBufferKind{Object: object.NewBase("image", "img1")}
	r.WireBuffer(&kind.Bufferable)
	r.RegisterObject(kind.Object)

	done := make(chan bool, 1)
	go func() { done <- r.WaitSignalBufferUpdated(2 * time.Second) }()
	time.Sleep(20 * time.Millisecond)

	if !kind.StageSerialized([]byte{1, 2, 3}, kind, r.Pool, object.Now(), nil) {
		t.Fatalf("stage should succeed")
	}
	if woke := <-done; !woke {
		t.Fatalf("waiter should have woken when the staged deserialize completed")
	}
}

func TestSeedBatchRoundTripsBetweenRoots(t *testing.T) {
	a := New(4)
	b := New(4)

	a.Tree.CreateBranch("/scene")
	a.Tree.CreateLeaf("/scene/name", value.String("main"))

	buf := encodeSeedBatch(a.Tree.GetSeedList())
	dropped, err := b.ReceiveSeedBatch(buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if dropped != 0 {
		t.Fatalf("unexpected drops: %d", dropped)
	}
	v, _, ok := b.Tree.GetLeaf("/scene/name")
	if !ok || !value.Equal(v, value.String("main")) {
		t.Fatalf("seed batch did not replicate, got %v", v)
	}
}

func TestRegisterBufferObjectBroadcastsAndReceiveBufferStages(t *testing.T) {
	world := New(4)
	scene := New(4)

	clientConn, serverConn := net.Pipe()
	worldLink := link.New(clientConn)
	defer worldLink.Close()
	sceneLink := link.New(serverConn)
	defer sceneLink.Close()

	worldImg := &fakeBufferKind{Object: object.NewBase("image", "img1")}
	if !world.RegisterBufferObject("img1", worldImg) {
		t.Fatalf("register should succeed")
	}
	world.AddLink("scene1", worldLink)

	sceneImg := &fakeBufferKind{Object: object.NewBase("image", "img1")}
	if !scene.RegisterBufferObject("img1", sceneImg) {
		t.Fatalf("register should succeed")
	}

	received := make(chan link.Buffer, 1)
	sceneLink.OnBuffer = func(b link.Buffer) { received <- b }

	worldImg.payload = []byte{9, 8, 7}
	worldImg.UpdateTimestamp(object.Now())

	select {
	case b := <-received:
		if !scene.ReceiveBuffer(b.Target, b.Bytes, object.Now()) {
			t.Fatalf("receive buffer should find the registered target")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for broadcast buffer")
	}

	if !scene.WaitSignalBufferUpdated(2 * time.Second) {
		t.Fatalf("staged deserialize should have signalled buffer updated")
	}
	if string(sceneImg.payload) != "\x09\x08\x07" {
		t.Fatalf("unexpected staged payload: %v", sceneImg.payload)
	}

	if scene.ReceiveBuffer("no-such-target", []byte{1}, object.Now()) {
		t.Fatalf("receive buffer for an unregistered target should report false")
	}
}
