package tree

import (
	"testing"

	"github.com/splash-engine/splash/value"
)

func TestCreateBranchAutoCreatesParents(t *testing.T) {
	tr := New()
	if ok := tr.CreateBranch("/a/b/c"); !ok {
		t.Fatalf("expected success")
	}
	if !tr.HasBranch("/a") || !tr.HasBranch("/a/b") || !tr.HasBranch("/a/b/c") {
		t.Fatalf("intermediate branches should have been auto-created")
	}
}

func TestCreateBranchNameCollision(t *testing.T) {
	tr := New()
	tr.CreateBranch("/a")
	if ok := tr.CreateBranch("/a"); ok {
		t.Fatalf("collision should be rejected")
	}
	seeds := tr.GetSeedList()
	if len(seeds) != 1 {
		t.Fatalf("collision must not emit a seed, got %d seeds", len(seeds))
	}
}

func TestSetLeafRejectsStaleTimestamp(t *testing.T) {
	tr := New()
	tr.CreateLeaf("/x", value.Int(1))
	if ok := tr.SetLeaf("/x", value.Int(2), 1000); !ok {
		t.Fatalf("expected success")
	}
	if ok := tr.SetLeaf("/x", value.Int(3), 500); ok {
		t.Fatalf("stale set should be rejected")
	}
	v, ts, ok := tr.GetLeaf("/x")
	if !ok || !value.Equal(v, value.Int(2)) || ts != 1000 {
		t.Fatalf("leaf should be unchanged by the stale set, got %v @ %d", v, ts)
	}
}

func TestPathRules(t *testing.T) {
	tr := New()
	if ok := tr.CreateBranch("no-leading-slash"); ok {
		t.Fatalf("path without leading slash must be rejected")
	}
	if ok := tr.CreateBranch("/a//b"); ok {
		t.Fatalf("path with empty component must be rejected")
	}
	if ok := tr.CreateBranch("/trailing/"); !ok {
		t.Fatalf("trailing slash should be stripped, not rejected")
	}
}

func TestReplicationRoundTrip(t *testing.T) {
	a := New()
	b := New()

	a.CreateBranch("/scene")
	a.CreateLeaf("/scene/name", value.String("main"))
	a.SetLeaf("/scene/name", value.String("renamed"), 0)

	seeds := a.GetSeedList()
	b.AddSeedsToQueue(seeds)
	if dropped := b.ProcessQueue(false); dropped != 0 {
		t.Fatalf("unexpected drops: %d", dropped)
	}

	if !Equal(a, b) {
		t.Fatalf("trees should be equal after replication")
	}
}

func TestEchoSuppression(t *testing.T) {
	a := New()
	a.CreateBranch("/x")
	seeds := a.GetSeedList()

	// replay a's own seeds back onto itself: must be a no-op (already applied,
	// and echo-suppressed besides), not an error.
	a.AddSeedsToQueue(seeds)
	a.ProcessQueue(false)
	if !a.HasBranch("/x") {
		t.Fatalf("branch should still exist")
	}
}

func TestRenameRejectsCollision(t *testing.T) {
	tr := New()
	tr.CreateBranch("/a")
	tr.CreateBranch("/b")
	if ok := tr.RenameBranch("/a", "b"); ok {
		t.Fatalf("rename onto an existing name should fail")
	}
}

func TestCallbacksFireOnChange(t *testing.T) {
	tr := New()
	tr.CreateBranch("/scene")

	var gotTask Task
	var gotName string
	tr.RegisterBranchCallback("/scene", func(task Task, path, name string) {
		gotTask = task
		gotName = name
	})
	tr.CreateLeaf("/scene/x", value.Int(1))
	if gotTask != TaskAddLeaf || gotName != "x" {
		t.Fatalf("callback did not fire correctly: %v %v", gotTask, gotName)
	}

	var gotValue value.Value
	tr.RegisterLeafCallback("/scene/x", func(v value.Value, timestamp int64) {
		gotValue = v
	})
	tr.SetLeaf("/scene/x", value.Int(99), 0)
	if !value.Equal(gotValue, value.Int(99)) {
		t.Fatalf("leaf callback did not fire, got %v", gotValue)
	}
}

func TestCutAndGraftBranch(t *testing.T) {
	tr := New()
	tr.CreateBranch("/a/b")
	tr.CreateLeaf("/a/b/x", value.Int(5))
	tr.CreateBranch("/dest")

	sub, ok := tr.CutBranch("/a/b")
	if !ok {
		t.Fatalf("cut should succeed")
	}
	if tr.HasBranch("/a/b") {
		t.Fatalf("branch should no longer exist after cut")
	}

	if ok := tr.GraftBranch("/dest", sub); !ok {
		t.Fatalf("graft should succeed")
	}
	if !tr.HasBranch("/dest/b") || !tr.HasLeaf("/dest/b/x") {
		t.Fatalf("grafted subtree should retain its descendants")
	}
	v, _, ok := tr.GetLeaf("/dest/b/x")
	if !ok || !value.Equal(v, value.Int(5)) {
		t.Fatalf("grafted leaf value should survive the move, got %v", v)
	}
}

func TestCutAndGraftLeafAcrossTrees(t *testing.T) {
	a := New()
	b := New()
	a.CreateLeaf("/solo", value.String("hi"))
	b.CreateBranch("/room")

	sub, ok := a.CutLeaf("/solo")
	if !ok {
		t.Fatalf("cut should succeed")
	}
	if ok := b.GraftLeaf("/room", sub); !ok {
		t.Fatalf("graft into a different tree should succeed")
	}
	v, _, ok := b.GetLeaf("/room/solo")
	if !ok || !value.Equal(v, value.String("hi")) {
		t.Fatalf("leaf should have moved intact into the other tree, got %v", v)
	}
}

func TestGraftRejectsNameCollision(t *testing.T) {
	tr := New()
	tr.CreateBranch("/src")
	tr.CreateBranch("/dest/taken")
	sub, _ := tr.CutBranch("/src")
	sub.n.name = "taken"
	if ok := tr.GraftBranch("/dest", sub); ok {
		t.Fatalf("graft onto a colliding name should fail")
	}
}

func TestCallbackCanReenterTheSameTree(t *testing.T) {
	tr := New()
	tr.CreateBranch("/objects")

	var materialized string
	tr.RegisterBranchCallback("/objects", func(task Task, path, name string) {
		if task != TaskAddBranch {
			return
		}
		// A callback body calling back into the same Tree -- registering a
		// new callback and reading a leaf -- must not deadlock against the
		// lock its own firing is running under.
		tr.RegisterBranchCallback("/objects/"+name, func(task Task, _, leafName string) {
			if task == TaskAddLeaf && leafName == "type" {
				if v, _, ok := tr.GetLeaf("/objects/" + name + "/type"); ok {
					materialized = v.String()
				}
			}
		})
	})

	tr.CreateBranch("/objects/proj1")
	tr.CreateLeaf("/objects/proj1/type", value.String("image"))
	if materialized != "image" {
		t.Fatalf("nested callback never ran, got materialized=%q", materialized)
	}
}

func TestCutThenGraftReconstructionSeedsSufficeToReplayOnAPeer(t *testing.T) {
	src := New()
	src.CreateBranch("/a/branch")
	src.CreateLeaf("/a/branch/x", value.Int(42))
	src.CreateBranch("/b")
	src.GetSeedList() // discard the setup seeds; only the cut/graft seeds matter here

	sub, ok := src.CutBranch("/a/branch")
	if !ok {
		t.Fatalf("cut should succeed")
	}
	if ok := src.GraftBranch("/b", sub); !ok {
		t.Fatalf("graft should succeed")
	}

	seeds := src.GetSeedList()
	peer := New()
	peer.CreateBranch("/a/branch")
	peer.CreateLeaf("/a/branch/x", value.Int(42))
	peer.CreateBranch("/b")
	peer.GetSeedList()

	peer.AddSeedsToQueue(seeds)
	if dropped := peer.ProcessQueue(false); dropped != 0 {
		t.Fatalf("unexpected drops replaying cut/graft seeds: %d", dropped)
	}

	if peer.HasBranch("/a/branch") {
		t.Fatalf("peer should have removed /a/branch like the source did")
	}
	if !peer.HasBranch("/b/branch") || !peer.HasLeaf("/b/branch/x") {
		t.Fatalf("peer should have reconstructed /b/branch from the graft seeds")
	}
	v, _, ok := peer.GetLeaf("/b/branch/x")
	if !ok || !value.Equal(v, value.Int(42)) {
		t.Fatalf("reconstructed leaf value wrong, got %v", v)
	}
}

func TestPendingCallbackFiresAfterBranchCreated(t *testing.T) {
	tr := New()
	var fired bool
	// register before the branch exists: a "pending" registration
	tr.RegisterBranchCallback("/later", func(task Task, path, name string) { fired = true })
	tr.CreateBranch("/later")
	tr.CreateLeaf("/later/x", value.Int(1))
	if !fired {
		t.Fatalf("pending registration should fire once the path exists")
	}
}
