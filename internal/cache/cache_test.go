package cache

import (
	"reflect"
	"testing"
	"time"

	"sync-photo-client/internal/models"
)

func groups(ids ...string) []models.Group {
	out := make([]models.Group, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Group{ID: id, Name: "group " + id, JoinCode: "JC" + id})
	}
	return out
}

func TestReplaceGroupsPreservesOrder(t *testing.T) {
	c := New()
	want := groups("g3", "g1", "g2")

	c.ReplaceGroups(want)

	if got := c.Groups(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestReplaceGroupsIsWholeReplace(t *testing.T) {
	c := New()
	c.ReplaceGroups(groups("g1", "g2"))
	c.ReplaceGroups(groups("g3"))

	got := c.Groups()
	if len(got) != 1 || got[0].ID != "g3" {
		t.Fatalf("expected only g3, got %+v", got)
	}
}

func TestReplaceGroupsDropsDuplicateIDs(t *testing.T) {
	c := New()
	in := groups("g1", "g2")
	in = append(in, models.Group{ID: "g1", Name: "later"})

	c.ReplaceGroups(in)

	got := c.Groups()
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0].Name != "group g1" {
		t.Fatalf("expected first occurrence kept, got %q", got[0].Name)
	}
}

func TestReplaceGroupPhotosIsolatesGroups(t *testing.T) {
	c := New()
	c.ReplaceGroupPhotos("g1", []models.Photo{{ID: "p1"}})
	c.ReplaceGroupPhotos("g2", []models.Photo{{ID: "p2"}, {ID: "p3"}})
	c.ReplaceGroupPhotos("g1", []models.Photo{{ID: "p4"}})

	g1, ok := c.GroupPhotos("g1")
	if !ok || len(g1) != 1 || g1[0].ID != "p4" {
		t.Fatalf("unexpected g1 photos %+v", g1)
	}
	g2, ok := c.GroupPhotos("g2")
	if !ok || len(g2) != 2 || g2[0].ID != "p2" {
		t.Fatalf("expected g2 untouched, got %+v", g2)
	}
}

func TestEmptyGroupPhotosDiffersFromAbsent(t *testing.T) {
	c := New()

	if _, ok := c.GroupPhotos("g1"); ok {
		t.Fatal("expected absent entry before any fetch")
	}

	c.ReplaceGroupPhotos("g1", []models.Photo{})

	photos, ok := c.GroupPhotos("g1")
	if !ok {
		t.Fatal("expected entry to be present")
	}
	if photos == nil || len(photos) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", photos)
	}
}

func TestCallerMutationDoesNotLeak(t *testing.T) {
	c := New()
	in := groups("g1")
	c.ReplaceGroups(in)
	in[0].Name = "mutated"

	out := c.Groups()
	out[0].Name = "mutated again"

	if got := c.Groups()[0].Name; got != "group g1" {
		t.Fatalf("expected cached name unchanged, got %q", got)
	}
}

func TestClearResetsEverything(t *testing.T) {
	c := New()
	c.ReplaceGroups(groups("g1"))
	c.ReplaceGroupPhotos("g1", []models.Photo{{ID: "p1"}})
	c.ReplaceFeed([]models.Photo{{ID: "p1"}})
	c.SetCurrentUser(&models.User{ID: "u1"})

	c.Clear()

	snap := c.Snapshot()
	if len(snap.Groups) != 0 || len(snap.PhotosByGroup) != 0 || len(snap.FeedPhotos) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if snap.CurrentUser != nil {
		t.Fatalf("expected user dropped, got %+v", snap.CurrentUser)
	}
}

func TestWatchGroupsSeesEveryChangeOnce(t *testing.T) {
	c := New()
	sub := c.WatchGroups()
	defer sub.Close()

	c.ReplaceGroups(groups("g1"))
	c.ReplaceGroups(groups("g1"))
	c.ReplaceGroups(groups("g1", "g2"))

	wantLens := []int{0, 1, 2}
	for i, want := range wantLens {
		select {
		case got := <-sub.C():
			if len(got) != want {
				t.Fatalf("emission %d: expected %d groups, got %d", i, want, len(got))
			}
		case <-time.After(time.Second):
			t.Fatalf("emission %d: timed out", i)
		}
	}

	select {
	case extra := <-sub.C():
		t.Fatalf("unexpected duplicate emission %+v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestReplaceFeed(t *testing.T) {
	c := New()
	c.ReplaceFeed(nil)
	if feed := c.Feed(); feed == nil || len(feed) != 0 {
		t.Fatalf("expected empty feed, got %#v", feed)
	}

	c.ReplaceFeed([]models.Photo{{ID: "p2"}, {ID: "p1"}})
	feed := c.Feed()
	if len(feed) != 2 || feed[0].ID != "p2" {
		t.Fatalf("unexpected feed %+v", feed)
	}
}

func TestUpsertGroup(t *testing.T) {
	c := New()
	c.ReplaceGroups([]models.Group{{ID: "g1", Name: "Old"}, {ID: "g2", Name: "Other"}})

	c.UpsertGroup(models.Group{ID: "g1", Name: "New"})
	c.UpsertGroup(models.Group{ID: "g3", Name: "Third"})

	groups := c.Groups()
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Name != "New" || groups[2].ID != "g3" {
		t.Fatalf("unexpected groups %+v", groups)
	}
}
