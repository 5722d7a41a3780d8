package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"sync-photo-client/internal/media"
	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"
)

func newPhotoService(f *fixture) *PhotoService {
	return NewPhotoService(f.client, f.cache, f.likes, media.NewResolver("https://cdn.example.com", "photos", nil), 2)
}

func TestLoadGroupPhotosEmptyListIsPresent(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.getGroupPhotos = func(string) ([]models.Photo, error) {
		return []models.Photo{}, nil
	}
	svc := newPhotoService(f)

	if _, ok := f.cache.GroupPhotos("g1"); ok {
		t.Fatal("expected absent entry before fetch")
	}
	if _, err := svc.LoadGroupPhotos(context.Background(), "g1"); err != nil {
		t.Fatalf("load photos: %v", err)
	}
	photos, ok := f.cache.GroupPhotos("g1")
	if !ok || photos == nil || len(photos) != 0 {
		t.Fatalf("expected present empty entry, got %#v (ok=%v)", photos, ok)
	}
}

func TestLoadGroupPhotosSeedsLikes(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.getGroupPhotos = func(groupID string) ([]models.Photo, error) {
		return []models.Photo{{ID: "p1", GroupID: groupID, LikeCount: 5, LikedByMe: true}}, nil
	}
	svc := newPhotoService(f)

	if _, err := svc.LoadGroupPhotos(context.Background(), "g1"); err != nil {
		t.Fatalf("load photos: %v", err)
	}
	state, ok := f.likes.State("p1")
	if !ok || !state.Liked || state.Count != 5 {
		t.Fatalf("expected seeded like state, got %+v (ok=%v)", state, ok)
	}
}

func TestLoadGroupPhotosFailureKeepsCache(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.cache.ReplaceGroupPhotos("g1", []models.Photo{{ID: "p1"}})
	f.client.getGroupPhotos = func(string) ([]models.Photo, error) {
		return nil, &remote.DecodeError{Method: "GET", Path: "/groups/g1/photos", Err: errors.New("bad json")}
	}
	svc := newPhotoService(f)

	if _, err := svc.LoadGroupPhotos(context.Background(), "g1"); err == nil {
		t.Fatal("expected error")
	}
	photos, _ := f.cache.GroupPhotos("g1")
	if len(photos) != 1 || photos[0].ID != "p1" {
		t.Fatalf("expected cache unchanged, got %+v", photos)
	}
}

func TestLoadFeedMergesNewestFirst(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.getAllGroups = func() ([]models.Group, error) {
		return []models.Group{{ID: "g1"}, {ID: "g2"}, {ID: "g3"}}, nil
	}
	f.client.getGroupPhotos = func(groupID string) ([]models.Photo, error) {
		switch groupID {
		case "g1":
			return []models.Photo{{ID: "a", UploadedAt: at(10)}, {ID: "b", UploadedAt: at(1)}}, nil
		case "g2":
			return []models.Photo{{ID: "c", UploadedAt: at(5)}, {ID: "d"}}, nil
		default:
			return []models.Photo{}, nil
		}
	}
	svc := newPhotoService(f)

	feed, err := svc.LoadFeed(context.Background())
	if err != nil {
		t.Fatalf("load feed: %v", err)
	}

	var ids []string
	for _, p := range feed {
		ids = append(ids, p.ID)
	}
	if got := len(ids); got != 4 || ids[0] != "a" || ids[1] != "c" || ids[2] != "b" || ids[3] != "d" {
		t.Fatalf("unexpected feed order %v", ids)
	}
	if len(f.cache.Feed()) != 4 || len(f.cache.Groups()) != 3 {
		t.Fatal("expected feed and groups cached")
	}
	if photos, ok := f.cache.GroupPhotos("g3"); !ok || len(photos) != 0 {
		t.Fatalf("expected empty g3 entry, got %v (ok=%v)", photos, ok)
	}
}

func TestLoadFeedIsAllOrNothing(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.cache.ReplaceFeed([]models.Photo{{ID: "old"}})
	f.client.getAllGroups = func() ([]models.Group, error) {
		return []models.Group{{ID: "g1"}, {ID: "g2"}}, nil
	}
	f.client.getGroupPhotos = func(groupID string) ([]models.Photo, error) {
		if groupID == "g2" {
			return nil, &remote.NetworkError{Method: "GET", Path: "/groups/g2/photos", Err: errors.New("timeout")}
		}
		return []models.Photo{{ID: "p1"}}, nil
	}
	svc := newPhotoService(f)

	_, err := svc.LoadFeed(context.Background())

	var netErr *remote.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected wrapped NetworkError, got %v", err)
	}
	feed := f.cache.Feed()
	if len(feed) != 1 || feed[0].ID != "old" {
		t.Fatalf("expected feed unchanged, got %+v", feed)
	}
	if _, ok := f.cache.GroupPhotos("g1"); ok {
		t.Fatal("expected no partial group photos")
	}
	if len(f.cache.Groups()) != 0 {
		t.Fatal("expected groups unchanged")
	}
}

func TestUploadPhotoRefreshesGroup(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	captured := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	f.client.uploadPhoto = func(groupID string, image []byte, capturedAt *time.Time) (models.Photo, error) {
		if capturedAt == nil || !capturedAt.Equal(captured) {
			t.Fatalf("unexpected capturedAt %v", capturedAt)
		}
		return models.Photo{ID: "p1", GroupID: groupID}, nil
	}
	f.client.getGroupPhotos = func(string) ([]models.Photo, error) {
		return []models.Photo{{ID: "p1"}}, nil
	}
	svc := newPhotoService(f)

	photo, err := svc.UploadPhoto(context.Background(), "g1", []byte{0xff, 0xd8}, &captured)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if photo.ID != "p1" {
		t.Fatalf("unexpected photo %+v", photo)
	}
	if photos, ok := f.cache.GroupPhotos("g1"); !ok || len(photos) != 1 {
		t.Fatalf("expected refreshed photos, got %v", photos)
	}
}

func TestUploadPhotoRejectsEmptyImage(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	svc := newPhotoService(f)

	if _, err := svc.UploadPhoto(context.Background(), "g1", nil, nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if f.client.count("UploadPhoto") != 0 {
		t.Fatal("expected no remote call")
	}
}

func TestPhotoURLs(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	svc := newPhotoService(f)
	ctx := context.Background()

	legacy := models.Photo{ID: "p1", S3Key: models.String("abc.jpg")}
	if got, ok := svc.ImageURL(ctx, legacy); !ok || got != "https://cdn.example.com/photos/abc.jpg" {
		t.Fatalf("unexpected image url %q", got)
	}
	if got, ok := svc.ThumbnailURL(ctx, legacy); !ok || got != "https://cdn.example.com/photos/abc.jpg" {
		t.Fatalf("expected thumbnail to fall back to image, got %q", got)
	}
	if _, ok := svc.ImageURL(ctx, models.Photo{ID: "bare"}); ok {
		t.Fatal("expected no url without keys")
	}
}
