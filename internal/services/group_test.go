package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"sync-photo-client/internal/models"
	"sync-photo-client/internal/remote"
)

func TestLoadGroupsReplacesCache(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.getAllGroups = func() ([]models.Group, error) {
		return []models.Group{{ID: "g1", Name: "Trip"}, {ID: "g2", Name: "Family"}}, nil
	}
	svc := NewGroupService(f.client, f.cache)

	if _, err := svc.LoadGroups(context.Background()); err != nil {
		t.Fatalf("load groups: %v", err)
	}
	groups := f.cache.Groups()
	if len(groups) != 2 || groups[0].ID != "g1" || groups[1].ID != "g2" {
		t.Fatalf("unexpected cached groups %+v", groups)
	}
}

func TestLoadGroupsErrorStatusLeavesCacheUnchanged(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	existing := []models.Group{{ID: "g1", Name: "Trip"}}
	f.cache.ReplaceGroups(existing)
	f.client.getAllGroups = func() ([]models.Group, error) {
		return nil, &remote.APIError{HTTPStatus: 200, Status: "error", Message: "Server busy"}
	}
	svc := NewGroupService(f.client, f.cache)

	sub := f.cache.WatchGroups()
	defer sub.Close()
	<-sub.C()

	_, err := svc.LoadGroups(context.Background())

	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !reflect.DeepEqual(f.cache.Groups(), existing) {
		t.Fatalf("expected cache unchanged, got %+v", f.cache.Groups())
	}
	select {
	case got := <-sub.C():
		t.Fatalf("expected no publication, got %+v", got)
	default:
	}
}

func TestLoadGroupDetailUpdatesEntry(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.cache.ReplaceGroups([]models.Group{{ID: "g1", Name: "Old"}})
	f.client.getGroupDetail = func(id string) (models.Group, error) {
		return models.Group{ID: id, Name: "Renamed", MemberCount: 3}, nil
	}
	svc := NewGroupService(f.client, f.cache)

	if _, err := svc.LoadGroupDetail(context.Background(), "g1"); err != nil {
		t.Fatalf("load group: %v", err)
	}
	groups := f.cache.Groups()
	if len(groups) != 1 || groups[0].Name != "Renamed" || groups[0].MemberCount != 3 {
		t.Fatalf("unexpected groups %+v", groups)
	}
}

func TestJoinGroupRefreshesList(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.joinGroup = func(req remote.JoinGroupRequest) (models.Group, error) {
		if req.JoinCode != "ABC123" {
			t.Fatalf("expected trimmed code, got %q", req.JoinCode)
		}
		return models.Group{ID: "g9", Name: "Joined"}, nil
	}
	f.client.getAllGroups = func() ([]models.Group, error) {
		return []models.Group{{ID: "g9", Name: "Joined"}}, nil
	}
	svc := NewGroupService(f.client, f.cache)

	group, err := svc.JoinGroup(context.Background(), " ABC123 ")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if group.ID != "g9" || len(f.cache.Groups()) != 1 {
		t.Fatalf("expected refreshed list, got %+v", f.cache.Groups())
	}
}

func TestJoinGroupSurvivesRefreshFailure(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.joinGroup = func(remote.JoinGroupRequest) (models.Group, error) {
		return models.Group{ID: "g9"}, nil
	}
	svc := NewGroupService(f.client, f.cache)

	if _, err := svc.JoinGroup(context.Background(), "ABC123"); err != nil {
		t.Fatalf("expected join to succeed despite refresh failure, got %v", err)
	}
	if f.client.count("GetAllGroups") != 1 {
		t.Fatal("expected a refresh attempt")
	}
}

func TestGroupValidation(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	svc := NewGroupService(f.client, f.cache)

	if _, err := svc.JoinGroup(context.Background(), "  "); !errors.Is(err, ErrEmptyJoinCode) {
		t.Fatalf("expected ErrEmptyJoinCode, got %v", err)
	}
	if _, err := svc.CreateGroup(context.Background(), "", nil); !errors.Is(err, ErrEmptyGroupName) {
		t.Fatalf("expected ErrEmptyGroupName, got %v", err)
	}
}

func TestCreateGroupSurfacesMessage(t *testing.T) {
	f := newFixture(RollbackSymmetric)
	f.client.createGroup = func(remote.CreateGroupRequest) (models.Group, error) {
		return models.Group{}, &remote.APIError{HTTPStatus: 400, Status: "error", Message: "Name taken"}
	}
	svc := NewGroupService(f.client, f.cache)

	_, err := svc.CreateGroup(context.Background(), "Trip", nil)
	if remote.Message(err) != "Name taken" {
		t.Fatalf("expected server message, got %q", remote.Message(err))
	}
	if f.client.count("GetAllGroups") != 0 {
		t.Fatal("expected no refresh after failure")
	}
}
