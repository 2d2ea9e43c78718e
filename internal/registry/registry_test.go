// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"testing"
	"time"

	"github.com/morganforge/tidings/internal/model"
)

func conv(id string, activity time.Time) model.Conversation {
	return model.Conversation{ID: id, LastActivity: activity}
}

func ids(convs []model.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUpsert_ReplacesWholesale(t *testing.T) {
	r := New()
	r.Upsert(model.Conversation{ID: "c1", Name: "old", Participants: []string{"u1", "u2"}})
	r.Upsert(model.Conversation{ID: "c1", Name: "new"})

	got, ok := r.Get("c1")
	if !ok {
		t.Fatal("conversation missing after upsert")
	}
	if got.Name != "new" {
		t.Errorf("Name = %q, want %q", got.Name, "new")
	}
	if got.Participants != nil {
		t.Errorf("stale participants survived replacement: %v", got.Participants)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestUpdate_KnownIDReplaced(t *testing.T) {
	r := New()
	r.Upsert(model.Conversation{ID: "c1", Name: "old"})
	r.Update(model.Conversation{ID: "c1", Name: "renamed"})

	got, _ := r.Get("c1")
	if got.Name != "renamed" {
		t.Errorf("Name = %q, want %q", got.Name, "renamed")
	}
}

func TestUpdate_UnknownIDIsNoOp(t *testing.T) {
	r := New()
	r.Upsert(conv("c1", time.Now()))
	r.Remove("c1")

	// An update racing the removal must not bring the conversation back.
	r.Update(model.Conversation{ID: "c1", Name: "ghost"})
	if r.Has("c1") || r.Len() != 0 {
		t.Error("update resurrected a removed conversation")
	}
}

func TestSorted_MostRecentFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := New()
	r.Upsert(conv("old", base))
	r.Upsert(conv("newest", base.Add(2*time.Hour)))
	r.Upsert(conv("mid", base.Add(time.Hour)))

	got := ids(r.Sorted())
	want := []string{"newest", "mid", "old"}
	if !equalIDs(got, want) {
		t.Errorf("Sorted = %v, want %v", got, want)
	}
}

func TestSorted_StableOnEqualTimes(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := New()
	r.Upsert(conv("a", base))
	r.Upsert(conv("b", base))
	r.Upsert(conv("c", base))

	first := ids(r.Sorted())
	second := ids(r.Sorted())
	if !equalIDs(first, second) {
		t.Errorf("equal-time order jittered: %v then %v", first, second)
	}
	if !equalIDs(first, []string{"a", "b", "c"}) {
		t.Errorf("equal times should keep insertion order, got %v", first)
	}
}

func TestSetLastMessage_BumpsActivity(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := New()
	r.Upsert(conv("c1", base))
	r.Upsert(conv("c2", base.Add(time.Hour)))

	msg := model.Message{ID: "m1", ChatID: "c1", Content: "ping", Timestamp: base.Add(2 * time.Hour)}
	r.SetLastMessage(msg)

	got := ids(r.Sorted())
	if !equalIDs(got, []string{"c1", "c2"}) {
		t.Errorf("activity bump did not reorder: %v", got)
	}
	c1, _ := r.Get("c1")
	if c1.LastMessage == nil || c1.LastMessage.ID != "m1" {
		t.Error("last message not recorded")
	}
}

func TestSetLastMessage_UnknownChatIgnored(t *testing.T) {
	r := New()
	r.SetLastMessage(model.Message{ID: "m1", ChatID: "ghost"})
	if r.Len() != 0 {
		t.Error("unknown chat must not be created from a message")
	}
}

func TestRefreshLastMessage_OnlyWhenLatest(t *testing.T) {
	r := New()
	r.Upsert(model.Conversation{
		ID:          "c1",
		LastMessage: &model.Message{ID: "m2", ChatID: "c1", Content: "latest"},
	})

	// Editing an older message leaves the preview alone.
	r.RefreshLastMessage(model.Message{ID: "m1", ChatID: "c1", Content: "edited"})
	c1, _ := r.Get("c1")
	if c1.LastMessage.Content != "latest" {
		t.Error("preview changed for a non-latest edit")
	}

	// Editing the latest message rewrites the preview.
	r.RefreshLastMessage(model.Message{ID: "m2", ChatID: "c1", Content: "edited", Edited: true})
	c1, _ = r.Get("c1")
	if c1.LastMessage.Content != "edited" {
		t.Error("preview not refreshed for latest edit")
	}
}

func TestClearLastMessage(t *testing.T) {
	r := New()
	r.Upsert(model.Conversation{
		ID:          "c1",
		LastMessage: &model.Message{ID: "m2", ChatID: "c1"},
	})

	r.ClearLastMessage("c1", "m1") // not the latest, no-op
	c1, _ := r.Get("c1")
	if c1.LastMessage == nil {
		t.Fatal("preview cleared for a non-latest delete")
	}

	r.ClearLastMessage("c1", "m2")
	c1, _ = r.Get("c1")
	if c1.LastMessage != nil {
		t.Error("preview should be cleared when the latest message is deleted")
	}
}

func TestRemove_UnknownIsNoop(t *testing.T) {
	r := New()
	r.Upsert(conv("c1", time.Now()))
	r.Remove("ghost")
	r.Remove("c1")
	r.Remove("c1")
	if r.Len() != 0 || r.Has("c1") {
		t.Error("remove did not converge to empty")
	}
}

func TestReplace_DropsStaleEntries(t *testing.T) {
	r := New()
	r.Upsert(conv("stale", time.Now()))
	r.Replace([]model.Conversation{conv("c1", time.Now()), conv("c2", time.Now())})

	if r.Has("stale") {
		t.Error("replace kept a stale conversation")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestAddUser_Idempotent(t *testing.T) {
	r := New()
	r.SetUsers([]model.User{{ID: "u1", Username: "alice"}})
	r.AddUser(model.User{ID: "u2", Username: "bob"})
	r.AddUser(model.User{ID: "u2", Username: "bob"})
	r.AddUser(model.User{ID: "u1", Username: "alice2"})

	users := r.Users()
	if len(users) != 2 {
		t.Fatalf("len(Users) = %d, want 2", len(users))
	}
	if users[0].Username != "alice2" {
		t.Errorf("re-added user not replaced in place: %q", users[0].Username)
	}
	if u, ok := r.UserByID("u2"); !ok || u.Username != "bob" {
		t.Error("UserByID lookup failed")
	}
}
