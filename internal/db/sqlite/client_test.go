package sqlite

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/iamwavecut/cmdbot/internal/db"
)

func TestSettingsDefaultAndUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	got, err := client.GetSettings(ctx, -100)
	if err != nil {
		t.Fatalf("get default settings: %v", err)
	}
	if got.Language != db.DefaultLanguage || got.ChatID != -100 {
		t.Fatalf("unexpected default settings: %#v", got)
	}

	if err := client.SetSettings(ctx, &db.ChatSettings{ChatID: -100, Language: "en_US"}); err != nil {
		t.Fatalf("set settings: %v", err)
	}
	if err := client.SetSettings(ctx, &db.ChatSettings{ChatID: -100, Language: "zh_CN"}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	got, err = client.GetSettings(ctx, -100)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.Language != "zh_CN" {
		t.Fatalf("unexpected language: %s", got.Language)
	}
}

func TestGroups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	for _, g := range []db.Group{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}, {ID: 2, Name: "bb"}} {
		g := g
		if err := client.AddGroup(ctx, &g); err != nil {
			t.Fatalf("add group: %v", err)
		}
	}
	groups, err := client.ListGroups(ctx)
	if err != nil {
		t.Fatalf("list groups: %v", err)
	}
	if len(groups) != 2 || groups[0].Name != "a" || groups[1].Name != "bb" {
		t.Fatalf("unexpected groups: %#v", groups)
	}

	if err := client.RemoveGroup(ctx, 1); err != nil {
		t.Fatalf("remove group: %v", err)
	}
	if err := client.RemoveGroup(ctx, 1); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTeachersAndMasks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.GetTeacher(ctx, 1); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	teacher := &db.Teacher{Name: "张三", Phone: 13800000000, Contact: "@zhang"}
	if err := client.AddTeacher(ctx, teacher); err != nil {
		t.Fatalf("add teacher: %v", err)
	}
	got, err := client.GetTeacher(ctx, teacher.Phone)
	if err != nil || *got != *teacher {
		t.Fatalf("unexpected teacher: %#v %v", got, err)
	}

	mask := &db.Mask{ChatID: 1, UserID: 2, Data: []byte{0x89, 'P', 'N', 'G'}, IsDefault: true}
	if err := client.SetMask(ctx, mask); err != nil {
		t.Fatalf("set mask: %v", err)
	}
	gotMask, err := client.GetMask(ctx, 1, 2)
	if err != nil {
		t.Fatalf("get mask: %v", err)
	}
	if !bytes.Equal(gotMask.Data, mask.Data) || !gotMask.IsDefault {
		t.Fatalf("unexpected mask: %#v", gotMask)
	}
}

func TestLoginLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	if err := client.Login(ctx, &db.Login{ChatID: 1, UserID: 2}); err != nil {
		t.Fatalf("login: %v", err)
	}
	ok, err := client.IsLoggedIn(ctx, 1, 2)
	if err != nil || !ok {
		t.Fatalf("expected logged in: %v %v", ok, err)
	}
	existed, err := client.Logout(ctx, 1, 2)
	if err != nil || !existed {
		t.Fatalf("logout: %v %v", existed, err)
	}
	existed, err = client.Logout(ctx, 1, 2)
	if err != nil || existed {
		t.Fatalf("second logout: %v %v", existed, err)
	}
}
