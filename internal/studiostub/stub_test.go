package studiostub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/starford/coursemover/internal/models"
	"github.com/starford/coursemover/internal/studio"
	"github.com/starford/coursemover/internal/testutil"
)

var quiet = slog.New(slog.NewJSONHandler(io.Discard, nil))

// uniqueOutline has distinct locators at every level.
func uniqueOutline() *models.XBlockInfo {
	unit := func(id string, components ...string) *models.XBlockInfo {
		u := &models.XBlockInfo{ID: id, Category: "vertical", DisplayName: id}
		u.ChildInfo = &models.ChildInfo{Category: "html"}
		for _, c := range components {
			u.ChildInfo.Children = append(u.ChildInfo.Children, &models.XBlockInfo{ID: c, Category: "html", DisplayName: c})
		}
		return u
	}
	return &models.XBlockInfo{
		ID: "course", Category: "course", DisplayName: "Course",
		ChildInfo: &models.ChildInfo{Category: "chapter", Children: []*models.XBlockInfo{{
			ID: "s1", Category: "chapter", DisplayName: "s1",
			ChildInfo: &models.ChildInfo{Category: "sequential", Children: []*models.XBlockInfo{{
				ID: "ss1", Category: "sequential", DisplayName: "ss1",
				ChildInfo: &models.ChildInfo{Category: "vertical", Children: []*models.XBlockInfo{
					unit("u1", "c1", "c2"),
					unit("u2", "c3"),
					{ID: "u3", Category: "vertical", DisplayName: "u3"},
				}},
			}}},
		}}},
	}
}

func childIDs(n *models.XBlockInfo) []string {
	var out []string
	if n.ChildInfo != nil {
		for _, c := range n.ChildInfo.Children {
			out = append(out, c.ID)
		}
	}
	return out
}

func unitChildren(t *testing.T, s *Store, unit string) []string {
	t.Helper()
	path := find(s.Outline(), unit)
	if path == nil {
		t.Fatalf("unit %s not found", unit)
	}
	return childIDs(path[len(path)-1])
}

func TestStore_Ancestors(t *testing.T) {
	s := NewStore(uniqueOutline())
	info, err := s.Ancestors("c3")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, a := range info.Ancestors {
		ids = append(ids, a.ID)
	}
	if strings.Join(ids, ",") != "u2,ss1,s1,course" {
		t.Errorf("ancestors = %v", ids)
	}
	if _, err := s.Ancestors("nope"); !errors.Is(err, ErrUnknownBlock) {
		t.Errorf("err = %v, want ErrUnknownBlock", err)
	}
}

func TestStore_Move(t *testing.T) {
	s := NewStore(uniqueOutline())
	resp, err := s.Move(models.MoveRequest{SourceLocator: "c2", ParentLocator: "u2", TargetIndex: testutil.IntPtr(0)})
	if err != nil {
		t.Fatal(err)
	}
	if *resp.SourceIndex != 1 || *resp.TargetIndex != 0 || resp.ParentLocator != "u2" {
		t.Errorf("resp = %+v", resp)
	}
	if got := unitChildren(t, s, "u1"); strings.Join(got, ",") != "c1" {
		t.Errorf("u1 = %v", got)
	}
	if got := unitChildren(t, s, "u2"); strings.Join(got, ",") != "c2,c3" {
		t.Errorf("u2 = %v", got)
	}

	// Appends without a target index, and into an empty unit.
	if _, err := s.Move(models.MoveRequest{SourceLocator: "c1", ParentLocator: "u3"}); err != nil {
		t.Fatal(err)
	}
	if got := unitChildren(t, s, "u3"); strings.Join(got, ",") != "c1" {
		t.Errorf("u3 = %v", got)
	}
}

func TestStore_MoveRejected(t *testing.T) {
	tests := []struct {
		name string
		req  models.MoveRequest
		want error
	}{
		{"unknown source", models.MoveRequest{SourceLocator: "x", ParentLocator: "u1"}, ErrUnknownBlock},
		{"unknown parent", models.MoveRequest{SourceLocator: "c1", ParentLocator: "x"}, ErrUnknownBlock},
		{"wrong level", models.MoveRequest{SourceLocator: "c1", ParentLocator: "ss1"}, ErrInvalidMove},
		{"into itself", models.MoveRequest{SourceLocator: "s1", ParentLocator: "u1"}, ErrInvalidMove},
		{"course", models.MoveRequest{SourceLocator: "course", ParentLocator: "u1"}, ErrInvalidMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(uniqueOutline())
			if _, err := s.Move(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_OutlineIsACopy(t *testing.T) {
	s := NewStore(uniqueOutline())
	out := s.Outline()
	out.ChildInfo.Children = nil
	if len(childIDs(s.Outline())) != 1 {
		t.Error("mutating the returned outline changed the store")
	}
}

func newClient(t *testing.T, srv *httptest.Server, token string) *studio.Client {
	t.Helper()
	c, err := studio.New(studio.Config{
		BaseURL:       srv.URL,
		XBlockURLRoot: DefaultXBlockURLRoot,
		OutlineURL:    DefaultOutlinePath + "/course-v1:Org+Course+Run?format=concise",
		Token:         token,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRouter_ServesStudioClient(t *testing.T) {
	store := NewStore(uniqueOutline())
	srv := httptest.NewServer(NewRouter(store, Options{Logger: quiet}))
	defer srv.Close()
	c := newClient(t, srv, "")
	ctx := context.Background()

	loaded, err := studio.Load(ctx, c, "c3")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Tree.Len() != 9 {
		t.Errorf("tree len = %d, want 9", loaded.Tree.Len())
	}
	if p, ok := loaded.Chain.Parent(); !ok || p.ID != "u2" {
		t.Errorf("parent = %+v", p)
	}

	resp, err := c.Move(ctx, models.MoveRequest{SourceLocator: "c3", ParentLocator: "u1"})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if *resp.TargetIndex != 2 || *resp.SourceIndex != 0 {
		t.Errorf("resp = %+v", resp)
	}

	_, err = c.Move(ctx, models.MoveRequest{SourceLocator: "c3", ParentLocator: "s1"})
	var te *studio.TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid move err = %v", err)
	}
	_, err = c.FetchAncestors(ctx, "missing")
	if !errors.As(err, &te) || te.StatusCode != http.StatusNotFound {
		t.Errorf("unknown ancestors err = %v", err)
	}
}

func TestRouter_Token(t *testing.T) {
	srv := httptest.NewServer(NewRouter(NewStore(uniqueOutline()), Options{Token: "secret", Logger: quiet}))
	defer srv.Close()

	var te *studio.TransportError
	if _, err := newClient(t, srv, "").FetchOutline(context.Background()); !errors.As(err, &te) || te.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token err = %v", err)
	}
	if _, err := newClient(t, srv, "secret").FetchOutline(context.Background()); err != nil {
		t.Errorf("with token: %v", err)
	}
}

func TestRouter_AncestorsRequiresField(t *testing.T) {
	srv := httptest.NewServer(NewRouter(NewStore(uniqueOutline()), Options{Logger: quiet}))
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/xblock/c1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func writeFixture(t *testing.T, path string, root *models.XBlockInfo) {
	t.Helper()
	data, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func eventually(t *testing.T, timeout time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error(msg)
}

func TestFixture_LoadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outline.json")
	writeFixture(t, path, &models.XBlockInfo{ID: "x", Category: "chapter", DisplayName: "x"})
	f, err := NewFixture(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Load(); err == nil {
		t.Error("expected error for a root that is not a course")
	}
}

func TestFixture_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outline.json")
	writeFixture(t, path, uniqueOutline())
	f, err := NewFixture(path)
	if err != nil {
		t.Fatal(err)
	}
	root, err := f.Load()
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var reloads atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Watch(ctx, store, quiet, func() { reloads.Add(1) })
	}()
	time.Sleep(100 * time.Millisecond)

	writeFixture(t, path, testutil.CourseOutline(testutil.Options{Section: 3}))
	eventually(t, 3*time.Second, func() bool {
		return len(childIDs(store.Outline())) == 3
	}, "store not reloaded after fixture change")

	// A broken write keeps the previous outline.
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if len(childIDs(store.Outline())) != 3 {
		t.Error("broken fixture replaced the outline")
	}

	cancel()
	<-done
	if reloads.Load() != 1 {
		t.Errorf("reloads = %d, want 1", reloads.Load())
	}
}

func TestFixture_SaveSkipsOwnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outline.json")
	writeFixture(t, path, uniqueOutline())
	f, err := NewFixture(path)
	if err != nil {
		t.Fatal(err)
	}
	root, err := f.Load()
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(root)
	srv := httptest.NewServer(NewRouter(store, Options{Fixture: f, Logger: quiet}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var reloads atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Watch(ctx, store, quiet, func() { reloads.Add(1) })
	}()
	time.Sleep(100 * time.Millisecond)

	if _, err := newClient(t, srv, "").Move(ctx, models.MoveRequest{SourceLocator: "c1", ParentLocator: "u3"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	cancel()
	<-done

	if reloads.Load() != 0 {
		t.Errorf("reloads = %d, want 0 for the stub's own save", reloads.Load())
	}
	saved, err := f.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got := childIDs(find(saved, "u3")[3]); strings.Join(got, ",") != "c1" {
		t.Errorf("saved u3 = %v", got)
	}
}
