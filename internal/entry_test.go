package internal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/coursemover/internal/models"
	"github.com/starford/coursemover/internal/session"
	"github.com/starford/coursemover/internal/sse"
	"github.com/starford/coursemover/internal/testutil"
)

type fakeClient struct{}

func (fakeClient) FetchOutline(context.Context) (*models.XBlockInfo, error) {
	return testutil.CourseOutline(testutil.Options{Section: 1, Subsection: 1, Unit: 1, Component: 1}), nil
}

func (fakeClient) FetchAncestors(context.Context, string) (*models.AncestorInfo, error) {
	return testutil.SourceAncestors(), nil
}

func (fakeClient) Move(_ context.Context, req models.MoveRequest) (*models.MoveResponse, error) {
	return &models.MoveResponse{SourceLocator: req.SourceLocator, ParentLocator: req.ParentLocator}, nil
}

func testHandler(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()
	broker := sse.NewBroker()
	t.Cleanup(broker.Close)
	sessions := session.NewManager(context.Background(), fakeClient{}, sse.Publisher{B: broker}, nil)
	t.Cleanup(sessions.Shutdown)
	srv := httptest.NewServer(newHandler(cfg, sessions, broker))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_Health(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "secret"}
	srv := testHandler(t, cfg)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
			t.Errorf("%s: %d %s", path, resp.StatusCode, body)
		}
	}

	resp, err := http.Get(srv.URL + "/api/sessions")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("api without token: %d, want 401", resp.StatusCode)
	}
}

func TestHandler_OpenAndView(t *testing.T) {
	srv := testHandler(t, NewDefaultConfig())

	body := `{"source_locator":"component_ID_0","source_display_name":"component_display_name_0"}`
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	created, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("open: %d %s", resp.StatusCode, created)
	}
	id := between(string(created), `"id":"`, `"`)
	if id == "" {
		t.Fatalf("no id in %s", created)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/api/sessions/" + id + "/view")
		if err != nil {
			t.Fatal(err)
		}
		html, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if strings.Contains(string(html), "xblock-item") {
			if !strings.Contains(string(html), "Move: component_display_name_0") {
				t.Errorf("view missing title: %s", html)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never rendered its list: %s", html)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	j := strings.Index(s, end)
	if j < 0 {
		return ""
	}
	return s[:j]
}

func TestNewApplication_RequiresConfig(t *testing.T) {
	if _, err := newApplication(nil); err == nil {
		t.Error("expected error without config")
	}
	app, err := newApplication([]Option{WithConfig(NewDefaultConfig()), WithClient(fakeClient{})})
	if err != nil {
		t.Fatal(err)
	}
	c, err := app.studioClient()
	if err != nil || c != (fakeClient{}) {
		t.Errorf("studioClient = %v, %v", c, err)
	}
}

func TestStudioClientFromConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	app, err := newApplication([]Option{WithConfig(cfg)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := app.studioClient(); err != nil {
		t.Fatalf("default config client: %v", err)
	}
	cfg.Studio.BaseURL = "relative"
	if _, err := app.studioClient(); err == nil {
		t.Error("expected error for relative base url")
	}
}
