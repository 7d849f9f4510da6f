package dynamic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/law-makers/filmexport/internal/auth"
	"github.com/law-makers/filmexport/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromeFlags(t *testing.T) {
	flags := chromeFlags(Options{Headless: true, UserAgent: "UA/1", Proxy: "http://127.0.0.1:8080"})

	assert.Equal(t, "new", flags["headless"])
	assert.Equal(t, "UA/1", flags["user-agent"])
	assert.Equal(t, "http://127.0.0.1:8080", flags["proxy-server"])
	assert.Equal(t, "AutomationControlled", flags["disable-blink-features"])

	flags = chromeFlags(Options{})
	assert.Equal(t, false, flags["headless"])
	assert.NotContains(t, flags, "user-agent")
	assert.NotContains(t, flags, "proxy-server")
}

func TestAllocatorOptions(t *testing.T) {
	opts := Options{Headless: true}
	withoutPath := allocatorOptions("", opts)
	withPath := allocatorOptions("/usr/bin/chromium", opts)

	assert.Len(t, withoutPath, len(chromeFlags(opts)))
	assert.Len(t, withPath, len(withoutPath)+1)
}

func TestCookieParams(t *testing.T) {
	params := cookieParams([]auth.Cookie{
		{Name: "cf_clearance", Value: "abc", Domain: ".filmaffinity.com", Path: "/", Expires: 1900000000, Secure: true, SameSite: "None"},
		{Name: "FSID", Value: "x", Domain: "www.filmaffinity.com", Path: "/", HTTPOnly: true},
	})

	require.Len(t, params, 2)
	require.NotNil(t, params[0].Expires)
	assert.Equal(t, int64(1900000000), params[0].Expires.Time().Unix())
	assert.Equal(t, network.CookieSameSiteNone, params[0].SameSite)
	assert.Nil(t, params[1].Expires)
	assert.True(t, params[1].HTTPOnly)
}

func TestSetupActions(t *testing.T) {
	assert.Len(t, setupActions(Options{}), 1)

	session := auth.NewSession("s", "https://x", []auth.Cookie{{Name: "a", Value: "1"}})
	actions := setupActions(Options{Stealth: true, Headers: map[string]string{"Accept-Language": "en"}, Session: session})
	assert.Len(t, actions, 4)
}

func TestFindChrome_Explicit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit check is unix only")
	}

	dir := t.TempDir()
	fake := filepath.Join(dir, "chrome")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0755))
	assert.Equal(t, fake, FindChrome(fake))

	notExec := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(notExec, []byte("x"), 0644))
	assert.False(t, isExecutable(notExec))
	assert.False(t, isExecutable(dir))
}

func TestCandidatePaths(t *testing.T) {
	for _, goos := range []string{"linux", "darwin"} {
		assert.NotEmpty(t, candidatePaths(goos), goos)
	}
}

// newTestNavigator launches a real browser, skipping when none is installed
func newTestNavigator(t *testing.T) *Navigator {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}
	if FindChrome("") == "" {
		t.Skip("Chrome not installed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nav, err := New(ctx, Options{Headless: true, Stealth: true})
	if err != nil {
		t.Skipf("Chrome could not be started: %v", err)
	}
	t.Cleanup(func() { nav.Close() })
	return nav
}

func TestNavigator_RendersScriptContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<!DOCTYPE html><html><body><div id="list"></div>
<script>document.getElementById("list").innerHTML = '<div class="mb-4">rendered</div>';</script>
</body></html>`))
	}))
	defer server.Close()

	nav := newTestNavigator(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, nav.Navigate(ctx, server.URL))
	html, err := nav.CurrentHTML(ctx)
	require.NoError(t, err)

	assert.True(t, strings.Contains(html, `<div class="mb-4">rendered</div>`))
	assert.Equal(t, http.StatusOK, nav.LastStatus())
	assert.Equal(t, "dynamic", nav.Name())
}

func TestNavigator_HidesWebdriver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p id="wd"></p><script>document.getElementById("wd").textContent = "webdriver=" + navigator.webdriver;</script></body></html>`))
	}))
	defer server.Close()

	nav := newTestNavigator(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, nav.Navigate(ctx, server.URL))
	html, err := nav.CurrentHTML(ctx)
	require.NoError(t, err)
	assert.NotContains(t, html, "webdriver=true")
}

func TestNavigator_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	nav := newTestNavigator(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := nav.Navigate(ctx, server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &engine.NavigationError{Code: engine.ErrCodeTimeout}))

	// the tab survives a timed out navigation
	server2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer server2.Close()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel2()
	require.NoError(t, nav.Navigate(ctx2, server2.URL))
}

func TestNavigator_Closed(t *testing.T) {
	nav := newTestNavigator(t)

	_, err := nav.CurrentHTML(context.Background())
	assert.ErrorIs(t, err, engine.ErrNoPage)

	require.NoError(t, nav.Close())
	require.NoError(t, nav.Close())
	assert.ErrorIs(t, nav.Navigate(context.Background(), "about:blank"), engine.ErrClosed)
}

func TestNew_LaunchHonorsContext(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the browser")
	}

	// A browser that answers --version but never opens its DevTools endpoint
	fake := filepath.Join(t.TempDir(), "chrome")
	script := "#!/bin/sh\nif [ \"$1\" = \"--version\" ]; then echo 'Fake Chrome 1.0'; exit 0; fi\nexec sleep 30\n"
	require.NoError(t, os.WriteFile(fake, []byte(script), 0755))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	nav, err := New(ctx, Options{Headless: true, ChromePath: fake})
	require.Error(t, err)
	assert.Nil(t, nav)
	assert.Less(t, time.Since(start), 10*time.Second)

	var navErr *engine.NavigationError
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, engine.ErrCodeBrowserStart, navErr.Code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, engine.ErrBrowserNotFound))
}

func TestChromeVersion(t *testing.T) {
	assert.Equal(t, "unknown", chromeVersion(""))
	if runtime.GOOS == "windows" {
		return
	}
	fake := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\necho 'Chromium 120.0'\n"), 0755))
	assert.Equal(t, "Chromium 120.0", chromeVersion(fake))
}
