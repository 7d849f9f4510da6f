package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "sessions"))

	session := NewSession("fa", "https://www.filmaffinity.com/en/", []Cookie{
		{Name: "cf_clearance", Value: "abc", Domain: ".filmaffinity.com", Path: "/", Expires: float64(time.Now().Add(time.Hour).Unix())},
	})
	session.UserAgent = "Mozilla/5.0 Test"
	require.NoError(t, store.Save(session))

	loaded, err := store.Load("fa")
	require.NoError(t, err)
	assert.Equal(t, session.URL, loaded.URL)
	assert.Equal(t, session.Cookies, loaded.Cookies)
	assert.Equal(t, "Mozilla/5.0 Test", loaded.UserAgent)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"fa"}, names)

	require.NoError(t, store.Delete("fa"))
	names, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	// deleting twice is fine
	require.NoError(t, store.Delete("fa"))
}

func TestFileStore_Missing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Load("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestFileStore_Expired(t *testing.T) {
	store := NewFileStore(t.TempDir())
	session := NewSession("old", "https://www.filmaffinity.com/", []Cookie{
		{Name: "a", Value: "1", Expires: float64(time.Now().Add(-time.Hour).Unix())},
	})
	require.NoError(t, store.Save(session))

	loaded, err := store.Load("old")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.NotNil(t, loaded, "expired sessions are still returned for display")
}

func TestFileStore_ListSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	for _, name := range []string{"zeta", "alpha"} {
		require.NoError(t, store.Save(NewSession(name, "https://x", nil)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestValidateName(t *testing.T) {
	store := NewFileStore(t.TempDir())
	for _, name := range []string{"", "../evil", manifestKey} {
		assert.Error(t, store.Save(&Session{Name: name}), "name %q", name)
	}
}

func TestLatestExpiry(t *testing.T) {
	assert.True(t, LatestExpiry(nil).IsZero())
	assert.True(t, LatestExpiry([]Cookie{{Name: "s"}}).IsZero())

	got := LatestExpiry([]Cookie{{Expires: 100}, {Expires: 300}, {Expires: 200}})
	assert.Equal(t, int64(300), got.Unix())
}

func TestSession_HTTPCookies(t *testing.T) {
	s := &Session{Cookies: []Cookie{
		{Name: "a", Value: "1", Domain: ".example.com", Path: "/", Expires: 2000000000, HTTPOnly: true, Secure: true, SameSite: "Lax"},
		{Name: "b", Value: "2"},
	}}

	cookies := s.HTTPCookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "a", cookies[0].Name)
	assert.Equal(t, int64(2000000000), cookies[0].Expires.Unix())
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.True(t, cookies[1].Expires.IsZero())
}

func TestParseJSONCookies(t *testing.T) {
	in := `[
	  {"name": "cf_clearance", "value": "abc", "domain": ".filmaffinity.com", "path": "/", "expirationDate": 1900000000.5, "httpOnly": true, "secure": true, "sameSite": "no_restriction"},
	  {"name": "FSID", "value": "xyz", "domain": "www.filmaffinity.com", "expires": 1800000000},
	  {"name": "", "value": "skipped"}
	]`

	cookies, err := ParseCookies(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, Cookie{
		Name: "cf_clearance", Value: "abc", Domain: ".filmaffinity.com", Path: "/",
		Expires: 1900000000.5, HTTPOnly: true, Secure: true, SameSite: "None",
	}, cookies[0])
	assert.Equal(t, "/", cookies[1].Path)
	assert.Equal(t, float64(1800000000), cookies[1].Expires)
}

func TestParseJSONCookies_Invalid(t *testing.T) {
	_, err := ParseJSONCookies(strings.NewReader(`{"name": "not an array"}`))
	assert.Error(t, err)
}

func TestParseNetscapeCookies(t *testing.T) {
	in := "# Netscape HTTP Cookie File\n" +
		"\n" +
		".filmaffinity.com\tTRUE\t/\tTRUE\t1900000000\tcf_clearance\tabc\n" +
		"#HttpOnly_www.filmaffinity.com\tFALSE\t/en\tFALSE\t0\tFSID\txyz\n" +
		"www.filmaffinity.com\tFALSE\t/\tFALSE\t0\tempty\n"

	cookies, err := ParseCookies(strings.NewReader(in), FormatNetscape)
	require.NoError(t, err)
	require.Len(t, cookies, 3)

	assert.Equal(t, Cookie{Name: "cf_clearance", Value: "abc", Domain: ".filmaffinity.com", Path: "/", Expires: 1900000000, Secure: true}, cookies[0])
	assert.Equal(t, Cookie{Name: "FSID", Value: "xyz", Domain: "www.filmaffinity.com", Path: "/en", HTTPOnly: true}, cookies[1])
	assert.Equal(t, "", cookies[2].Value)
}

func TestParseNetscapeCookies_Malformed(t *testing.T) {
	_, err := ParseNetscapeCookies(strings.NewReader("just garbage\n"))
	assert.Error(t, err)

	_, err = ParseNetscapeCookies(strings.NewReader(".x.com\tTRUE\t/\tTRUE\tsoon\tname\tvalue\n"))
	assert.Error(t, err)
}

func TestParseCookies_UnknownFormat(t *testing.T) {
	_, err := ParseCookies(strings.NewReader(""), "yaml")
	assert.Error(t, err)
}

func TestFromNetworkCookies(t *testing.T) {
	got := fromNetworkCookies([]*network.Cookie{
		{Name: "s", Value: "1", Domain: "x", Path: "/", Expires: -1, Session: true},
		{Name: "p", Value: "2", Domain: "x", Path: "/", Expires: 1900000000, SameSite: network.CookieSameSiteStrict},
	})

	require.Len(t, got, 2)
	assert.Zero(t, got[0].Expires)
	assert.Equal(t, "Strict", got[1].SameSite)
}

func TestWaitForEnter(t *testing.T) {
	assert.NoError(t, waitForEnter(context.Background(), strings.NewReader("\n")))
	assert.NoError(t, waitForEnter(context.Background(), strings.NewReader("")))
}
