package credentials

import (
	"bytes"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCookieJar_SurvivesReload(t *testing.T) {
	dir := t.TempDir()
	u, _ := url.Parse("http://localhost:3001/api/v1/auth/login")
	refreshURL, _ := url.Parse("http://localhost:3001/api/v1/auth/refresh-access-token")

	jar, err := NewFileCookieJar(dir, "default", nil)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{
		Name:     "refreshToken",
		Value:    "r-1",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   3600,
	}})

	reloaded, err := NewFileCookieJar(dir, "default", nil)
	require.NoError(t, err)
	cookies := reloaded.Cookies(refreshURL)
	require.Len(t, cookies, 1)
	assert.Equal(t, "refreshToken", cookies[0].Name)
	assert.Equal(t, "r-1", cookies[0].Value)
}

func TestFileCookieJar_DeletionIsPersisted(t *testing.T) {
	dir := t.TempDir()
	u, _ := url.Parse("http://localhost:3001/api/v1/auth/logout")

	jar, err := NewFileCookieJar(dir, "default", nil)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "r-1", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Path: "/", MaxAge: -1}})
	assert.Empty(t, jar.Cookies(u))

	reloaded, err := NewFileCookieJar(dir, "default", nil)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Cookies(u))
}

func TestFileCookieJar_ExpiredCookiesAreNotLoaded(t *testing.T) {
	dir := t.TempDir()
	u, _ := url.Parse("http://localhost:3001/")

	jar, err := NewFileCookieJar(dir, "default", nil)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{
		Name:    "short",
		Value:   "v",
		Path:    "/",
		Expires: time.Now().Add(time.Hour),
	}})

	// rewrite the saved record with a past expiry
	for k, rec := range jar.saved {
		rec.Cookie.Expires = time.Now().Add(-time.Minute)
		jar.saved[k] = rec
	}
	require.NoError(t, jar.save())

	reloaded, err := NewFileCookieJar(dir, "default", nil)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Cookies(u))
}

func TestFileCookieJar_Clear(t *testing.T) {
	dir := t.TempDir()
	u, _ := url.Parse("http://localhost:3001/")

	jar, err := NewFileCookieJar(dir, "p", nil)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1", Path: "/"}})
	require.NoError(t, jar.Clear())

	assert.Empty(t, jar.Cookies(u))
	_, err = os.Stat(filepath.Join(dir, ".cookies-p"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileCookieJar_SaveFailureIsLogged(t *testing.T) {
	dir := t.TempDir()
	u, _ := url.Parse("http://localhost:3001/")

	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})
	jar, err := NewFileCookieJar(dir, "blocked", logger)
	require.NoError(t, err)

	// a directory in place of the file makes every write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".cookies-blocked"), 0700))
	jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "r-1", Path: "/"}})

	assert.Len(t, jar.Cookies(u), 1)
	assert.Contains(t, buf.String(), "failed to save cookie jar")
	assert.Contains(t, buf.String(), ".cookies-blocked")
}
