package credentials

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

type savedCookie struct {
	URL    string       `json:"url"`
	Cookie *http.Cookie `json:"cookie"`
}

// FileCookieJar is an http.CookieJar that keeps an encrypted copy of every
// cookie it is given, so the refresh cookie set at login is still there on
// the next run
type FileCookieJar struct {
	path   string
	sealer sealer
	logger hclog.Logger

	mu    sync.Mutex
	jar   *cookiejar.Jar
	saved map[string]savedCookie
}

// NewFileCookieJar loads the jar for profile from dir. An unreadable file
// starts an empty jar.
func NewFileCookieJar(dir, profile string, logger hclog.Logger) (*FileCookieJar, error) {
	dir, err := ExpandDir(dir)
	if err != nil {
		return nil, err
	}
	if profile == "" {
		profile = "default"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	j := &FileCookieJar{
		path:   filepath.Join(dir, fmt.Sprintf(".cookies-%s", profile)),
		sealer: newSealer(),
		logger: logger,
	}
	if err := j.reset(); err != nil {
		return nil, err
	}
	j.load()
	return j, nil
}

func (j *FileCookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

func (j *FileCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	now := time.Now()
	for _, c := range cookies {
		rec := *c
		if rec.MaxAge > 0 {
			rec.Expires = now.Add(time.Duration(rec.MaxAge) * time.Second)
			rec.MaxAge = 0
		}
		key := u.Host + "|" + rec.Path + "|" + rec.Name
		if rec.MaxAge < 0 || (!rec.Expires.IsZero() && rec.Expires.Before(now)) {
			delete(j.saved, key)
			continue
		}
		j.saved[key] = savedCookie{URL: u.String(), Cookie: &rec}
	}

	// the in-memory jar stays authoritative when the file cannot be written
	if err := j.save(); err != nil {
		j.logger.Warn("failed to save cookie jar", "path", j.path, "error", err)
	}
}

// Clear forgets every cookie and removes the file
func (j *FileCookieJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.reset(); err != nil {
		return err
	}
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cookie file: %w", err)
	}
	return nil
}

func (j *FileCookieJar) reset() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	j.jar = jar
	j.saved = map[string]savedCookie{}
	return nil
}

func (j *FileCookieJar) load() {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return
	}
	decrypted, err := j.sealer.open(data)
	if err != nil {
		return
	}

	var records []savedCookie
	if err := json.Unmarshal(decrypted, &records); err != nil {
		return
	}

	now := time.Now()
	for _, rec := range records {
		if rec.Cookie == nil || (!rec.Cookie.Expires.IsZero() && rec.Cookie.Expires.Before(now)) {
			continue
		}
		u, err := url.Parse(rec.URL)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{rec.Cookie})
		j.saved[u.Host+"|"+rec.Cookie.Path+"|"+rec.Cookie.Name] = rec
	}
}

func (j *FileCookieJar) save() error {
	records := make([]savedCookie, 0, len(j.saved))
	for _, rec := range j.saved {
		records = append(records, rec)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	encrypted, err := j.sealer.seal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, encrypted, 0600)
}

var _ http.CookieJar = (*FileCookieJar)(nil)
