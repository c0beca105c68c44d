package authapi

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"

	"github.com/jrsteele09/workbench-session/store"
)

// CookieStoreKey is the store key the coordination service cookies are kept
// under between process runs.
const CookieStoreKey = "coordinationCookies"

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PersistentJar is a cookie jar for a single service that survives process
// restarts by mirroring the service's cookies into a store.Store. Only name
// and value are kept; expiry is left to the service.
type PersistentJar struct {
	mu    sync.Mutex
	jar   *cookiejar.Jar
	store store.Store
	base  *url.URL
}

var _ http.CookieJar = (*PersistentJar)(nil)

// NewPersistentJar creates a jar for baseURL and loads any saved cookies.
func NewPersistentJar(s store.Store, baseURL string) (*PersistentJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[authapi.NewPersistentJar] parse base URL")
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "[authapi.NewPersistentJar] cookie jar")
	}
	j := &PersistentJar{jar: jar, store: s, base: base}

	raw, err := s.Get(CookieStoreKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return j, nil
	case err != nil:
		return nil, errors.Wrap(err, "[authapi.NewPersistentJar] load cookies")
	}

	var saved []savedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable saved cookies")
		return j, nil
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(base, cookies)
	return j, nil
}

// SetCookies records the cookies and saves the service's current set.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
	if err := j.save(); err != nil {
		log.Err(err).Msg("save coordination cookies")
	}
}

// Cookies returns the cookies to send to u.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *PersistentJar) save() error {
	current := j.jar.Cookies(j.base)
	if len(current) == 0 {
		return j.store.Delete(CookieStoreKey)
	}

	saved := make([]savedCookie, 0, len(current))
	for _, c := range current {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	return j.store.Put(CookieStoreKey, string(data))
}
