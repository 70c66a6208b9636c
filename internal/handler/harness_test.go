package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mehdiyara/stockroom/internal/audit"
	"github.com/mehdiyara/stockroom/internal/config"
	"github.com/mehdiyara/stockroom/internal/handler"
	"github.com/mehdiyara/stockroom/internal/model"
	"github.com/mehdiyara/stockroom/internal/repository"
	"github.com/mehdiyara/stockroom/internal/router"
	"github.com/mehdiyara/stockroom/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		Env:              "test",
		Port:             "0",
		AccessSecret:     "access-secret-for-tests",
		RefreshSecret:    "refresh-secret-for-tests",
		AccessTTLMin:     15,
		RefreshTTLDays:   7,
		BcryptCost:       bcrypt.MinCost,
		DefaultAvatarURL: "https://assets.example.com/avatars/default.png",
	}
}

// ----- in-memory stores -----

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]model.User
	order []string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.byID {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.byID[u.ID] = *u
	f.order = append(f.order, u.ID)
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListAll(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.order))
	for _, id := range f.order {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) SetSession(_ context.Context, id, fingerprint string, lastLogin time.Time) error {
	return f.mutate(id, func(u *model.User) {
		u.RefreshFingerprint = fingerprint
		u.IsActive = true
		u.LastLogin = &lastLogin
	})
}

func (f *fakeUsers) RotateFingerprint(_ context.Context, id, fingerprint string) error {
	return f.mutate(id, func(u *model.User) { u.RefreshFingerprint = fingerprint })
}

func (f *fakeUsers) ClearSession(_ context.Context, id string) error {
	return f.mutate(id, func(u *model.User) {
		u.RefreshFingerprint = ""
		u.IsActive = false
	})
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return f.mutate(id, func(u *model.User) {
		u.PasswordHash = hash
		u.RefreshFingerprint = ""
	})
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role model.Role) error {
	return f.mutate(id, func(u *model.User) { u.Role = role })
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id, url string) error {
	return f.mutate(id, func(u *model.User) { u.AvatarURL = url })
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) mutate(id string, fn func(*model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	f.byID[id] = u
	return nil
}

type fakeVendors struct {
	mu    sync.Mutex
	byID  map[string]model.Vendor
	// item counts per vendor, mirrors the FK check the real repo does
	linked map[string]int
}

func newFakeVendors() *fakeVendors {
	return &fakeVendors{byID: map[string]model.Vendor{}, linked: map[string]int{}}
}

func (f *fakeVendors) Create(_ context.Context, v *model.Vendor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	f.byID[v.ID] = *v
	return nil
}

func (f *fakeVendors) GetByID(_ context.Context, id string) (model.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return model.Vendor{}, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeVendors) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, v := range f.byID {
		if v.ID != excludeID && v.Email != "" && strings.ToLower(v.Email) == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVendors) List(_ context.Context, search string, page, limit int) ([]model.Vendor, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.Vendor, 0, len(f.byID))
	for _, v := range f.byID {
		if search == "" || strings.Contains(strings.ToLower(v.FullName), strings.ToLower(search)) {
			all = append(all, v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FullName < all[j].FullName })
	return pageSlice(all, page, limit), int64(len(all)), nil
}

func (f *fakeVendors) Update(_ context.Context, v *model.Vendor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[v.ID]; !ok {
		return repository.ErrNotFound
	}
	v.UpdatedAt = time.Now().UTC()
	f.byID[v.ID] = *v
	return nil
}

func (f *fakeVendors) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	if f.linked[id] > 0 {
		return repository.ErrVendorInUse
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeVendors) CountAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

type fakeItems struct {
	mu   sync.Mutex
	byID map[string]model.Item
}

func newFakeItems() *fakeItems {
	return &fakeItems{byID: map[string]model.Item{}}
}

func (f *fakeItems) Create(_ context.Context, it *model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.byID {
		if other.ItemCode == it.ItemCode {
			return repository.ErrItemCodeExists
		}
	}
	it.CreatedAt = time.Now().UTC()
	it.UpdatedAt = it.CreatedAt
	f.byID[it.ID] = *it
	return nil
}

func (f *fakeItems) GetByID(_ context.Context, id string) (model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.byID[id]
	if !ok {
		return model.Item{}, repository.ErrNotFound
	}
	return it, nil
}

func (f *fakeItems) CodeTaken(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.byID {
		if it.ItemCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeItems) List(_ context.Context, search string, page, limit int) ([]model.Item, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.Item, 0, len(f.byID))
	for _, it := range f.byID {
		if search == "" || strings.Contains(strings.ToLower(it.ItemName), strings.ToLower(search)) {
			all = append(all, it)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ItemName < all[j].ItemName })
	return pageSlice(all, page, limit), int64(len(all)), nil
}

func (f *fakeItems) Update(_ context.Context, it *model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[it.ID]; !ok {
		return repository.ErrNotFound
	}
	it.UpdatedAt = time.Now().UTC()
	f.byID[it.ID] = *it
	return nil
}

func (f *fakeItems) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeItems) CountAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

func (f *fakeItems) CountLowStock(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, it := range f.byID {
		if it.Quantity < it.ReorderLevel {
			n++
		}
	}
	return n, nil
}

type fakeActivities struct {
	mu   sync.Mutex
	list []model.Activity
}

func (f *fakeActivities) ListRecent(_ context.Context, page, limit int) ([]model.Activity, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return pageSlice(f.list, page, limit), int64(len(f.list)), nil
}

func pageSlice[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// ----- collaborators -----

type fakeAssets struct {
	mu       sync.Mutex
	fail     bool
	uploads  []string
	removals []string
}

func (f *fakeAssets) Upload(_ context.Context, bucket, name, _ string, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", fmt.Errorf("store unavailable")
	}
	_, _ = io.Copy(io.Discard, body)
	f.uploads = append(f.uploads, bucket+"/"+name)
	return fmt.Sprintf("https://assets.example.com/object/public/%s/%s", bucket, name), nil
}

func (f *fakeAssets) Remove(_ context.Context, bucket, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removals = append(f.removals, bucket+"/"+name)
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeRecorder) Record(_ context.Context, ev audit.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeRecorder) actions() []model.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Action, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Action
	}
	return out
}

// ----- app wiring -----

type testApp struct {
	e          *echo.Echo
	cfg        config.Config
	users      *fakeUsers
	vendors    *fakeVendors
	items      *fakeItems
	activities *fakeActivities
	assets     *fakeAssets
	audit      *fakeRecorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{
		cfg:        testConfig(),
		users:      newFakeUsers(),
		vendors:    newFakeVendors(),
		items:      newFakeItems(),
		activities: &fakeActivities{},
		assets:     &fakeAssets{},
		audit:      &fakeRecorder{},
	}
	app.e = echo.New()
	router.Register(app.e, router.Deps{
		Cfg:       app.cfg,
		Users:     app.users,
		Auth:      handler.NewAuthHandler(app.cfg, app.users, app.assets, app.audit),
		Admin:     handler.NewUserAdminHandler(app.users, app.assets, app.audit),
		Vendors:   handler.NewVendorHandler(app.vendors, app.audit),
		Inventory: handler.NewInventoryHandler(app.items, app.vendors, app.assets, app.audit),
		Dashboard: handler.NewDashboardHandler(app.vendors, app.items, app.activities),
	})
	return app
}

// seedUser inserts a user directly into the store with the given
// password hashed at test cost.
func (a *testApp) seedUser(t *testing.T, id, email, password string, role model.Role) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, a.cfg.BcryptCost)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	u := model.User{
		ID:           id,
		FullName:     "Test " + id,
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    a.cfg.DefaultAvatarURL,
		Role:         role,
		IsActive:     true,
	}
	if err := a.users.Create(context.Background(), &u); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

// accessCookie mints a valid access token cookie for the user, skipping
// the login endpoint.
func (a *testApp) accessCookie(t *testing.T, u model.User) *http.Cookie {
	t.Helper()
	tok, err := utils.NewAccessToken(a.cfg.AccessSecret, u.ID, u.Email, u.FullName, a.cfg.AccessTTLMin)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return &http.Cookie{Name: "accessToken", Value: tok.Token}
}

// do runs one request through the full router.  body may be nil, a JSON
// payload or a prebuilt io.Reader (with contentType set).
func (a *testApp) do(t *testing.T, method, path string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// doRaw is do for non-JSON bodies (multipart uploads).
func (a *testApp) doRaw(t *testing.T, method, path string, body io.Reader, contentType string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors the httpx response wrapper with data left raw for
// per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, into any) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, into); err != nil {
			t.Fatalf("decode data from %q: %v", string(env.Data), err)
		}
	}
	return env
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
