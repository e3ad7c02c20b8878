package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/menuqr/menuqr/internal/domain"
	"github.com/menuqr/menuqr/internal/handlers"
	"github.com/menuqr/menuqr/internal/service"
	"github.com/menuqr/menuqr/pkg/auth"
	"github.com/menuqr/menuqr/pkg/config"
	"github.com/menuqr/menuqr/pkg/events"
)

// ---------- Mocks ----------

type mockMailer struct {
	lastTo   string
	lastCode string
	sendErr  error
}

func (m *mockMailer) SendVerificationCode(toEmail, toName, code string) error {
	m.lastTo = toEmail
	m.lastCode = code
	return m.sendErr
}

type mockUserRepo struct {
	users map[string]*domain.User // email -> user
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpsertWithCode(_ context.Context, req *domain.RequestCodeRequest, code string, sentAt time.Time) (*domain.User, error) {
	u, ok := m.users[req.Email]
	if !ok {
		u = &domain.User{ID: uuid.NewString(), Email: req.Email, CreatedAt: sentAt}
		m.users[req.Email] = u
	}
	u.FullName = req.FullName
	u.Country = req.Country
	u.VerificationCode = &code
	u.CodeSentAt = &sentAt
	u.UpdatedAt = sentAt
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) ConsumeCode(_ context.Context, email, code string) (bool, error) {
	u, ok := m.users[email]
	if !ok || u.VerificationCode == nil || *u.VerificationCode != code {
		return false, nil
	}
	u.IsVerified = true
	u.VerificationCode = nil
	u.CodeSentAt = nil
	return true, nil
}

type mockRestaurantRepo struct {
	restaurants map[string]*domain.Restaurant
}

func newMockRestaurantRepo() *mockRestaurantRepo {
	return &mockRestaurantRepo{restaurants: make(map[string]*domain.Restaurant)}
}

func (m *mockRestaurantRepo) Create(_ context.Context, ownerID string, req *domain.CreateRestaurantRequest) (*domain.Restaurant, error) {
	r := &domain.Restaurant{
		ID: uuid.NewString(), OwnerID: ownerID, Name: req.Name, Location: req.Location,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.restaurants[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m *mockRestaurantRepo) GetByID(_ context.Context, id string) (*domain.Restaurant, error) {
	r, ok := m.restaurants[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockRestaurantRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Restaurant, error) {
	var out []domain.Restaurant
	for _, r := range m.restaurants {
		if r.OwnerID == ownerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRestaurantRepo) Delete(_ context.Context, id string) error {
	delete(m.restaurants, id)
	return nil
}

type mockCategoryRepo struct {
	categories map[string]*domain.Category
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[string]*domain.Category)}
}

func (m *mockCategoryRepo) Create(_ context.Context, req *domain.CreateCategoryRequest) (*domain.Category, error) {
	c := &domain.Category{
		ID: uuid.NewString(), RestaurantID: req.RestaurantID, Name: req.Name,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.categories[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCategoryRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range m.categories {
		if c.RestaurantID == restaurantID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id string) error {
	delete(m.categories, id)
	return nil
}

type mockDishRepo struct {
	dishes map[string]*domain.Dish
}

func newMockDishRepo() *mockDishRepo {
	return &mockDishRepo{dishes: make(map[string]*domain.Dish)}
}

func (m *mockDishRepo) Create(_ context.Context, req *domain.CreateDishRequest) (*domain.Dish, error) {
	d := &domain.Dish{
		ID: uuid.NewString(), RestaurantID: req.RestaurantID, Name: req.Name,
		Description: req.Description, Image: req.Image, SpiceLevel: req.SpiceLevel,
		Type: req.Type, SellingRate: req.SellingRate, CategoryIDs: req.Categories,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.dishes[d.ID] = d
	cp := *d
	return &cp, nil
}

func (m *mockDishRepo) GetByID(_ context.Context, id string) (*domain.Dish, error) {
	d, ok := m.dishes[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *mockDishRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]domain.Dish, error) {
	var out []domain.Dish
	for _, d := range m.dishes {
		if d.RestaurantID == restaurantID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockDishRepo) Delete(_ context.Context, id string) error {
	delete(m.dishes, id)
	return nil
}

// ---------- Test Setup ----------

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:     "development",
			BaseURL: "https://menuqr.test",
		},
		Auth: config.AuthConfig{
			JWTSecret:           "test-secret",
			SessionTTL:          30 * 24 * time.Hour,
			VerificationCodeTTL: 30 * time.Minute,
		},
	}
}

func setupTestServer(t *testing.T) (*httptest.Server, *mockMailer, *config.Config) {
	t.Helper()

	cfg := testConfig()
	mailer := &mockMailer{}
	userRepo := newMockUserRepo()
	bus := events.NewNoopBus()

	authSvc := service.NewAuthService(userRepo, mailer, bus, cfg.Auth.VerificationCodeTTL)
	menuSvc := service.NewMenuService(
		newMockRestaurantRepo(), newMockCategoryRepo(), newMockDishRepo(),
		nil, bus, cfg.App.BaseURL,
	)
	h := handlers.New(authSvc, menuSvc, cfg)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/verify", h.Verify)
		r.Post("/logout", h.Logout)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Get("/me", h.Me)
		})
	})
	r.Get("/public/menu/{id}", h.PublicMenu)
	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)
		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", h.ListRestaurants)
			r.Post("/", h.CreateRestaurant)
			r.Get("/{id}", h.GetRestaurant)
			r.Delete("/{id}", h.DeleteRestaurant)
			r.Get("/{id}/qr", h.RestaurantQR)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
		r.Route("/dishes", func(r chi.Router) {
			r.Get("/", h.ListDishes)
			r.Post("/", h.CreateDish)
			r.Delete("/{id}", h.DeleteDish)
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, mailer, cfg
}

// newSessionClient returns a client with a cookie jar so the session
// cookie set by /auth/verify sticks for later requests.
func newSessionClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

// establishSession registers and verifies the given email so the
// client's cookie jar holds a valid session.
func establishSession(t *testing.T, server *httptest.Server, mailer *mockMailer, client *http.Client, email string) {
	t.Helper()

	resp := postJSON(t, client, server.URL+"/auth/register", map[string]string{
		"email": email, "fullName": "Test Owner", "country": "US",
	}, http.StatusOK)
	resp.Body.Close()

	resp = postJSON(t, client, server.URL+"/auth/verify", map[string]string{
		"email": email, "code": mailer.lastCode,
	}, http.StatusOK)
	resp.Body.Close()
}

// ---------- Auth flow ----------

func TestAuth_RegisterAndVerify_SetsSessionCookie(t *testing.T) {
	server, mailer, cfg := setupTestServer(t)
	client := newSessionClient(t)
	email := "owner@example.com"

	resp := postJSON(t, client, server.URL+"/auth/register", map[string]string{
		"email": email, "fullName": "Test Owner", "country": "US",
	}, http.StatusOK)
	var registerResult map[string]string
	json.NewDecoder(resp.Body).Decode(&registerResult)
	resp.Body.Close()

	if registerResult["userId"] == "" {
		t.Fatal("expected userId in register response")
	}
	if mailer.lastTo != email {
		t.Fatalf("expected code sent to %s, got %s", email, mailer.lastTo)
	}
	if len(mailer.lastCode) != 6 {
		t.Fatalf("expected 6-digit code, got %q", mailer.lastCode)
	}

	verifyResp := postJSON(t, client, server.URL+"/auth/verify", map[string]string{
		"email": email, "code": mailer.lastCode,
	}, http.StatusOK)
	defer verifyResp.Body.Close()

	var sessionCookie *http.Cookie
	for _, c := range verifyResp.Cookies() {
		if c.Name == "session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected session cookie on verify response")
	}
	if !sessionCookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if sessionCookie.Secure {
		t.Fatal("session cookie must not be Secure outside production")
	}

	claims, err := auth.ParseSessionToken(sessionCookie.Value, cfg.Auth.JWTSecret)
	if err != nil {
		t.Fatalf("failed to parse session token: %v", err)
	}
	if claims.Email != email {
		t.Fatalf("expected claims email %s, got %s", email, claims.Email)
	}
	if claims.Sub != registerResult["userId"] {
		t.Fatalf("expected claims sub %s, got %s", registerResult["userId"], claims.Sub)
	}

	// The cookie authenticates /auth/me.
	meResp := getStatus(t, client, server.URL+"/auth/me", http.StatusOK)
	defer meResp.Body.Close()

	var me domain.UserInfo
	json.NewDecoder(meResp.Body).Decode(&me)
	if me.Email != email || !me.IsVerified {
		t.Fatalf("unexpected /auth/me payload: %+v", me)
	}
}

func TestAuth_Register_VerifiedEmail_Conflict(t *testing.T) {
	server, mailer, _ := setupTestServer(t)
	client := newSessionClient(t)
	email := "owner@example.com"

	resp := postJSON(t, client, server.URL+"/auth/register", map[string]string{
		"email": email, "fullName": "Test Owner", "country": "US",
	}, http.StatusOK)
	resp.Body.Close()

	resp = postJSON(t, client, server.URL+"/auth/verify", map[string]string{
		"email": email, "code": mailer.lastCode,
	}, http.StatusOK)
	resp.Body.Close()

	// Register again: conflict.
	resp = postJSON(t, client, server.URL+"/auth/register", map[string]string{
		"email": email, "fullName": "Test Owner", "country": "US",
	}, http.StatusConflict)
	resp.Body.Close()

	// Login is the resend path and succeeds.
	resp = postJSON(t, client, server.URL+"/auth/login", map[string]string{
		"email": email, "fullName": "Test Owner", "country": "US",
	}, http.StatusOK)
	resp.Body.Close()
}

func TestAuth_Verify_Failures(t *testing.T) {
	server, mailer, _ := setupTestServer(t)
	client := newSessionClient(t)

	// Unknown email.
	resp := postJSON(t, client, server.URL+"/auth/verify", map[string]string{
		"email": "nobody@example.com", "code": "123456",
	}, http.StatusNotFound)
	resp.Body.Close()

	// Wrong code.
	resp = postJSON(t, client, server.URL+"/auth/register", map[string]string{
		"email": "owner@example.com", "fullName": "Test Owner", "country": "US",
	}, http.StatusOK)
	resp.Body.Close()

	wrong := "000000"
	if mailer.lastCode == wrong {
		wrong = "000001"
	}
	resp = postJSON(t, client, server.URL+"/auth/verify", map[string]string{
		"email": "owner@example.com", "code": wrong,
	}, http.StatusBadRequest)
	var errBody map[string]string
	json.NewDecoder(resp.Body).Decode(&errBody)
	resp.Body.Close()
	if errBody["code"] != "INVALID_CODE" {
		t.Fatalf("expected INVALID_CODE, got %q", errBody["code"])
	}

	// Malformed code shape.
	resp = postJSON(t, client, server.URL+"/auth/verify", map[string]string{
		"email": "owner@example.com", "code": "12ab56",
	}, http.StatusBadRequest)
	resp.Body.Close()
}

func TestAuth_Me_RequiresSession(t *testing.T) {
	server, _, _ := setupTestServer(t)

	// No cookie.
	resp, err := http.Get(server.URL + "/auth/me")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", resp.StatusCode)
	}

	// Garbage cookie.
	req, _ := http.NewRequest("GET", server.URL+"/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "not-a-jwt"})
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage cookie, got %d", resp.StatusCode)
	}
}

func TestAuth_Logout_ClearsCookie(t *testing.T) {
	server, _, _ := setupTestServer(t)
	client := newSessionClient(t)

	resp := postJSON(t, client, server.URL+"/auth/logout", map[string]string{}, http.StatusOK)
	defer resp.Body.Close()

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("expected session cookie on logout response")
	}
	if cleared.MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got MaxAge %d", cleared.MaxAge)
	}
}

// ---------- Restaurants ----------

func TestRestaurants_Lifecycle(t *testing.T) {
	server, mailer, _ := setupTestServer(t)
	client := newSessionClient(t)
	establishSession(t, server, mailer, client, "owner@example.com")

	// Unauthenticated access is rejected.
	resp, err := http.Get(server.URL + "/restaurants/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}

	// Create.
	createResp := postJSON(t, client, server.URL+"/restaurants/", map[string]string{
		"name": "Spice Garden", "location": "Baker Street 12",
	}, http.StatusCreated)
	var rest domain.Restaurant
	json.NewDecoder(createResp.Body).Decode(&rest)
	createResp.Body.Close()
	if rest.ID == "" {
		t.Fatal("expected restaurant id")
	}

	// List.
	listResp := getStatus(t, client, server.URL+"/restaurants/", http.StatusOK)
	var restaurants []domain.Restaurant
	json.NewDecoder(listResp.Body).Decode(&restaurants)
	listResp.Body.Close()
	if len(restaurants) != 1 {
		t.Fatalf("expected 1 restaurant, got %d", len(restaurants))
	}

	// QR info.
	qrResp := getStatus(t, client, server.URL+"/restaurants/"+rest.ID+"/qr", http.StatusOK)
	var qr domain.QRInfo
	json.NewDecoder(qrResp.Body).Decode(&qr)
	qrResp.Body.Close()
	if qr.MenuURL != "https://menuqr.test/menu/"+rest.ID {
		t.Fatalf("unexpected menu URL %q", qr.MenuURL)
	}

	// Delete.
	req, _ := http.NewRequest("DELETE", server.URL+"/restaurants/"+rest.ID, nil)
	delResp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", delResp.StatusCode)
	}

	getResp := getStatus(t, client, server.URL+"/restaurants/"+rest.ID, http.StatusNotFound)
	getResp.Body.Close()
}

func TestRestaurants_OwnershipEnforced(t *testing.T) {
	server, mailer, _ := setupTestServer(t)

	ownerClient := newSessionClient(t)
	establishSession(t, server, mailer, ownerClient, "owner@example.com")

	createResp := postJSON(t, ownerClient, server.URL+"/restaurants/", map[string]string{
		"name": "Spice Garden", "location": "Baker Street 12",
	}, http.StatusCreated)
	var rest domain.Restaurant
	json.NewDecoder(createResp.Body).Decode(&rest)
	createResp.Body.Close()

	otherClient := newSessionClient(t)
	establishSession(t, server, mailer, otherClient, "intruder@example.com")

	resp := getStatus(t, otherClient, server.URL+"/restaurants/"+rest.ID, http.StatusForbidden)
	resp.Body.Close()

	req, _ := http.NewRequest("DELETE", server.URL+"/restaurants/"+rest.ID, nil)
	delResp, err := otherClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", delResp.StatusCode)
	}
}

// ---------- Categories and public menu ----------

func TestCategories_ListRequiresRestaurantID(t *testing.T) {
	server, mailer, _ := setupTestServer(t)
	client := newSessionClient(t)
	establishSession(t, server, mailer, client, "owner@example.com")

	resp := getStatus(t, client, server.URL+"/categories/", http.StatusBadRequest)
	resp.Body.Close()
}

func TestPublicMenu_NoSessionNeeded(t *testing.T) {
	server, mailer, _ := setupTestServer(t)
	client := newSessionClient(t)
	establishSession(t, server, mailer, client, "owner@example.com")

	createResp := postJSON(t, client, server.URL+"/restaurants/", map[string]string{
		"name": "Spice Garden", "location": "Baker Street 12",
	}, http.StatusCreated)
	var rest domain.Restaurant
	json.NewDecoder(createResp.Body).Decode(&rest)
	createResp.Body.Close()

	catResp := postJSON(t, client, server.URL+"/categories/", map[string]string{
		"name": "Starters", "restaurantId": rest.ID,
	}, http.StatusCreated)
	catResp.Body.Close()

	// Plain client, no cookies.
	resp, err := http.Get(server.URL + "/public/menu/" + rest.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var menu domain.PublicMenu
	json.NewDecoder(resp.Body).Decode(&menu)
	if menu.Restaurant.ID != rest.ID {
		t.Fatalf("unexpected restaurant in menu: %+v", menu.Restaurant)
	}
	if len(menu.Categories) != 1 || menu.Categories[0].Name != "Starters" {
		t.Fatalf("unexpected categories: %+v", menu.Categories)
	}

	// Unknown restaurant is a 404.
	notFound, err := http.Get(server.URL + "/public/menu/" + uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}
	notFound.Body.Close()
	if notFound.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", notFound.StatusCode)
	}
}

// ---------- Helpers ----------

func postJSON(t *testing.T, client *http.Client, url string, data interface{}, expectedStatus int) *http.Response {
	t.Helper()

	body, _ := json.Marshal(data)
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	if resp.StatusCode != expectedStatus {
		t.Fatalf("POST %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}
	return resp
}

func getStatus(t *testing.T, client *http.Client, url string, expectedStatus int) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	if resp.StatusCode != expectedStatus {
		t.Fatalf("GET %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}
	return resp
}
