package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"user-crud-service/internal/adapter/db/postgres"
	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/ratelimit"
	"user-crud-service/internal/usecase/user"
	"user-crud-service/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// RouterSuite exercises the full HTTP stack against an in-memory database.
type RouterSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(s.T())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.T().Cleanup(func() { _ = sqlDB.Close() })
	s.Require().NoError(postgres.Migrate(db))
	s.db = db

	repo := postgres.NewUserRepoPG(db, log)
	uc := user.New(repo, log)
	s.router = SetupRouter(handler.NewUserHandler(uc, log), Options{
		BasePath:       "/api/users",
		SwaggerEnabled: true,
		Ready:          func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
	}, log)
}

func (s *RouterSuite) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) createUser(n int) handler.UserResponse {
	body := fmt.Sprintf(`{"first_name":"First","last_name":"Last","email":"user%d@example.com","avatar":"https://img.example.com/%d.png"}`, n, n)
	w := s.do(http.MethodPost, "/api/users/create", body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var u handler.UserResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &u))
	return u
}

func (s *RouterSuite) decodeError(w *httptest.ResponseRecorder) handler.ErrorResponse {
	var e handler.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func (s *RouterSuite) TestCreateDuplicateDeleteGet() {
	created := s.createUser(1)
	s.Positive(created.ID)

	w := s.do(http.MethodPost, "/api/users/create", `{"first_name":"Other","last_name":"Person","email":"user1@example.com"}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("User with this email already exists", s.decodeError(w).Detail)

	var count int64
	s.Require().NoError(s.db.Model(&postgres.UserSchema{}).Count(&count).Error)
	s.Equal(int64(1), count)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/delete/%d", created.ID), "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"message":"User deleted"}`, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("User not found", s.decodeError(w).Detail)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/delete/%d", created.ID), "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestCreateThenGetRoundTrip() {
	created := s.createUser(1)

	w := s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), "")
	s.Equal(http.StatusOK, w.Code)

	var fetched handler.UserResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &fetched))
	s.Equal(created, fetched)
}

func (s *RouterSuite) TestInvalidIDs() {
	for _, id := range []string{"-1", "0", "fafaf"} {
		for _, req := range []struct{ method, path, body string }{
			{http.MethodGet, "/api/users/" + id, ""},
			{http.MethodPatch, "/api/users/update/" + id, `{"first_name":"X"}`},
			{http.MethodDelete, "/api/users/delete/" + id, ""},
		} {
			w := s.do(req.method, req.path, req.body)
			s.Equal(http.StatusUnprocessableEntity, w.Code, "%s %s", req.method, req.path)
			s.Equal("Invalid user id", s.decodeError(w).Detail)
		}
	}
}

func (s *RouterSuite) TestMissingIDs() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/users/13", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPatch, "/api/users/update/13", `{"first_name":"X"}`).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/users/delete/13", "").Code)
}

func (s *RouterSuite) TestMethodNotAllowed() {
	w := s.do(http.MethodPut, "/api/users/1", `{}`)
	s.Equal(http.StatusMethodNotAllowed, w.Code)
	s.Equal("method_not_allowed", s.decodeError(w).Error)

	s.Equal(http.StatusMethodNotAllowed, s.do(http.MethodGet, "/api/users/update/1", "").Code)
}

func (s *RouterSuite) TestCreateValidation() {
	tests := []string{
		`{"first_name":"A","last_name":"B"}`,
		`{"first_name":"A","last_name":"B","email":"not-an-email"}`,
		`{"first_name":null,"last_name":"B","email":"a@b.com"}`,
		`{"first_name":"A","last_name":"B","email":"a@b.com","avatar":"nope"}`,
		`not json`,
	}
	for _, body := range tests {
		w := s.do(http.MethodPost, "/api/users/create", body)
		s.Equal(http.StatusUnprocessableEntity, w.Code, body)
	}
}

func (s *RouterSuite) TestPartialUpdate() {
	created := s.createUser(1)
	path := fmt.Sprintf("/api/users/update/%d", created.ID)

	w := s.do(http.MethodPatch, path, `{"last_name":"Hopper"}`)
	s.Require().Equal(http.StatusOK, w.Code)

	var updated handler.UserResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	s.Equal("Hopper", updated.LastName)
	s.Equal(created.FirstName, updated.FirstName)
	s.Equal(created.Email, updated.Email)
	s.Equal(created.Avatar, updated.Avatar)

	// applying the same patch again changes nothing
	w = s.do(http.MethodPatch, path, `{"last_name":"Hopper"}`)
	s.Require().Equal(http.StatusOK, w.Code)
	var again handler.UserResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &again))
	s.Equal(updated, again)

	w = s.do(http.MethodPatch, path, `{"avatar":null}`)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"avatar":null`)
}

func (s *RouterSuite) TestUpdateEmailConflict() {
	first := s.createUser(1)
	second := s.createUser(2)

	w := s.do(http.MethodPatch, fmt.Sprintf("/api/users/update/%d", second.ID), fmt.Sprintf(`{"email":%q}`, first.Email))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Email already exists", s.decodeError(w).Detail)
}

func (s *RouterSuite) TestPagination() {
	var ids []int64
	for i := 1; i <= 5; i++ {
		ids = append(ids, s.createUser(i).ID)
	}

	var seen []int64
	for page := 1; page <= 3; page++ {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/users/?page=%d&size=2", page), "")
		s.Require().Equal(http.StatusOK, w.Code)

		var p handler.PageResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &p))
		s.Equal(int64(5), p.Total)
		s.Equal(int64(3), p.Pages)
		s.LessOrEqual(len(p.Items), 2)
		for _, u := range p.Items {
			seen = append(seen, u.ID)
		}
	}
	s.Equal(ids, seen)

	w := s.do(http.MethodGet, "/api/users?page=-3&size=abc", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var p handler.PageResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &p))
	s.Equal(int64(1), p.Page)
	s.Equal(int64(50), p.Size)
	s.Len(p.Items, 5)
}

func (s *RouterSuite) TestHealthAndDocs() {
	w := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"healthy"}`, w.Body.String())

	w = s.do(http.MethodGet, "/openapi.json", "")
	s.Equal(http.StatusOK, w.Code)
	var doc struct {
		Swagger  string `json:"swagger"`
		BasePath string `json:"basePath"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &doc))
	s.Equal("2.0", doc.Swagger)
	s.Equal("/api/users", doc.BasePath)

	w = s.do(http.MethodGet, "/swagger/index.html", "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestRequestIDHeader() {
	w := s.do(http.MethodGet, "/api/users/", "")
	s.NotEmpty(w.Header().Get(logger.RequestIDHeader))
}

func TestHealth_Unavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	r := SetupRouter(handler.NewUserHandler(nil, log), Options{
		Ready: func(context.Context) error { return errors.New("db down") },
	}, log)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestOpenAPI_ConfiguredBasePath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	r := SetupRouter(handler.NewUserHandler(nil, log), Options{
		BasePath:       "/v1/members",
		SwaggerEnabled: true,
	}, log)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var doc struct {
		BasePath string `json:"basePath"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode openapi document: %v", err)
	}
	if doc.BasePath != "/v1/members" {
		t.Fatalf("expected basePath /v1/members, got %q", doc.BasePath)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/members/0", nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 from the mounted route, got %d", w.Code)
	}
}

func TestRateLimitedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	mr := miniredis.RunT(t)
	mr.SetTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.New(client, ratelimit.Config{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true}, log)
	r := SetupRouter(handler.NewUserHandler(nil, log), Options{Limiter: limiter}, log)

	// the first request passes the limiter and fails on the id check
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/0", nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/0", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	// health is outside the limited group
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func BenchmarkRouter_GetUser(b *testing.B) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		b.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		b.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	if err := postgres.Migrate(db); err != nil {
		b.Fatal(err)
	}

	uc := user.New(postgres.NewUserRepoPG(db, log), log)
	created, err := uc.CreateUser(context.Background(), user.CreateUserRequest{
		FirstName: "Bench", LastName: "User", Email: "bench@example.com",
	})
	if err != nil {
		b.Fatal(err)
	}

	r := SetupRouter(handler.NewUserHandler(uc, log), Options{}, log)
	path := fmt.Sprintf("/api/users/%d", created.ID)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}
