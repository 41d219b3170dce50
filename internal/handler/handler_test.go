package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/socio/socio-go/internal/crypto"
	"github.com/socio/socio-go/internal/middleware"
	"github.com/socio/socio-go/internal/model"
	"github.com/socio/socio-go/internal/repository"
	"github.com/socio/socio-go/internal/service"
)

type apiClient struct {
	t      *testing.T
	router http.Handler
	tokens *crypto.TokenService
}

func newTestAPI(t *testing.T, limiter *middleware.RateLimiter) *apiClient {
	t.Helper()
	ctx := context.Background()

	db, err := repository.NewDB(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Migrate(ctx, db))

	users := repository.NewUserRepository(db)
	messages := repository.NewMessageRepository(db)
	tokens := crypto.NewTokenService("handler-test-secret", time.Hour)

	authSvc := service.NewAuthService(users, crypto.NewBcryptHasher(bcrypt.MinCost), tokens)
	msgSvc := service.NewMessageService(messages, users, 50)
	convSvc := service.NewConversationService(messages)
	feedSvc := service.NewFeedService(repository.NewPostRepository(db))

	router := NewRouter(RouterConfig{
		Auth:           NewAuthHandler(authSvc),
		Messages:       NewMessageHandler(msgSvc, convSvc),
		Feed:           NewFeedHandler(feedSvc),
		Tokens:         tokens,
		AuthLimiter:    limiter,
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	return &apiClient{t: t, router: router, tokens: tokens}
}

func (c *apiClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(c.t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c *apiClient) register(email, password string) model.UserResponse {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/auth/register", "", model.CreateUserRequest{Email: email, Password: password})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp model.UserResponse
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (c *apiClient) login(email, password string) string {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: email, Password: password})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.AuthResponse
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestScenario_EndToEnd(t *testing.T) {
	api := newTestAPI(t, nil)

	alice := api.register("alice@x.com", "pw1")
	bob := api.register("bob@x.com", "pw2")
	require.Equal(t, int64(1), alice.ID)
	require.Equal(t, int64(2), bob.ID)

	t1 := api.login("alice@x.com", "pw1")

	rec := api.do(http.MethodPost, "/api/v1/messages", t1, model.SendMessageRequest{ReceiverID: 2, Body: "hello"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg model.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, int64(1), msg.ID)
	assert.Equal(t, int64(1), msg.SenderID)
	assert.Equal(t, int64(2), msg.ReceiverID)

	rec = api.do(http.MethodGet, "/api/v1/messages/chat?user=2", t1, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chat model.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	assert.Equal(t, "bob@x.com", chat.Peer.Email)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, msg.ID, chat.Messages[0].ID)
	assert.Equal(t, "hello", chat.Messages[0].Body)

	rec = api.do(http.MethodGet, "/api/v1/messages/conversations", t1, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var convs model.ConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs.Conversations, 1)
	assert.Equal(t, int64(2), convs.Conversations[0].PeerID)
	require.NotNil(t, convs.Conversations[0].PeerEmail)
	assert.Equal(t, "bob@x.com", *convs.Conversations[0].PeerEmail)
	assert.Equal(t, "hello", convs.Conversations[0].LastMessageBody)
}

func TestRegister_Errors(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("alice@x.com", "pw1")

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"duplicate", model.CreateUserRequest{Email: "alice@x.com", Password: "x"}, http.StatusConflict, "email already taken"},
		{"missing email", model.CreateUserRequest{Password: "x"}, http.StatusBadRequest, "email is required"},
		{"missing password", model.CreateUserRequest{Email: "b@x.com"}, http.StatusBadRequest, "password is required"},
		{"password too long", model.CreateUserRequest{Email: "c@x.com", Password: strings.Repeat("p", 100)}, http.StatusBadRequest, "password is too long"},
		{"malformed json", "{not json", http.StatusBadRequest, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, errorOf(t, rec))
		})
	}
}

func TestRegister_BodyTooLarge(t *testing.T) {
	api := newTestAPI(t, nil)

	big := `{"email":"a@x.com","password":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := api.do(http.MethodPost, "/api/v1/auth/register", "", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLogin_UniformFailure(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("alice@x.com", "pw1")

	wrong := api.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: "alice@x.com", Password: "bad"})
	unknown := api.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: "ghost@x.com", Password: "pw1"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestMe(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := api.register("alice@x.com", "pw1")
	token := api.login("alice@x.com", "pw1")

	rec := api.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me model.MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, alice.ID, me.User.ID)
	assert.Equal(t, "alice@x.com", me.User.Email)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("alice@x.com", "pw1")

	expired, _, err := api.tokens.IssueWithTTL(1, "alice@x.com", -time.Minute)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/users/lookup?email=alice@x.com"},
		{http.MethodPost, "/api/v1/messages"},
		{http.MethodGet, "/api/v1/messages/chat?user=1"},
		{http.MethodGet, "/api/v1/messages/conversations"},
		{http.MethodPost, "/api/v1/feeds"},
	}

	for _, route := range routes {
		for _, token := range []string{"", "garbage", expired} {
			rec := api.do(route.method, route.path, token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
			assert.Equal(t, "unauthorized", errorOf(t, rec))
		}
	}
}

func TestSendMessage_Errors(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("alice@x.com", "pw1")
	api.register("bob@x.com", "pw2")
	token := api.login("alice@x.com", "pw1")

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"empty body", model.SendMessageRequest{ReceiverID: 2, Body: "   "}, http.StatusBadRequest},
		{"too long", model.SendMessageRequest{ReceiverID: 2, Body: strings.Repeat("x", 51)}, http.StatusBadRequest},
		{"missing receiver", model.SendMessageRequest{Body: "hi"}, http.StatusBadRequest},
		{"unknown receiver", model.SendMessageRequest{ReceiverID: 9, Body: "hi"}, http.StatusNotFound},
		{"malformed", `{"receiver_id":"two"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/api/v1/messages", token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := api.do(http.MethodGet, "/api/v1/messages/conversations", token, nil)
	var convs model.ConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	assert.Empty(t, convs.Conversations)
}

func TestChat_Errors(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("alice@x.com", "pw1")
	token := api.login("alice@x.com", "pw1")

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/messages/chat", http.StatusBadRequest},
		{"/api/v1/messages/chat?user=abc", http.StatusBadRequest},
		{"/api/v1/messages/chat?user=0", http.StatusBadRequest},
		{"/api/v1/messages/chat?user=42", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := api.do(http.MethodGet, tt.path, token, nil)
		assert.Equal(t, tt.status, rec.Code, tt.path)
	}
}

func TestChat_EmptyHistoryIsArray(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("alice@x.com", "pw1")
	api.register("bob@x.com", "pw2")
	token := api.login("alice@x.com", "pw1")

	rec := api.do(http.MethodGet, "/api/v1/messages/chat?user=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"messages":[]`)
}

func TestLookup(t *testing.T) {
	api := newTestAPI(t, nil)
	bob := api.register("bob@x.com", "pw2")
	api.register("alice@x.com", "pw1")
	token := api.login("alice@x.com", "pw1")

	rec := api.do(http.MethodGet, "/api/v1/users/lookup?email=bob@x.com", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found model.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	assert.Equal(t, bob.ID, found.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.do(http.MethodGet, "/api/v1/users/lookup?email=nobody@x.com", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/users/lookup", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeed(t *testing.T) {
	api := newTestAPI(t, nil)
	api.register("alice@x.com", "pw1")
	token := api.login("alice@x.com", "pw1")

	rec := api.do(http.MethodPost, "/api/v1/feeds", token, model.CreatePostRequest{Text: "first post", Caption: "hi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/v1/feeds", token, model.CreatePostRequest{Text: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text is required", errorOf(t, rec))

	rec = api.do(http.MethodGet, "/api/v1/feeds", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed model.FeedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "first post", feed.Posts[0].Text)
	assert.Equal(t, service.DefaultFeedLimit, feed.Limit)

	rec = api.do(http.MethodGet, "/api/v1/feeds?limit=ten", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRoutes_RateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 2)
	defer limiter.Stop()
	api := newTestAPI(t, limiter)

	for i := 0; i < 2; i++ {
		rec := api.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: "x@x.com", Password: "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := api.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: "x@x.com", Password: "x"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other routes are not throttled.
	rec = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	api := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/messages", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
