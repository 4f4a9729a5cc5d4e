package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/activities/pkg/catalog"
	"github.com/mergington/activities/pkg/credentials"
	"github.com/mergington/activities/pkg/session"
)

const (
	testTeacher  = "mrodriguez"
	testPassword = "art123"
)

func newTestHandler(t *testing.T, opts ...catalog.Option) (*Handler, *http.ServeMux) {
	t.Helper()

	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	h := NewHandler(Config{
		Credentials: credentials.NewStore(map[string]string{testTeacher: testPassword}),
		Sessions:    store,
		Catalog:     catalog.New(catalog.DefaultSeed(), opts...),
		SessionTTL:  time.Hour,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

// login authenticates the test teacher and returns the session cookie.
func login(t *testing.T, mux *http.ServeMux) *http.Cookie {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"password":%q}`, testTeacher, testPassword)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestListActivities(t *testing.T) {
	_, mux := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/activities", http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	activities := decodeBody[map[string]catalog.Activity](t, w)
	require.Len(t, activities, 9)
	assert.Equal(t, 12, activities["Chess Club"].MaxParticipants)
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"},
		activities["Chess Club"].Participants)
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		_, mux := newTestHandler(t)

		body := fmt.Sprintf(`{"username":%q,"password":%q}`, testTeacher, testPassword)
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[loginResponse](t, w)
		assert.Equal(t, "Login successful", resp.Message)
		assert.Equal(t, testTeacher, resp.Username)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, cookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, int(time.Hour.Seconds()), cookies[0].MaxAge)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, mux := newTestHandler(t)

		body := fmt.Sprintf(`{"username":%q,"password":"wrong"}`, testTeacher)
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body2 := decodeBody[map[string]string](t, w)
		assert.Equal(t, "Invalid credentials", body2["detail"])
		assert.Empty(t, w.Result().Cookies(), "failed login must not issue a cookie")
	})

	t.Run("unknown username", func(t *testing.T) {
		_, mux := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/login",
			strings.NewReader(`{"username":"nobody","password":"x"}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("malformed body", func(t *testing.T) {
		_, mux := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogout(t *testing.T) {
	t.Run("invalidates the session", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		req := httptest.NewRequest(http.MethodPost, "/logout", http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[messageResponse](t, w)
		assert.Equal(t, "Logged out successfully", resp.Message)

		cleared := w.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Less(t, cleared[0].MaxAge, 0, "logout must clear the cookie")

		// The old cookie no longer authenticates.
		req = httptest.NewRequest(http.MethodGet, "/auth/status", http.NoBody)
		req.AddCookie(cookie)
		w = httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		status := decodeBody[statusResponse](t, w)
		assert.False(t, status.Authenticated)
	})

	t.Run("succeeds without a session", func(t *testing.T) {
		_, mux := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/logout", http.NoBody)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("idempotent", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		for range 2 {
			req := httptest.NewRequest(http.MethodPost, "/logout", http.NoBody)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestAuthStatus(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		req := httptest.NewRequest(http.MethodGet, "/auth/status", http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		status := decodeBody[statusResponse](t, w)
		assert.True(t, status.Authenticated)
		assert.Equal(t, testTeacher, status.Username)
	})

	t.Run("no cookie", func(t *testing.T) {
		_, mux := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/auth/status", http.NoBody)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		status := decodeBody[statusResponse](t, w)
		assert.False(t, status.Authenticated)
		assert.Empty(t, status.Username)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)
		cookie.Value = "tampered-" + cookie.Value

		req := httptest.NewRequest(http.MethodGet, "/auth/status", http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		status := decodeBody[statusResponse](t, w)
		assert.False(t, status.Authenticated)
	})
}

func signupURL(activity, email string) string {
	return "/activities/" + url.PathEscape(activity) + "/signup?email=" + url.QueryEscape(email)
}

func unregisterURL(activity, email string) string {
	return "/activities/" + url.PathEscape(activity) + "/unregister?email=" + url.QueryEscape(email)
}

func TestSignup(t *testing.T) {
	t.Run("requires auth", func(t *testing.T) {
		_, mux := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost,
			signupURL("Chess Club", "zoe@mergington.edu"), http.NoBody)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeBody[map[string]string](t, w)
		assert.Equal(t, "Authentication required", body["detail"])
	})

	t.Run("adds the student", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		req := httptest.NewRequest(http.MethodPost,
			signupURL("Chess Club", "zoe@mergington.edu"), http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[messageResponse](t, w)
		assert.Equal(t, "Signed up zoe@mergington.edu for Chess Club", resp.Message)

		// The roster now lists the new student.
		req = httptest.NewRequest(http.MethodGet, "/activities", http.NoBody)
		w = httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		activities := decodeBody[map[string]catalog.Activity](t, w)
		assert.Equal(t, []string{
			"michael@mergington.edu", "daniel@mergington.edu", "zoe@mergington.edu",
		}, activities["Chess Club"].Participants)
	})

	t.Run("duplicate signup", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		for i, want := range []int{http.StatusOK, http.StatusBadRequest} {
			req := httptest.NewRequest(http.MethodPost,
				signupURL("Chess Club", "zoe@mergington.edu"), http.NoBody)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			assert.Equal(t, want, w.Code, "call %d", i+1)

			if want == http.StatusBadRequest {
				body := decodeBody[map[string]string](t, w)
				assert.Equal(t, "Student is already signed up", body["detail"])
			}
		}
	})

	t.Run("unknown activity", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		req := httptest.NewRequest(http.MethodPost,
			signupURL("Knitting Club", "zoe@mergington.edu"), http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decodeBody[map[string]string](t, w)
		assert.Equal(t, "Activity not found", body["detail"])
	})

	t.Run("missing email", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		req := httptest.NewRequest(http.MethodPost,
			"/activities/Chess%20Club/signup", http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("full activity when capacity enforced", func(t *testing.T) {
		_, mux := newTestHandler(t, catalog.WithCapacityEnforcement())
		cookie := login(t, mux)

		// Math Club caps at 10 with 2 seeded; fill the remaining seats.
		for i := range 8 {
			req := httptest.NewRequest(http.MethodPost,
				signupURL("Math Club", fmt.Sprintf("student%d@mergington.edu", i)), http.NoBody)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)
		}

		req := httptest.NewRequest(http.MethodPost,
			signupURL("Math Club", "late@mergington.edu"), http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody[map[string]string](t, w)
		assert.Equal(t, "Activity is full", body["detail"])
	})
}

func TestUnregister(t *testing.T) {
	t.Run("requires auth", func(t *testing.T) {
		_, mux := newTestHandler(t)

		req := httptest.NewRequest(http.MethodDelete,
			unregisterURL("Chess Club", "michael@mergington.edu"), http.NoBody)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("removes the student", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		req := httptest.NewRequest(http.MethodDelete,
			unregisterURL("Chess Club", "michael@mergington.edu"), http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[messageResponse](t, w)
		assert.Equal(t, "Unregistered michael@mergington.edu from Chess Club", resp.Message)

		req = httptest.NewRequest(http.MethodGet, "/activities", http.NoBody)
		w = httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		activities := decodeBody[map[string]catalog.Activity](t, w)
		assert.Equal(t, []string{"daniel@mergington.edu"}, activities["Chess Club"].Participants)
	})

	t.Run("not signed up", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		req := httptest.NewRequest(http.MethodDelete,
			unregisterURL("Chess Club", "zoe@mergington.edu"), http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody[map[string]string](t, w)
		assert.Equal(t, "Student is not signed up for this activity", body["detail"])
	})

	t.Run("unknown activity", func(t *testing.T) {
		_, mux := newTestHandler(t)
		cookie := login(t, mux)

		req := httptest.NewRequest(http.MethodDelete,
			unregisterURL("Knitting Club", "zoe@mergington.edu"), http.NoBody)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
