package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmr/account-service/internal/testutil"
)

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) testutil.SignupResponse {
	t.Helper()
	defer resp.Body.Close()

	var env testutil.SignupResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestSignupEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/auth/signup"), map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "correcthorse1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "ada@example.com", env.Data.User.Email)
	assert.Equal(t, "Ada", env.Data.User.Name)
	assert.NotEmpty(t, env.Data.Token)
	assert.False(t, env.Data.User.SignupDate.IsZero())

	// The issued token's claims match the signup email.
	claims, err := ts.Services.Auth.ValidateToken(env.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestSignupEndpoint_DuplicateEmail(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/auth/signup"), map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "correcthorse1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	before := ts.DB.UserCount(t)

	resp = postJSON(t, ts.APIURL("/auth/signup"), map[string]string{
		"name":     "Another Ada",
		"email":    "ada@example.com",
		"password": "correcthorse2",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "User with this email already exists", env.Message)
	assert.Equal(t, before, ts.DB.UserCount(t), "conflict must not create a row")
}

func TestSignupEndpoint_ValidationErrors(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name      string
		body      map[string]string
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing name",
			body:      map[string]string{"email": "ada@example.com", "password": "correcthorse1"},
			wantField: "name",
			wantMsg:   "Name is required",
		},
		{
			name:      "malformed email",
			body:      map[string]string{"name": "Ada", "email": "not-an-email", "password": "correcthorse1"},
			wantField: "email",
			wantMsg:   "Please provide a valid email address",
		},
		{
			name:      "short password",
			body:      map[string]string{"name": "Ada", "email": "ada@example.com", "password": "short"},
			wantField: "password",
			wantMsg:   "Password must be at least 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.APIURL("/auth/signup"), tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			env := decodeEnvelope(t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "Validation failed", env.Message)
			require.NotEmpty(t, env.Errors)
			assert.Equal(t, tt.wantField, env.Errors[0].Field)
			assert.Equal(t, tt.wantMsg, env.Errors[0].Message)
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, _ := testutil.NewUserBuilder().
		WithEmail("ada@example.com").
		WithPassword("correcthorse1").
		BuildAndAuthenticate(t, ts)

	resp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    "ada@example.com",
		"password": "correcthorse1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, user.ID.String(), env.Data.User.ID, "login returns the same user signup created")
	assert.NotEmpty(t, env.Data.Token)
}

func TestLoginEndpoint_InvalidCredentials(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.NewUserBuilder().
		WithEmail("ada@example.com").
		WithPassword("correcthorse1").
		BuildAndAuthenticate(t, ts)

	// Wrong password and unknown email produce identical bodies.
	wrongPassword := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	unknownEmail := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    "nobody@example.com",
		"password": "correcthorse1",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)

	first := decodeEnvelope(t, wrongPassword)
	second := decodeEnvelope(t, unknownEmail)
	assert.Equal(t, "Invalid email or password", first.Message)
	assert.Equal(t, first.Message, second.Message)
	assert.Equal(t, first.Success, second.Success)
}

func TestProfileEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, token := testutil.NewUserBuilder().
		WithEmail("ada@example.com").
		BuildAndAuthenticate(t, ts)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/profile"), nil, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			User struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, user.ID.String(), env.Data.User.ID)
	assert.Equal(t, "ada@example.com", env.Data.User.Email)
}

func TestProfileEndpoint_Unauthorized(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "no token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/profile"), nil, tt.token)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestProfileEndpoint_UserGone(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	// The account disappears after the token was issued.
	require.NoError(t, ts.DB.DB.Exec("DELETE FROM users WHERE id = ?", user.ID).Error)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/profile"), nil, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogoutEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/auth/logout"), nil, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.True(t, env.Success)

	// No server-side invalidation: the token still works afterwards.
	req = testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/profile"), nil, token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
