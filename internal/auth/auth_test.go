package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Minute)
	id := uuid.New()

	tok, err := m.Issue(id)
	require.NoError(t, err)

	got, err := m.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Minute)
	id := uuid.New()

	other, err := NewManager("other", time.Minute).Issue(id)
	require.NoError(t, err)
	_, err = m.Parse(other)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue(id)
	require.NoError(t, err)
	_, err = m.Parse(old)
	require.ErrorIs(t, err, ErrInvalidToken)

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Parse(bad)
	require.ErrorIs(t, err, ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: id.String()}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Parse(noExp)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	m := NewManager("secret", time.Minute)
	id := uuid.New()
	tok, err := m.Issue(id)
	require.NoError(t, err)

	var seen uuid.UUID
	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := ActorFrom(r.Context())
		require.True(t, ok)
		seen = got
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusNoContent},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=" + tok }, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				require.Equal(t, id, seen)
			} else {
				require.Equal(t, uuid.Nil, seen)
			}
		})
	}
}
