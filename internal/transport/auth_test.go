package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticToken(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, StaticToken("s3cret").VerifyToken(ctx, "s3cret"))
	require.ErrorIs(t, StaticToken("s3cret").VerifyToken(ctx, "s3cre"), ErrUnauthorized)
	require.ErrorIs(t, StaticToken("").VerifyToken(ctx, ""), ErrUnauthorized)
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(StaticToken("token"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer token", http.StatusOK},
		{"wrong token", "Bearer other", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
