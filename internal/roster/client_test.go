package roster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Yam_Community/internal/pkg"
)

func rosterServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.URL.Query().Get("communityId") {
		case "c1":
			_ = json.NewEncoder(w).Encode(Envelope[[]Member]{Code: 0, Message: "ok", Data: []Member{{UserID: "u1"}, {UserID: "u2"}}})
		case "gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIsMember(t *testing.T) {
	srv := rosterServer(t)
	c := NewClient(srv.URL+"/", time.Second, srv.Client())
	ctx := context.Background()

	ok, err := c.IsMember(ctx, "u2", "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsMember(ctx, "u9", "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMembersErrors(t *testing.T) {
	srv := rosterServer(t)
	c := NewClient(srv.URL, time.Second, srv.Client())
	ctx := context.Background()

	_, err := c.Members(ctx, "gone")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = c.Members(ctx, "broken")
	assert.ErrorIs(t, err, pkg.ErrStoreFailure)
}

func TestMembersSendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		if got != "Bearer svc-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(Envelope[[]Member]{Data: []Member{{UserID: "u1"}}})
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, time.Second, srv.Client()).Members(context.Background(), "c1")
	assert.ErrorIs(t, err, pkg.ErrStoreFailure)
	assert.Empty(t, got)

	ok, err := NewClient(srv.URL, time.Second, srv.Client()).WithToken("svc-token").IsMember(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bearer svc-token", got)
}
