package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/config"
	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

func TestCacheKeyIsPerUser(t *testing.T) {
	t.Parallel()
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "menus"}
	key := func(user *utils.Identity, query string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/menus/my"+query, nil), httptest.NewRecorder())
		c.SetPath("/api/menus/my")
		if user != nil {
			c.Set(identityKey, *user)
		}
		return cacheKey(cfg, c)
	}
	alice := &utils.Identity{UserID: uuid.Must(uuid.NewV4())}
	bob := &utils.Identity{UserID: uuid.Must(uuid.NewV4())}

	require.Equal(t, key(alice, ""), key(alice, ""))
	require.NotEqual(t, key(alice, ""), key(bob, ""))
	require.NotEqual(t, key(alice, ""), key(nil, ""))
	require.NotEqual(t, key(alice, ""), key(alice, "?v=2"))
	require.Regexp(t, `^menus:[0-9a-f]{40}$`, key(alice, ""))
}

func TestDecodePayloadRejectsTruncatedInput(t *testing.T) {
	t.Parallel()
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, hdr, body, ok := decodePayload(payload)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/json", hdr.Get("Content-Type"))
	require.JSONEq(t, `{"a":1}`, string(body))

	for _, n := range []int{0, 7, 12} {
		_, _, _, ok := decodePayload(payload[:n])
		require.False(t, ok, "prefix of %d bytes", n)
	}
}

// pagedKeys serves Scan from fixed pages and records Del calls.
type pagedKeys struct {
	pages   [][]string
	scanErr error
	matches []string
	deleted []string
}

func (p *pagedKeys) Scan(_ context.Context, cursor uint64, match string, _ int64) *redis.ScanCmd {
	p.matches = append(p.matches, match)
	if p.scanErr != nil {
		return redis.NewScanCmdResult(nil, 0, p.scanErr)
	}
	next := cursor + 1
	if int(next) >= len(p.pages) {
		next = 0
	}
	return redis.NewScanCmdResult(p.pages[cursor], next, nil)
}

func (p *pagedKeys) Del(_ context.Context, keys ...string) *redis.IntCmd {
	p.deleted = append(p.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestPurgePrefixWalksEveryPage(t *testing.T) {
	t.Parallel()
	keys := &pagedKeys{pages: [][]string{{"menus:a", "menus:b"}, {}, {"menus:c"}}}

	n, err := purgePrefix(context.Background(), keys, "menus")
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.Equal(t, []string{"menus:a", "menus:b", "menus:c"}, keys.deleted)
	require.Equal(t, []string{"menus:*", "menus:*", "menus:*"}, keys.matches)
}

func TestPurgeAfterOnlyOnSuccess(t *testing.T) {
	t.Parallel()
	e := echo.New()
	serve := func(keys keyPurger, status int) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPut, "/api/roles/x/menus", strings.NewReader("{}")), rec)
		h := purgeAfter("menus", keys, logger.NewNop())(func(c echo.Context) error {
			return c.JSON(status, map[string]bool{"success": status < 300})
		})
		require.NoError(t, h(c))
		return rec
	}

	ok := &pagedKeys{pages: [][]string{{"menus:a"}}}
	require.Equal(t, http.StatusOK, serve(ok, http.StatusOK).Code)
	require.Equal(t, []string{"menus:a"}, ok.deleted)

	refused := &pagedKeys{pages: [][]string{{"menus:a"}}}
	require.Equal(t, http.StatusBadRequest, serve(refused, http.StatusBadRequest).Code)
	require.Empty(t, refused.matches)

	broken := &pagedKeys{scanErr: errors.New("connection refused")}
	require.Equal(t, http.StatusOK, serve(broken, http.StatusOK).Code)
	require.Empty(t, broken.deleted)
}
