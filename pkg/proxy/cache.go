package proxy

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ashpect/ttlstore/pkg/clock"
)

// CachedResponse is what the proxy stores per cached URL.
type CachedResponse struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	CachedAt time.Time   `json:"cachedAt"`
}

type cacheControl struct {
	// seconds; -1 when the header carries neither max-age nor s-maxage
	maxAge  int
	noStore bool
	private bool
}

// parseCacheControl reads the directives the proxy acts on. s-maxage wins
// over max-age since this is a shared cache.
func parseCacheControl(header string) cacheControl {
	cc := cacheControl{maxAge: -1}
	sharedMaxAge := -1
	for _, directive := range strings.Split(strings.ToLower(header), ",") {
		directive = strings.TrimSpace(directive)
		name, value, _ := strings.Cut(directive, "=")
		switch name {
		case "no-store":
			cc.noStore = true
		case "private":
			cc.private = true
		case "max-age":
			if n, err := strconv.Atoi(strings.Trim(value, `"`)); err == nil && n >= 0 {
				cc.maxAge = n
			}
		case "s-maxage":
			if n, err := strconv.Atoi(strings.Trim(value, `"`)); err == nil && n >= 0 {
				sharedMaxAge = n
			}
		}
	}
	if sharedMaxAge >= 0 {
		cc.maxAge = sharedMaxAge
	}
	return cc
}

// secondsToTicks rounds up so an entry never expires before the upstream
// allowed.
func secondsToTicks(seconds int) int64 {
	unit := int64(clock.Resolution / time.Second)
	return (int64(seconds) + unit - 1) / unit
}
