package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes the payload with a strong ETag derived from its
// JSON encoding, answering 304 when the client already holds the same
// representation. Project, task, user and stats reads all go through here.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	etag, err := payloadETag(payload)
	if err != nil {
		// can't hash it, just serve it
		ctx.JSON(status, payload)
		return
	}

	ctx.Header("ETag", etag)

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

func payloadETag(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)

	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

// etagMatches implements If-None-Match: a comma-separated list of validators
// or the wildcard "*".
func etagMatches(header, current string) bool {
	if strings.TrimSpace(header) == "" || current == "" {
		return false
	}

	if strings.TrimSpace(header) == "*" {
		return true
	}

	want := stripWeakPrefix(current)

	for _, candidate := range strings.Split(header, ",") {
		if stripWeakPrefix(candidate) == want {
			return true
		}
	}

	return false
}

func stripWeakPrefix(raw string) string {
	v := strings.TrimSpace(raw)

	if strings.HasPrefix(v, "W/") {
		v = strings.TrimSpace(strings.TrimPrefix(v, "W/"))
	}

	return v
}
