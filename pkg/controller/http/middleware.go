package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/lectern/pkg/domain/model/auth"
	"github.com/secmon-lab/lectern/pkg/domain/types"
	"github.com/secmon-lab/lectern/pkg/utils/errutil"
)

// isPublicPath reports whether the path bypasses token validation. The
// guest sub-tree is intentionally unauthenticated: guest IDs are bearer
// capabilities scoped to their own ephemeral collection.
func isPublicPath(path string) bool {
	if path == "/health" {
		return true
	}
	return strings.HasPrefix(path, "/api/v1/guest/")
}

// authGate validates the bearer token on every non-public request and
// attaches the resulting principal to the request context. The signing
// algorithm is pinned to HS256; tokens carrying any other algorithm
// fail verification rather than negotiate.
func authGate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS pre-flight never carries credentials
			if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := validateBearer(r.Header.Get("Authorization"), secret)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, err, http.StatusUnauthorized)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateBearer(header string, secret []byte) (*auth.Principal, error) {
	if header == "" {
		return nil, goerr.New("authorization header is required")
	}

	scheme, raw, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || raw == "" {
		return nil, goerr.New("authorization header must use the Bearer scheme")
	}

	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid token")
	}

	claim, ok := token.Get("user_id")
	if !ok {
		return nil, goerr.New("user_id claim not found in token")
	}

	userID, err := toUserID(claim)
	if err != nil {
		return nil, err
	}

	return &auth.Principal{UserID: userID}, nil
}

// toUserID converts the user_id claim. JSON numbers arrive as float64
// from the parser; string claims are tolerated for compatibility.
func toUserID(claim any) (types.UserID, error) {
	switch v := claim.(type) {
	case float64:
		return types.UserID(v), nil
	case int64:
		return types.UserID(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, goerr.Wrap(err, "user_id claim is not an integer")
		}
		return types.UserID(n), nil
	default:
		return 0, goerr.New("user_id claim has an unexpected type")
	}
}
