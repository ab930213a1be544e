package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
	"idattest/pkg/platform/httputil"
	"idattest/pkg/requestcontext"
)

// MaxSignedBodyBytes bounds request bodies read for signature checking.
const MaxSignedBodyBytes = 64 << 10

// RequestValidator verifies a signed-request token against the raw body.
type RequestValidator interface {
	Validate(token string, body []byte) (id.Pubkey, error)
}

// RequireSignedRequest authenticates the caller as the key that signed the
// request and stores it with requestcontext.WithSigner.
func RequireSignedRequest(validator RequestValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing signature",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxSignedBodyBytes))
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body too large or unreadable"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			signer, err := validator.Validate(token, body)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid signature",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSigner(ctx, signer)))
		})
	}
}
