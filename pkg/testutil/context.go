package testutil

import (
	"net/http"

	id "idattest/pkg/domain"
	"idattest/pkg/requestcontext"
)

// WithSigner marks the request as signed by signer, as the signed-request
// middleware would after verifying its token.
func WithSigner(req *http.Request, signer id.Pubkey) *http.Request {
	return req.WithContext(requestcontext.WithSigner(req.Context(), signer))
}
