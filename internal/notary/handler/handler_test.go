package handler

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"idattest/internal/notary/models"
	"idattest/internal/notary/service"
	"idattest/internal/platform/middleware"
	"idattest/internal/ratelimit"
	"idattest/internal/registry/verifier"
	id "idattest/pkg/domain"
	"idattest/pkg/testutil"
)

type NotaryHandlerSuite struct {
	suite.Suite
	router chi.Router
	pubkey id.Pubkey
}

func TestNotaryHandlerSuite(t *testing.T) {
	suite.Run(t, new(NotaryHandlerSuite))
}

func (s *NotaryHandlerSuite) SetupTest() {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	signer, err := service.NewEd25519Signer(priv)
	s.Require().NoError(err)
	s.pubkey = signer.Pubkey()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(signer, service.NewDigestProver(nil), service.WithLogger(logger))
	limiter := ratelimit.NewMiddleware(ratelimit.New(0.01, 2, time.Minute), logger)

	s.router = chi.NewRouter()
	s.router.Use(middleware.ClientIP())
	New(svc, limiter.RateLimit, logger).Register(s.router)
}

func (s *NotaryHandlerSuite) TestHealth() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func (s *NotaryHandlerSuite) TestPubkey() {
	first := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/pubkey"))
	second := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/pubkey"))
	testutil.AssertStatusOK(s.T(), first)
	s.Equal(hex.EncodeToString(s.pubkey[:]), first.Body.String())
	s.Equal(first.Body.String(), second.Body.String())
}

func (s *NotaryHandlerSuite) TestNotarize() {
	s.Run("byte array transcript", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/notarize", map[string]any{
			"session_id":      "sess-1",
			"transcript_data": []int{72, 84, 84, 80},
		}))
		testutil.AssertStatusOK(s.T(), rr)

		resp := testutil.UnmarshalResponse[models.NotarizeResponse](s.T(), rr)
		att, err := resp.ToAttestation()
		s.Require().NoError(err)
		s.Equal(s.pubkey, att.NotaryPubkey)
		s.True(verifier.Ed25519{}.Verify(att.Proof, att.Signature, att.NotaryPubkey))
	})

	s.Run("empty transcript is an opaque internal error", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/notarize", models.NotarizeRequest{SessionID: "sess-2"}))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		s.JSONEq(`{"error":"internal_error"}`, rr.Body.String())
	})

	s.Run("rate limited per client", func() {
		req := func() *http.Request {
			r := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/notarize", `{"session_id":"s","transcript_data":"aGk="}`)
			r.RemoteAddr = "198.51.100.9:5000"
			return r
		}
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req()))
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req()))
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req()), http.StatusTooManyRequests)
	})

	s.Run("forwarded header from an untrusted peer does not reset the limit", func() {
		n := 0
		req := func() *http.Request {
			n++
			r := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/notarize", `{"session_id":"s","transcript_data":"aGk="}`)
			r.RemoteAddr = "198.51.100.10:5000"
			r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", n))
			return r
		}
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req()))
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req()))
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req()), http.StatusTooManyRequests)
	})

	s.Run("malformed json", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/notarize", `{"session_id":`)
		req.RemoteAddr = "203.0.113.5:4000"
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}
