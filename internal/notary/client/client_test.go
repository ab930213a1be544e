package client

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idattest/internal/notary/handler"
	"idattest/internal/notary/service"
	"idattest/internal/registry/verifier"
)

func newServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := service.NewEd25519Signer(priv)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(signer, service.NewDigestProver(nil), service.WithLogger(logger))

	r := chi.NewRouter()
	handler.New(svc, nil, logger).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestClient(t *testing.T) {
	srv, svc := newServer(t)
	c := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	pk, err := c.Pubkey(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.Pubkey(), pk)

	att, err := c.Notarize(ctx, "session", []byte("transcript"))
	require.NoError(t, err)
	assert.Equal(t, pk, att.NotaryPubkey)
	assert.True(t, verifier.Ed25519{}.Verify(att.Proof, att.Signature, pk))

	_, err = c.Notarize(ctx, "session", nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.Status)
	assert.Equal(t, "internal_error", statusErr.Code)
}

func TestClient_Unreachable(t *testing.T) {
	srv, _ := newServer(t)
	url := srv.URL
	srv.Close()

	err := New(url).Health(context.Background())
	assert.Error(t, err)
}
