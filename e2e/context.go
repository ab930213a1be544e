package e2e

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"idattest/internal/events"
	jwttoken "idattest/internal/jwt_token"
	"idattest/internal/ledger"
	notaryclient "idattest/internal/notary/client"
	notaryhandler "idattest/internal/notary/handler"
	"idattest/internal/notary/models"
	notaryservice "idattest/internal/notary/service"
	"idattest/internal/platform/middleware"
	"idattest/internal/registry/address"
	"idattest/internal/registry/handler"
	"idattest/internal/registry/metrics"
	"idattest/internal/registry/service"
	id "idattest/pkg/domain"
)

const program = "E2eProgram111111111111111111111111111111111"

// TestContext holds one scenario's servers, actors and last response.
type TestContext struct {
	registry  *httptest.Server
	notaries  []*httptest.Server
	programID id.Pubkey

	actors      map[string]*jwttoken.RequestSigner
	attestation *models.Attestation
	notaryIndex int

	lastStatus int
	lastBody   []byte
}

// Start boots a fresh in-memory registry and three notaries, dropping any
// state from a previous scenario.
func (tc *TestContext) Start() error {
	programID, err := id.ParsePubkey(program)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	*tc = TestContext{programID: programID, actors: map[string]*jwttoken.RequestSigner{}}
	for range 3 {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return err
		}
		signer, err := notaryservice.NewEd25519Signer(priv)
		if err != nil {
			return err
		}
		r := chi.NewRouter()
		notaryhandler.New(notaryservice.New(signer, notaryservice.NewDigestProver(nil), notaryservice.WithLogger(logger)), nil, logger).Register(r)
		tc.notaries = append(tc.notaries, httptest.NewServer(r))
	}

	eventLog := events.NewLog(0)
	svc := service.New(ledger.NewInMemoryStore(), address.New(programID),
		service.WithPublisher(eventLog),
		service.WithLogger(logger),
		service.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	handler.New(svc, jwttoken.NewRequestValidator(programID.String()), eventLog, logger).Register(r)
	tc.registry = httptest.NewServer(r)
	return nil
}

func (tc *TestContext) Close() {
	if tc.registry != nil {
		tc.registry.Close()
	}
	for _, n := range tc.notaries {
		n.Close()
	}
}

// Actor returns the named signing key, creating it on first use.
func (tc *TestContext) Actor(name string) (*jwttoken.RequestSigner, error) {
	if s, ok := tc.actors[name]; ok {
		return s, nil
	}
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	s, err := jwttoken.NewRequestSigner(priv, tc.programID.String(), time.Minute)
	if err != nil {
		return nil, err
	}
	tc.actors[name] = s
	return s, nil
}

// NotaryPubkeys asks each notary for its key, in index order.
func (tc *TestContext) NotaryPubkeys(ctx context.Context) ([]id.Pubkey, error) {
	keys := make([]id.Pubkey, 0, len(tc.notaries))
	for _, n := range tc.notaries {
		pk, err := notaryclient.New(n.URL).Pubkey(ctx)
		if err != nil {
			return nil, err
		}
		keys = append(keys, pk)
	}
	return keys, nil
}

func (tc *TestContext) Notarize(ctx context.Context, index int, session, transcript string) error {
	att, err := notaryclient.New(tc.notaries[index].URL).Notarize(ctx, session, []byte(transcript))
	if err != nil {
		return err
	}
	tc.attestation = att
	tc.notaryIndex = index
	return nil
}

func (tc *TestContext) Attestation() (*models.Attestation, int) {
	return tc.attestation, tc.notaryIndex
}

// Send issues a request, signed by actor unless actor is empty.
func (tc *TestContext) Send(method, path, actor string, body any) error {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, tc.registry.URL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		s, err := tc.Actor(actor)
		if err != nil {
			return err
		}
		token, err := s.Sign(raw, time.Now())
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := tc.registry.Client().Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	tc.lastStatus = res.StatusCode
	tc.lastBody, err = io.ReadAll(res.Body)
	return err
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// Field reads a top-level or dotted ("identity.status") field of the last
// JSON response.
func (tc *TestContext) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %s", tc.lastBody)
	}
	cur := doc
	for _, part := range splitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: not an object at %q", path, part)
		}
		if cur, ok = m[part]; !ok {
			return nil, fmt.Errorf("field %q missing in %s", path, tc.lastBody)
		}
	}
	return cur, nil
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := range len(path) {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
