package registry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	jwttoken "idattest/internal/jwt_token"
	"idattest/internal/notary/models"
	registrymodels "idattest/internal/registry/models"
	id "idattest/pkg/domain"
)

// TestContext is the slice of the scenario context the registry steps need.
type TestContext interface {
	Actor(name string) (*jwttoken.RequestSigner, error)
	NotaryPubkeys(ctx context.Context) ([]id.Pubkey, error)
	Notarize(ctx context.Context, index int, session, transcript string) error
	Attestation() (*models.Attestation, int)
	Send(method, path, actor string, body any) error
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc}
	ctx.Step(`^"([^"]*)" initializes the registry with the running notaries$`, steps.initialize)
	ctx.Step(`^notary (\d+) notarizes session "([^"]*)" with transcript "([^"]*)"$`, steps.notarize)
	ctx.Step(`^"([^"]*)" attests platform "([^"]*)" as "([^"]*)" with that proof$`, steps.attest)
	ctx.Step(`^"([^"]*)" attests platform "([^"]*)" as "([^"]*)" with that proof claiming notary (\d+)$`, steps.attestClaiming)
	ctx.Step(`^"([^"]*)" verifies that proof$`, steps.verify)
	ctx.Step(`^"([^"]*)" revokes the "([^"]*)" identity of "([^"]*)"$`, steps.revoke)
	ctx.Step(`^"([^"]*)" sets metadata of the "([^"]*)" identity of "([^"]*)" to "([^"]*)"$`, steps.updateMetadata)
	ctx.Step(`^I look up the "([^"]*)" identity of "([^"]*)"$`, steps.lookup)
	ctx.Step(`^I request the registry config$`, steps.config)
}

type registrySteps struct {
	tc TestContext
}

func (s *registrySteps) pubkey(actor string) (id.Pubkey, error) {
	signer, err := s.tc.Actor(actor)
	if err != nil {
		return id.Pubkey{}, err
	}
	return signer.Pubkey(), nil
}

func (s *registrySteps) initialize(ctx context.Context, authority string) error {
	keys, err := s.tc.NotaryPubkeys(ctx)
	if err != nil {
		return err
	}
	return s.tc.Send(http.MethodPost, "/v1/config", authority, map[string]any{"notary_pubkeys": keys})
}

func (s *registrySteps) notarize(ctx context.Context, index int, session, transcript string) error {
	return s.tc.Notarize(ctx, index, session, transcript)
}

func (s *registrySteps) attest(actor, platform, username string) error {
	_, index := s.tc.Attestation()
	return s.attestClaiming(actor, platform, username, index)
}

func (s *registrySteps) attestClaiming(actor, platform, username string, index int) error {
	att, _ := s.tc.Attestation()
	if att == nil {
		return fmt.Errorf("no proof notarized in this scenario")
	}
	p, err := registrymodels.ParsePlatform(platform)
	if err != nil {
		return err
	}
	return s.tc.Send(http.MethodPost, "/v1/identities/attest", actor, map[string]any{
		"platform":      uint8(p),
		"username_hash": registrymodels.HashUsername(username),
		"metadata":      "",
		"proof_data":    id.Bytes(att.Proof),
		"signature":     att.Signature,
		"notary_index":  index,
	})
}

func (s *registrySteps) verify(actor string) error {
	att, index := s.tc.Attestation()
	if att == nil {
		return fmt.Errorf("no proof notarized in this scenario")
	}
	return s.tc.Send(http.MethodPost, "/v1/proofs/verify", actor, map[string]any{
		"proof_data":   id.Bytes(att.Proof),
		"signature":    att.Signature,
		"notary_index": index,
	})
}

func (s *registrySteps) identityPath(owner, platform string) (string, error) {
	pk, err := s.pubkey(owner)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/v1/identities/%s/%s", pk, platform), nil
}

func (s *registrySteps) revoke(actor, platform, owner string) error {
	path, err := s.identityPath(owner, platform)
	if err != nil {
		return err
	}
	return s.tc.Send(http.MethodPost, path+"/revoke", actor, struct{}{})
}

func (s *registrySteps) updateMetadata(actor, platform, owner, metadata string) error {
	path, err := s.identityPath(owner, platform)
	if err != nil {
		return err
	}
	return s.tc.Send(http.MethodPut, path+"/metadata", actor, map[string]string{"metadata": metadata})
}

func (s *registrySteps) lookup(platform, owner string) error {
	path, err := s.identityPath(owner, platform)
	if err != nil {
		return err
	}
	return s.tc.Send(http.MethodGet, path, "", nil)
}

func (s *registrySteps) config() error {
	return s.tc.Send(http.MethodGet, "/v1/config", "", nil)
}
