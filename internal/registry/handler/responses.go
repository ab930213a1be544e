package handler

import (
	"time"

	"idattest/internal/events"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
)

type ConfigResponse struct {
	Authority          id.Pubkey   `json:"authority"`
	NotaryPubkeys      []id.Pubkey `json:"notary_pubkeys"`
	TotalIdentities    uint64      `json:"total_identities"`
	TotalVerifications uint64      `json:"total_verifications"`
	ValidityPeriod     int64       `json:"validity_period"`
	Bump               uint8       `json:"bump"`
}

type IdentityResponse struct {
	Address           *id.Pubkey            `json:"address,omitempty"`
	Owner             id.Pubkey             `json:"owner"`
	Platform          string                `json:"platform"`
	PlatformTag       uint8                 `json:"platform_tag"`
	ProofHash         id.Hash               `json:"proof_hash"`
	UsernameHash      id.Hash               `json:"username_hash"`
	Metadata          string                `json:"metadata"`
	VerifiedAt        int64                 `json:"verified_at"`
	ExpiresAt         int64                 `json:"expires_at"`
	Revoked           bool                  `json:"revoked"`
	VerificationCount uint64                `json:"verification_count"`
	Bump              uint8                 `json:"bump"`
	Status            models.IdentityStatus `json:"status"`
}

type VerificationResponse struct {
	Identity        id.Pubkey    `json:"identity"`
	Verifier        id.Pubkey    `json:"verifier"`
	ProofHash       id.Hash      `json:"proof_hash"`
	NotarySignature id.Signature `json:"notary_signature"`
	VerifiedAt      int64        `json:"verified_at"`
	Bump            uint8        `json:"bump"`
}

type EventResponse struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

// ReceiptResponse is returned by every mutating route.
type ReceiptResponse struct {
	TxID         string                `json:"tx_id"`
	Events       []EventResponse       `json:"events"`
	Config       *ConfigResponse       `json:"config,omitempty"`
	Identity     *IdentityResponse     `json:"identity,omitempty"`
	Verification *VerificationResponse `json:"verification,omitempty"`
}

type IdentityListResponse struct {
	Owner      id.Pubkey          `json:"owner"`
	Identities []IdentityResponse `json:"identities"`
}

type EventListResponse struct {
	Events []events.Envelope `json:"events"`
}

func toConfigResponse(c *models.Config) *ConfigResponse {
	if c == nil {
		return nil
	}
	return &ConfigResponse{
		Authority:          c.Authority,
		NotaryPubkeys:      c.NotaryPubkeys,
		TotalIdentities:    c.TotalIdentities,
		TotalVerifications: c.TotalVerifications,
		ValidityPeriod:     c.ValidityPeriod,
		Bump:               c.Bump,
	}
}

func toIdentityResponse(i *models.Identity, status models.IdentityStatus) *IdentityResponse {
	if i == nil {
		return nil
	}
	return &IdentityResponse{
		Owner:             i.Owner,
		Platform:          i.Platform.String(),
		PlatformTag:       uint8(i.Platform),
		ProofHash:         i.ProofHash,
		UsernameHash:      i.UsernameHash,
		Metadata:          i.Metadata,
		VerifiedAt:        i.VerifiedAt,
		ExpiresAt:         i.ExpiresAt,
		Revoked:           i.Revoked,
		VerificationCount: i.VerificationCount,
		Bump:              i.Bump,
		Status:            status,
	}
}

func toIdentityView(v models.IdentityView) IdentityResponse {
	resp := toIdentityResponse(v.Identity, v.Status)
	addr := v.Address
	resp.Address = &addr
	return *resp
}

func toVerificationResponse(v *models.Verification) *VerificationResponse {
	if v == nil {
		return nil
	}
	return &VerificationResponse{
		Identity:        v.Identity,
		Verifier:        v.Verifier,
		ProofHash:       v.ProofHash,
		NotarySignature: v.NotarySignature,
		VerifiedAt:      v.VerifiedAt,
		Bump:            v.Bump,
	}
}

func toReceiptResponse(r *models.Receipt, now time.Time) *ReceiptResponse {
	resp := &ReceiptResponse{
		TxID:         r.TxID,
		Events:       make([]EventResponse, 0, len(r.Events)),
		Config:       toConfigResponse(r.Config),
		Verification: toVerificationResponse(r.Verification),
	}
	if r.Identity != nil {
		resp.Identity = toIdentityResponse(r.Identity, r.Identity.Status(now.Unix()))
	}
	for _, ev := range r.Events {
		resp.Events = append(resp.Events, EventResponse{Name: ev.EventName(), Data: ev})
	}
	return resp
}
