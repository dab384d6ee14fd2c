// Copyright 2025 Certen Protocol
//
// Artifact model — the unit of evidence recorded in the ledger.

package artifact

import (
	"encoding/hex"
	"time"
)

// Tier grades the reliability of an artifact's source.
type Tier string

const (
	TierSelfAuthenticating     Tier = "SELF_AUTHENTICATING"
	TierGovernment             Tier = "GOVERNMENT"
	TierFinancialInstitution   Tier = "FINANCIAL_INSTITUTION"
	TierIndependentThirdParty  Tier = "INDEPENDENT_THIRD_PARTY"
	TierBusinessRecords        Tier = "BUSINESS_RECORDS"
	TierFirstPartyAdverse      Tier = "FIRST_PARTY_ADVERSE"
	TierFirstPartyFriendly     Tier = "FIRST_PARTY_FRIENDLY"
	TierUncorroboratedPerson   Tier = "UNCORROBORATED_PERSON"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierSelfAuthenticating, TierGovernment, TierFinancialInstitution,
		TierIndependentThirdParty, TierBusinessRecords, TierFirstPartyAdverse,
		TierFirstPartyFriendly, TierUncorroboratedPerson:
		return true
	}
	return false
}

// AuthMethod is how an artifact's authenticity was established.
type AuthMethod string

const (
	AuthNone       AuthMethod = "none"
	AuthDigitalSeal AuthMethod = "digital_seal"
	AuthNotarized   AuthMethod = "notarized"
	AuthWitness     AuthMethod = "witness"
	AuthSelf        AuthMethod = "self"
)

// Type enumerates the kinds of artifact the ledger accepts.
type Type string

const (
	TypeDocument         Type = "document"
	TypeFact             Type = "fact"
	TypeAmendment        Type = "amendment"
	TypeCourtOrder       Type = "court_order"
	TypePropertyTransfer Type = "property_transfer"
	TypeResponse         Type = "response"
	TypePlaceholder      Type = "placeholder"
)

// Chronology records explicit before/after relationships to other artifact ids.
type Chronology struct {
	Precedes []string `json:"precedes,omitempty"`
	Follows  []string `json:"follows,omitempty"`
}

// Metadata is the open-ended extension bag attached to an artifact. It is
// modeled as a tagged sum of the known extensions the resolver and contradiction
// index understand, plus a Custom fallback for everything else. Only the
// dependency-relevant keys named here ever feed the canonical serializer (see
// hashutil.Canonical) — adding an unknown Custom key can never alter a
// historical artifact hash.
type Metadata struct {
	ParentDocumentID    string            `json:"parent_document_id,omitempty"`
	OriginalDocumentID  string            `json:"original_document_id,omitempty"`
	InResponseTo        string            `json:"in_response_to,omitempty"`
	PropertyDeedID      string            `json:"property_deed_id,omitempty"`
	MotionID            string            `json:"motion_id,omitempty"`
	SupportingDocuments []string          `json:"supporting_documents,omitempty"`
	ReferencedArtifacts []string          `json:"referenced_artifacts,omitempty"`
	Chronology          Chronology        `json:"chronology,omitempty"`
	Custom              map[string]string `json:"custom,omitempty"`
}

// Get looks up a material key (a "custom" metadata field) for contradiction
// comparison. Known typed fields are not addressable through Get — the
// contradiction index's material-key set is always a Custom-bag concern.
func (m Metadata) Get(key string) (string, bool) {
	if m.Custom == nil {
		return "", false
	}
	v, ok := m.Custom[key]
	return v, ok
}

// CustodyEntry is one link in an artifact's chain of custody.
type CustodyEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Holder    string    `json:"holder"`
	Action    string    `json:"action"`
	Hash      string    `json:"hash"`
	Signature []byte    `json:"signature,omitempty"`
}

// Artifact is a single evidentiary record submitted to the ledger.
type Artifact struct {
	ID                   string             `json:"id"`
	ContentHash          [32]byte           `json:"content_hash"`
	Statement            string             `json:"statement"`
	Type                 Type               `json:"type"`
	Tier                 Tier               `json:"tier"`
	AuthenticationMethod AuthMethod         `json:"authentication_method"`
	CredibilityFactors   []string           `json:"credibility_factors,omitempty"`
	CustodyChain         []CustodyEntry     `json:"custody_chain,omitempty"`
	CaseID               string             `json:"case_id,omitempty"`
	Metadata             Metadata           `json:"metadata,omitempty"`
	Dependencies         []string           `json:"dependencies,omitempty"`
	Weight               float64            `json:"weight"`
	SubmittedAt          time.Time          `json:"submitted_at"`
	SubmittedBy          string             `json:"submitted_by"`
	SchemaVersion        int                `json:"schema_version"`

	// ExtractionConfidence and ParentWeight are populated for fact-type
	// artifacts only; see weight.CalculateFact.
	ExtractionConfidence float64 `json:"extraction_confidence,omitempty"`
	ParentWeight         float64 `json:"parent_weight,omitempty"`
	CorroborationBonus   float64 `json:"corroboration_bonus,omitempty"`

	// SealNumber, NotaryID and ClerkSignature feed the weight calculator's
	// authentication bonuses (§4.2); a non-empty value counts as "present".
	SealNumber     string `json:"seal_number,omitempty"`
	NotaryID       string `json:"notary_id,omitempty"`
	ClerkSignature []byte `json:"clerk_signature,omitempty"`
}

// ContentHashHex returns the lowercase hex encoding of ContentHash.
func (a *Artifact) ContentHashHex() string {
	return hex.EncodeToString(a.ContentHash[:])
}
