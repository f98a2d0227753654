package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CredentialType is the closed set of credential kinds an issuer can attest.
// The numeric value is part of the persisted request key and must not be reordered.
type CredentialType uint8

const (
	WorkExperience CredentialType = iota
	Education
	Certification
	ProjectContribution
	SkillEndorsement
)

var credentialTypeNames = [...]string{
	WorkExperience:      "WorkExperience",
	Education:           "Education",
	Certification:       "Certification",
	ProjectContribution: "ProjectContribution",
	SkillEndorsement:    "SkillEndorsement",
}

// CredentialTypes lists every credential type in declaration order.
func CredentialTypes() []CredentialType {
	types := make([]CredentialType, len(credentialTypeNames))
	for i := range credentialTypeNames {
		types[i] = CredentialType(i)
	}
	return types
}

func ParseCredentialType(s string) (CredentialType, error) {
	for i, name := range credentialTypeNames {
		if name == s {
			return CredentialType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown credential type %q", s)
}

func (t CredentialType) Valid() bool {
	return int(t) < len(credentialTypeNames)
}

func (t CredentialType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("CredentialType(%d)", uint8(t))
	}
	return credentialTypeNames[t]
}

func (t CredentialType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid credential type %d", uint8(t))
	}
	return []byte(credentialTypeNames[t]), nil
}

func (t *CredentialType) UnmarshalText(text []byte) error {
	parsed, err := ParseCredentialType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RequestKey identifies a pending ask from Holder to Issuer for one credential type.
type RequestKey struct {
	Holder common.Address
	Issuer common.Address
	Type   CredentialType
}

// Credential is an issued attestation. It is never modified after it is recorded.
type Credential struct {
	IssuedTo       common.Address `json:"issued_to"`
	IssuedBy       common.Address `json:"issued_by"`
	CredentialType CredentialType `json:"credential_type"`
	Metadata       string         `json:"metadata"`
	Timestamp      time.Time      `json:"timestamp"`
}
