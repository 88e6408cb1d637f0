package tax

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultScale is the rounding scale used when a jurisdiction does not define one.
const DefaultScale int32 = 2

// Policy holds the jurisdiction-specific switches consulted by the calculator.
type Policy struct {
	Code                             string `json:"code" yaml:"code"`
	Name                             string `json:"name" yaml:"name"`
	Currency                         string `json:"currency" yaml:"currency"`
	Locale                           string `json:"locale" yaml:"locale"`
	Scale                            *int32 `json:"scale,omitempty" yaml:"scale,omitempty"`
	SupportsMunicipalityFee          bool   `json:"supportsMunicipalityFee" yaml:"supportsMunicipalityFee"`
	SupportsServiceChargeCompounding bool   `json:"supportsServiceChargeCompounding" yaml:"supportsServiceChargeCompounding"`
}

// RoundingScale returns the configured scale or DefaultScale.
func (p Policy) RoundingScale() int32 {
	if p.Scale == nil || *p.Scale < 0 {
		return DefaultScale
	}
	return *p.Scale
}

// Policies maps upper-case jurisdiction codes to their policy.
type Policies map[string]Policy

// DefaultPolicies returns the built-in table. Callers get a fresh copy they may extend.
func DefaultPolicies() Policies {
	return Policies{
		"IN": {Code: "IN", Name: "India", Currency: "INR", Locale: "en-IN"},
		"AE": {
			Code:                             "AE",
			Name:                             "United Arab Emirates",
			Currency:                         "AED",
			Locale:                           "en-AE",
			SupportsMunicipalityFee:          true,
			SupportsServiceChargeCompounding: true,
		},
	}
}

// Lookup returns the policy for code. Unknown codes yield a policy with every optional rule switched off.
func (p Policies) Lookup(code string) Policy {
	key := normalizeCode(code)
	if policy, ok := p[key]; ok {
		if policy.Code == "" {
			policy.Code = key
		}
		return policy
	}
	return Policy{Code: key}
}

// Codes lists the known jurisdiction codes in sorted order.
func (p Policies) Codes() []string {
	codes := make([]string, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Merge returns a copy of p with entries from other layered on top.
func (p Policies) Merge(other Policies) Policies {
	out := make(Policies, len(p)+len(other))
	for code, policy := range p {
		out[code] = policy
	}
	for code, policy := range other {
		key := normalizeCode(code)
		policy.Code = key
		out[key] = policy
	}
	return out
}

type policyFile struct {
	Jurisdictions []Policy `yaml:"jurisdictions"`
}

// LoadPolicies decodes a YAML policy table of the form
//
//	jurisdictions:
//	  - code: SA
//	    currency: SAR
//	    supportsMunicipalityFee: false
func LoadPolicies(r io.Reader) (Policies, error) {
	var file policyFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode jurisdiction policies: %w", err)
	}
	out := make(Policies, len(file.Jurisdictions))
	for i, policy := range file.Jurisdictions {
		key := normalizeCode(policy.Code)
		if key == "" {
			return nil, fmt.Errorf("jurisdiction policy %d: code is required", i)
		}
		policy.Code = key
		out[key] = policy
	}
	return out, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
