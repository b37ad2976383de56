package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Checksum returns the SHA-256 hex digest of the payload's canonical JSON
// form. Child collections are sorted by their within-version identity key
// and the JSON is re-marshaled through generic maps so object keys serialize
// in sorted order; two payloads with identical logical content always digest
// identically regardless of source field or row ordering. The digest is
// derived from payload content only, never from wall-clock time.
func Checksum(p *Payload) (string, error) {
	canon := *p
	canon.Disclosures = append([]DisclosureInput(nil), p.Disclosures...)
	canon.Datapoints = append([]DatapointInput(nil), p.Datapoints...)
	canon.ValidationRules = append([]ValidationRuleInput(nil), p.ValidationRules...)
	sort.SliceStable(canon.Disclosures, func(i, j int) bool {
		return canon.Disclosures[i].DisclosureID < canon.Disclosures[j].DisclosureID
	})
	sort.SliceStable(canon.Datapoints, func(i, j int) bool {
		return canon.Datapoints[i].Code < canon.Datapoints[j].Code
	})
	sort.SliceStable(canon.ValidationRules, func(i, j int) bool {
		return canon.ValidationRules[i].RuleCode < canon.ValidationRules[j].RuleCode
	})

	raw, err := json.Marshal(&canon)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("marshal canonical payload: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
