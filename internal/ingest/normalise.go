package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/domain"
)

// SeverityMap is a per-provider mapping from a provider-native severity
// string to the canonical enum (spec.md section 4.3 rule 1).
type SeverityMap map[string]domain.Severity

// Normaliser turns RawAlerts into NormalisedAlerts per-provider,
// applying severity mapping, service extraction and fingerprinting.
type Normaliser struct {
	severityByProvider map[string]SeverityMap
	servicePatterns    []*regexp.Regexp
}

// NewNormaliser builds a Normaliser. servicePatterns are tried in order
// against an alert's description when the "service" label is absent.
func NewNormaliser(severityByProvider map[string]SeverityMap, servicePatterns []*regexp.Regexp) *Normaliser {
	return &Normaliser{severityByProvider: severityByProvider, servicePatterns: servicePatterns}
}

// Normalise maps one RawAlert to a NormalisedAlert, rejecting it with a
// reason when the provider lacks a severity mapping.
func (n *Normaliser) Normalise(raw adapters.RawAlert) domain.NormalisedAlert {
	alert := domain.Alert{
		ArrivedAt:   raw.StartsAt,
		Provider:    raw.Provider,
		Service:     n.extractService(raw),
		Description: raw.Description,
		Labels:      raw.Labels,
		Annotations: raw.Annotations,
		Status:      domain.AlertStatus(raw.Status),
	}

	severity, ok := n.mapSeverity(raw.Provider, raw.Severity)
	alert.Severity = severity

	alert.Fingerprint = n.fingerprint(raw, alert)

	if !ok {
		return domain.NormalisedAlert{Alert: alert, Validation: domain.Rejected("unmapped severity \"" + raw.Severity + "\" for provider \"" + raw.Provider + "\"")}
	}
	return domain.NormalisedAlert{Alert: alert, Validation: domain.Valid()}
}

func (n *Normaliser) mapSeverity(provider, raw string) (domain.Severity, bool) {
	table, ok := n.severityByProvider[provider]
	if !ok {
		return domain.SeverityInfo, false
	}
	sev, ok := table[strings.ToLower(raw)]
	return sev, ok
}

// extractService implements rule 2: first non-empty of the "service"
// label, the first service pattern matched in the description, or
// "unknown".
func (n *Normaliser) extractService(raw adapters.RawAlert) string {
	if svc := raw.Labels["service"]; svc != "" {
		return svc
	}
	for _, pattern := range n.servicePatterns {
		if m := pattern.FindStringSubmatch(raw.Description); len(m) > 1 {
			return m[1]
		}
	}
	return "unknown"
}

// fingerprint implements rule 3: accept the provider's fingerprint
// verbatim if supplied, else derive a stable SHA-256 of the canonical
// fields.
func (n *Normaliser) fingerprint(raw adapters.RawAlert, alert domain.Alert) string {
	if raw.Fingerprint != "" {
		return raw.Fingerprint
	}

	desc := alert.Description
	const truncateAt = 200
	if len(desc) > truncateAt {
		desc = desc[:truncateAt]
	}

	h := sha256.New()
	h.Write([]byte(alert.Service))
	h.Write([]byte("|"))
	h.Write([]byte(canonicalLabels(alert.Labels)))
	h.Write([]byte("|"))
	h.Write([]byte(alert.Severity.String()))
	h.Write([]byte("|"))
	h.Write([]byte(desc))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalLabels renders a label map in deterministic key order so the
// fingerprint is stable regardless of map iteration order.
func canonicalLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}
