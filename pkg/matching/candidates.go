package matching

import (
	"net/url"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/normalizers"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultMaxCandidates     = 50
	DefaultSequenceThreshold = 0.70
	minContainmentLength     = 4
)

// Generator cheaply narrows the registry down to plausible candidates for one crawl record
type Generator struct {
	scorer            *Scorer
	maxCandidates     int
	sequenceThreshold float64
}

func NewGenerator(scorer *Scorer) *Generator {
	return &Generator{
		scorer:            scorer,
		maxCandidates:     DefaultMaxCandidates,
		sequenceThreshold: DefaultSequenceThreshold,
	}
}

// Generate returns at most 50 active registry records, in input order, whose names
// contain the source domain token or closely resemble the source name
func (g *Generator) Generate(source models.CrawlRecord, registry []models.RegistryRecord) []models.RegistryRecord {
	active := ectolinq.Filter(registry, func(r models.RegistryRecord) bool {
		return r.IsActive()
	})

	token := ExtractDomainToken(source.URL)
	sourceName := normalizers.NormalizeCompanyName(source.Name)

	survivors := make([]models.RegistryRecord, 0, min(len(active), g.maxCandidates))
	for _, record := range active {
		if g.isCandidate(token, sourceName, record) {
			survivors = append(survivors, record)
			if len(survivors) == g.maxCandidates {
				break
			}
		}
	}
	return survivors
}

func (g *Generator) isCandidate(token, sourceName string, record models.RegistryRecord) bool {
	for _, name := range record.Names() {
		normalized := normalizers.NormalizeCompanyName(name)
		if normalized == "" {
			continue
		}
		if domainContains(token, normalizers.Alphanumeric(normalized)) {
			return true
		}
		if sourceName != "" && g.scorer.SequenceRatio(sourceName, normalized) >= g.sequenceThreshold {
			return true
		}
	}
	return false
}

func domainContains(token, compactName string) bool {
	if token == "" || compactName == "" {
		return false
	}
	if len(token) >= minContainmentLength && strings.Contains(compactName, token) {
		return true
	}
	return len(compactName) >= minContainmentLength && strings.Contains(token, compactName)
}

// ExtractDomainToken returns the registrable label of an http(s) URL with the scheme,
// "www." and public suffix removed, e.g. https://www.tech-solutions.com.au -> techsolutions.
// Unparseable URLs yield "".
func ExtractDomainToken(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if host == "" {
		return ""
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(registrable)
	label := strings.TrimSuffix(registrable, "."+suffix)
	return normalizers.Alphanumeric(label)
}
