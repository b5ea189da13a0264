package verification

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/banksia/pkg/abn"
	"github.com/Ramsey-B/banksia/pkg/models"
)

const (
	notAvailable         = "N/A"
	maxDescriptionLength = 200
	maxTitleLength       = 100
)

// SystemInstruction frames the adjudicator as a business-identity analyst
const SystemInstruction = "You are an expert at matching Australian business entities across data sources. " +
	"Answer only with a single JSON object."

// BuildPrompt renders the adjudication request for one candidate pair
func BuildPrompt(source models.CrawlRecord, candidate models.ScoredCandidate) string {
	record := candidate.Record

	var b strings.Builder
	b.WriteString("Determine whether the website and the registry entity below describe the same business.\n\n")

	b.WriteString("WEBSITE DATA:\n")
	writeField(&b, "Website URL", source.URL)
	writeField(&b, "Company Name", source.Name)
	writeField(&b, "Industry", source.IndustryText())
	writeField(&b, "Meta Description", truncate(source.DescriptionText(), maxDescriptionLength))
	writeField(&b, "Page Title", truncate(source.TitleText(), maxTitleLength))

	b.WriteString("\nREGISTRY DATA:\n")
	writeField(&b, "ABN", abn.Format(record.RegistryID))
	writeField(&b, "Entity Name", record.LegalName)
	writeField(&b, "Trading Names", strings.Join(record.TradingNames, ", "))
	writeField(&b, "Business Names", strings.Join(record.BusinessNames, ", "))
	writeField(&b, "Location", record.LocationText())
	writeField(&b, "Entity Status", string(record.Status))

	fmt.Fprintf(&b, "\nSimilarity Score: %.3f\n\n", candidate.CompositeScore)

	b.WriteString("Consider name variations, abbreviations, trading names versus legal names, and whether the " +
		"website content is consistent with the registered entity.\n\n")
	b.WriteString("Respond with JSON only, in exactly this shape:\n")
	b.WriteString(`{"is_match": true, "confidence": 0.0, "reasoning": "short explanation", "key_factors": ["factor"]}`)
	b.WriteString("\nconfidence must be a number between 0 and 1.\n")

	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = notAvailable
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
