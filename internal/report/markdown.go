package report

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FileName is the report file written next to the combined table.
const FileName = "business_insights.md"

// Markdown renders the report as a markdown document.
func Markdown(rep Report) []byte {
	p := message.NewPrinter(language.English)
	var b bytes.Buffer

	p.Fprintf(&b, "# Business Insights - Azerbaijan Supermarket Market\n\n")
	p.Fprintf(&b, "_Generated %s_\n\n", rep.GeneratedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Executive Summary\n\n")
	p.Fprintf(&b, "- **Market Size**: %d supermarket locations\n", rep.Total)
	p.Fprintf(&b, "- **Active Chains**: %d competitors\n", len(rep.Chains))
	p.Fprintf(&b, "- **Geographic Reach**: %d cities\n", len(rep.Cities))
	p.Fprintf(&b, "- **Located**: %d of %d stores carry coordinates\n", rep.Located, rep.Total)
	if leader, ok := rep.Leader(); ok {
		p.Fprintf(&b, "- **Market Leader**: %s (%.1f%% share)\n", leader.Chain, leader.Share)
	}
	b.WriteString("\n")

	b.WriteString("## Market Structure\n\n")
	for i, c := range rep.Chains {
		p.Fprintf(&b, "%d. **%s**: %d stores (%.1f%%)\n", i+1, c.Chain, c.Stores, c.Share)
	}
	b.WriteString("\n")

	b.WriteString("## Geographic Patterns\n\n")
	if len(rep.Cities) > 0 {
		top := rep.Cities[0]
		p.Fprintf(&b, "- **Largest Market**: %s has %d stores (%.1f%% of total)\n",
			top.City, top.Stores, percent(top.Stores, rep.Total))
		n := min(5, len(rep.Cities))
		top5 := 0
		for _, c := range rep.Cities[:n] {
			top5 += c.Stores
		}
		p.Fprintf(&b, "- **Urban Concentration**: top %d cities hold %.1f%% of the market\n", n, percent(top5, rep.Total))
	}
	p.Fprintf(&b, "- **Regional Presence**: %d distinct markets served\n\n", len(rep.Cities))

	b.WriteString("## Market Concentration\n\n")
	b.WriteString("| City | Stores | Chains | HHI |\n|---|---:|---:|---:|\n")
	for _, c := range rep.Concentration {
		p.Fprintf(&b, "| %s | %d | %d | %.0f |\n", c.City, c.Stores, c.Chains, c.HHI)
	}
	b.WriteString("\n")

	b.WriteString("## Competitive Landscape\n\n")
	p.Fprintf(&b, "- **Monopoly Markets**: %d cities served by a single chain\n", rep.Monopoly)
	p.Fprintf(&b, "- **Competitive Markets**: %d cities with 3+ chains\n", rep.Competitive)
	if mc := rep.MostCompetitive; mc != nil {
		p.Fprintf(&b, "- **Most Competitive**: %s (%d chains)\n", mc.City, mc.Chains)
	}
	b.WriteString("\n")

	if len(rep.Saturation) > 0 {
		b.WriteString("## Market Saturation\n\n")
		b.WriteString("| City | Stores | Population (k) | Stores per 10k |\n|---|---:|---:|---:|\n")
		for _, s := range rep.Saturation {
			p.Fprintf(&b, "| %s | %d | %d | %.2f |\n", s.City, s.Stores, s.PopulationK, s.Per10K)
		}
		b.WriteString("\n")
	}

	if len(rep.Formats) > 0 {
		p.Fprintf(&b, "## %s Formats\n\n", FormatChain)
		b.WriteString("| Format | Stores | Share |\n|---|---:|---:|\n")
		for _, f := range rep.Formats {
			p.Fprintf(&b, "| %s | %d | %.1f%% |\n", f.Format, f.Stores, f.Share)
		}
		b.WriteString("\n")
	}

	return b.Bytes()
}

// Write renders the report to w.
func Write(w io.Writer, rep Report) error {
	if _, err := w.Write(Markdown(rep)); err != nil {
		return fmt.Errorf("report: write markdown: %w", err)
	}
	return nil
}
