// Package report computes market statistics over the labeled store table
// and renders them as a markdown insights report.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/store-locator-etl/internal/city"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

// ConcentrationCities is how many of the largest cities get an HHI score.
const ConcentrationCities = 15

// hhiScale maps squared shares onto the conventional 0..10000 range.
const hhiScale = 10000

// FormatChain is the chain whose type column is broken down by format.
const FormatChain = "BRAVO"

// Populations holds reference city populations in thousands.
var Populations = map[string]int{
	"Bakı":       2300,
	"Gəncə":      335,
	"Sumqayıt":   350,
	"Mingəçevir": 100,
	"Xırdalan":   110,
	"Şəki":       67,
	"Naxçıvan":   90,
	"Qazax":      90,
	"Zaqatala":   65,
	"Şirvan":     85,
	"Lənkəran":   85,
	"Yevlax":     65,
}

// ChainShare is one chain's slice of the market.
type ChainShare struct {
	Chain  string  `json:"chain"`
	Stores int     `json:"stores"`
	Share  float64 `json:"share"`
}

// CityStat summarizes the stores of one city.
type CityStat struct {
	City    string         `json:"city"`
	Stores  int            `json:"stores"`
	Chains  int            `json:"chains"`
	HHI     float64        `json:"hhi"`
	ByChain map[string]int `json:"by_chain"`
}

// Saturation is store density relative to population.
type Saturation struct {
	City        string  `json:"city"`
	Stores      int     `json:"stores"`
	PopulationK int     `json:"population_k"`
	Per10K      float64 `json:"stores_per_10k"`
}

// FormatCount is the number of stores of one store format.
type FormatCount struct {
	Format string  `json:"format"`
	Stores int     `json:"stores"`
	Share  float64 `json:"share"`
}

// Report is the full set of market statistics for one table.
type Report struct {
	GeneratedAt     time.Time     `json:"generated_at"`
	Total           int           `json:"total"`
	Located         int           `json:"located"`
	Chains          []ChainShare  `json:"chains"`
	Cities          []CityStat    `json:"cities"`
	Concentration   []CityStat    `json:"concentration"`
	Monopoly        int           `json:"monopoly_cities"`
	Competitive     int           `json:"competitive_cities"`
	MostCompetitive *CityStat     `json:"most_competitive,omitempty"`
	Saturation      []Saturation  `json:"saturation"`
	Formats         []FormatCount `json:"formats"`
}

// Leader returns the chain with the most stores.
func (r Report) Leader() (ChainShare, bool) {
	if len(r.Chains) == 0 {
		return ChainShare{}, false
	}
	return r.Chains[0], true
}

// Analyze computes the report for a set of labeled records. Records labeled
// Unknown or Regional count toward chain totals but not toward any city.
func Analyze(records []domain.StoreRecord) Report {
	rep := Report{GeneratedAt: domain.Now(), Total: len(records)}

	chainCounts := map[string]int{}
	cities := map[string]*CityStat{}
	formats := map[string]int{}
	bravo := 0

	for _, r := range records {
		chainCounts[r.Chain]++
		if r.HasCoordinate() {
			rep.Located++
		}
		if strings.EqualFold(r.Chain, FormatChain) {
			bravo++
			if t := strings.TrimSpace(r.StoreType); t != "" {
				formats[t]++
			}
		}
		if !ranked(r.City) {
			continue
		}
		cs, ok := cities[r.City]
		if !ok {
			cs = &CityStat{City: r.City, ByChain: map[string]int{}}
			cities[r.City] = cs
		}
		cs.Stores++
		cs.ByChain[r.Chain]++
	}

	for chain, n := range chainCounts {
		rep.Chains = append(rep.Chains, ChainShare{Chain: chain, Stores: n, Share: percent(n, rep.Total)})
	}
	sort.Slice(rep.Chains, func(i, j int) bool {
		if rep.Chains[i].Stores != rep.Chains[j].Stores {
			return rep.Chains[i].Stores > rep.Chains[j].Stores
		}
		return rep.Chains[i].Chain < rep.Chains[j].Chain
	})

	for _, cs := range cities {
		cs.Chains = len(cs.ByChain)
		cs.HHI = hhi(cs.ByChain, cs.Stores)
		switch {
		case cs.Chains == 1:
			rep.Monopoly++
		case cs.Chains >= 3:
			rep.Competitive++
		}
		rep.Cities = append(rep.Cities, *cs)
	}
	sort.Slice(rep.Cities, func(i, j int) bool {
		if rep.Cities[i].Stores != rep.Cities[j].Stores {
			return rep.Cities[i].Stores > rep.Cities[j].Stores
		}
		return rep.Cities[i].City < rep.Cities[j].City
	})

	top := rep.Cities
	if len(top) > ConcentrationCities {
		top = top[:ConcentrationCities]
	}
	rep.Concentration = append([]CityStat(nil), top...)
	sort.SliceStable(rep.Concentration, func(i, j int) bool {
		return rep.Concentration[i].HHI > rep.Concentration[j].HHI
	})

	for i := range rep.Cities {
		c := rep.Cities[i]
		if rep.MostCompetitive == nil || c.Chains > rep.MostCompetitive.Chains {
			rep.MostCompetitive = &c
		}
		if pop, ok := Populations[c.City]; ok {
			rep.Saturation = append(rep.Saturation, Saturation{
				City:        c.City,
				Stores:      c.Stores,
				PopulationK: pop,
				Per10K:      float64(c.Stores) / float64(pop) * 10,
			})
		}
	}
	sort.SliceStable(rep.Saturation, func(i, j int) bool {
		return rep.Saturation[i].Per10K > rep.Saturation[j].Per10K
	})

	for f, n := range formats {
		rep.Formats = append(rep.Formats, FormatCount{Format: f, Stores: n, Share: percent(n, bravo)})
	}
	sort.Slice(rep.Formats, func(i, j int) bool {
		if rep.Formats[i].Stores != rep.Formats[j].Stores {
			return rep.Formats[i].Stores > rep.Formats[j].Stores
		}
		return rep.Formats[i].Format < rep.Formats[j].Format
	})

	return rep
}

func ranked(label string) bool {
	return label != "" && label != city.Unknown && label != city.Regional
}

func hhi(byChain map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	var sum float64
	for _, n := range byChain {
		s := float64(n) / float64(total)
		sum += s * s
	}
	return sum * hhiScale
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
