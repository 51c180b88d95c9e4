package searcher

import (
	"sort"

	"github.com/graphsolvers/homsearch/internal/bitset"
)

// cheapAllDifferent prunes the non-fixed domains with a Hall-set
// approximation of all-different: processing domains smallest first,
// it accumulates their union; whenever k domains cover exactly k
// values those values are a Hall set and are removed from every
// later domain, and fewer than k values over k domains is a
// violation. Sound but deliberately weaker than a full matching.
func cheapAllDifferent(targetSize int, domains Domains) bool {
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].count != domains[j].count {
			return domains[i].count < domains[j].count
		}
		return domains[i].v < domains[j].v
	})

	domainsSoFar := bitset.New(targetSize)
	hall := bitset.New(targetSize)
	neighboursSoFar := 0

	for i := range domains {
		d := &domains[i]
		if d.fixed {
			continue
		}

		d.values.AndNot(hall)
		d.count = d.values.OnesCount()
		if d.count == 0 {
			return false
		}

		domainsSoFar.Or(d.values)
		neighboursSoFar++

		covered := domainsSoFar.OnesCount()
		if covered < neighboursSoFar {
			return false
		}
		if covered == neighboursSoFar {
			hall.Or(domainsSoFar)
			domainsSoFar.ClearAll()
			neighboursSoFar = 0
		}
	}

	return true
}
