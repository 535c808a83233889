package repair

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// CatalogConfig holds the candidate-window sizes. ActionGenerator.Config
// carries them and NewActionGenerator sets DefaultCatalogConfig; config.go
// does not read them from the config file or the environment.
type CatalogConfig struct {
	NLatest int
	NWithin int
	NAround int
}

// DefaultCatalogConfig returns the standard candidate-window sizes:
// N_latest=3, N_within=2, N_around=2.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{NLatest: 3, NWithin: 2, NAround: 2}
}

// VersionCatalog enumerates the versions known for a package. It is a
// read-only, side-effect-free capability the core borrows for the
// duration of a Solve call; the package index behind it is an external
// collaborator.
type VersionCatalog interface {
	Versions(name string) ([]string, error)
}

// CandidateSource is an optional richer method a VersionCatalog can
// implement directly, bypassing the core's default candidates() atop
// Versions().
type CandidateSource interface {
	Candidates(name string, currentReq *Requirement, hint string, cfg CatalogConfig) ([]string, error)
}

// Candidates returns the union of up to four candidate-version sources,
// newest first. currentReq and hint may be nil/empty.
func Candidates(cat VersionCatalog, name string, currentReq *Requirement, hint string, cfg CatalogConfig) ([]string, error) {
	if cs, ok := cat.(CandidateSource); ok {
		return cs.Candidates(name, currentReq, hint, cfg)
	}

	raw, err := cat.Versions(name)
	if err != nil {
		return nil, errors.Wrapf(err, "querying versions for %q", name)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	parsed := make([]Version, 0, len(raw))
	byStr := make(map[string]Version, len(raw))
	for _, s := range raw {
		v, err := ParseVersion(s)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
		byStr[v.raw] = v
	}
	if len(parsed) == 0 {
		// Unparseable catalog: fall back to a lexicographic subset so the
		// search can still make forward progress.
		sorted := append([]string(nil), raw...)
		sort.Sort(sort.Reverse(sort.StringSlice(sorted)))
		if n := cfg.NLatest + 2*cfg.NAround; n < len(sorted) {
			sorted = sorted[:n]
		}
		return sorted, nil
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Compare(parsed[j]) > 0 })

	picked := make(map[string]struct{})
	var order []string
	take := func(v Version) {
		s := v.raw
		if _, ok := picked[s]; ok {
			return
		}
		picked[s] = struct{}{}
		order = append(order, s)
	}

	// 1. Hint-satisfying.
	if hint != "" {
		hintSet, err := ParseSpecifierSet(hint)
		if err == nil {
			n := 0
			for _, v := range parsed {
				if n >= cfg.NLatest {
					break
				}
				if hintSet.Matches(v) {
					take(v)
					n++
				}
			}
		}
	}

	// 2. Latest overall.
	for i := 0; i < cfg.NLatest && i < len(parsed); i++ {
		take(parsed[i])
	}

	// 3. Within current spec.
	var currentSpec SpecifierSet
	haveCurrentSpec := false
	if currentReq != nil && !currentReq.SpecifierSet().Empty() {
		currentSpec = currentReq.SpecifierSet()
		haveCurrentSpec = true
	}
	if haveCurrentSpec {
		n := 0
		first := true
		for _, v := range parsed {
			if !currentSpec.Matches(v) {
				continue
			}
			if first {
				take(v) // the single newest satisfying it, always.
				first = false
			}
			if n < cfg.NWithin {
				take(v)
				n++
			}
		}
	}

	// 4. Neighbours.
	if currentReq != nil {
		if exact, ok := currentReq.ExactVersion(); ok {
			idx := -1
			for i, v := range parsed {
				if v.Equal(exact) {
					idx = i
					break
				}
			}
			if idx >= 0 {
				for i := 1; i <= cfg.NAround; i++ {
					if idx-i >= 0 {
						take(parsed[idx-i]) // newer (closer to index 0)
					}
					if idx+i < len(parsed) {
						take(parsed[idx+i]) // older
					}
				}
			}
		}
	}

	result := make([]Version, 0, len(order))
	for _, s := range order {
		result = append(result, byStr[s])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Compare(result[j]) > 0 })

	out := make([]string, len(result))
	for i, v := range result {
		out[i] = v.raw
	}
	return out, nil
}

// StaticCatalog serves versions from an in-memory table. It is the
// catalog used by tests and by callers who pre-fetch version lists
// themselves rather than querying a live index.
type StaticCatalog struct {
	Table map[string][]string
}

// NewStaticCatalog builds a StaticCatalog from table. A nil table is
// treated as empty.
func NewStaticCatalog(table map[string][]string) *StaticCatalog {
	if table == nil {
		table = map[string][]string{}
	}
	return &StaticCatalog{Table: table}
}

func (c *StaticCatalog) Versions(name string) ([]string, error) {
	return c.Table[name], nil
}

// HTTPCatalog queries a package index over HTTP: GET baseURL/versions/NAME
// returns a JSON array of version strings. It satisfies VersionCatalog;
// candidate derivation is left to the core's default Candidates.
type HTTPCatalog struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPCatalog builds an HTTPCatalog with a bounded per-request timeout:
// every blocking external call carries its own timeout rather than relying
// on a caller-supplied context deadline.
func NewHTTPCatalog(baseURL string, timeout time.Duration) *HTTPCatalog {
	return &HTTPCatalog{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPCatalog) Versions(name string) ([]string, error) {
	url := fmt.Sprintf("%s/versions/%s", c.BaseURL, name)
	resp, err := c.Client.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching versions for %q", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("version catalog returned %s for %q", resp.Status, name)
	}

	var versions []string
	if err := json.NewDecoder(resp.Body).Decode(&versions); err != nil {
		return nil, errors.Wrapf(err, "decoding version list for %q", name)
	}
	return versions, nil
}
