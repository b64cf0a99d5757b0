// Package seniority ranks contacts by how senior their job title is and
// holds the title filter used when searching a company's people.
package seniority

import (
	_ "embed"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/equitle/enrichment-cli/internal/model"
)

//go:embed titles.yaml
var defaultTitles []byte

// Config is the YAML title configuration.
type Config struct {
	SearchTitles []string     `yaml:"search_titles"`
	DefaultScore int          `yaml:"default_score"`
	Ranks        []RankConfig `yaml:"ranks"`
}

// RankConfig scores titles containing any Match term and no Exclude term.
type RankConfig struct {
	Score   int      `yaml:"score"`
	Match   []string `yaml:"match"`
	Exclude []string `yaml:"exclude"`
}

type rule struct {
	score   int
	match   *regexp.Regexp
	exclude *regexp.Regexp
}

// Ranker scores job titles. It is immutable and safe for concurrent use.
type Ranker struct {
	searchTitles []string
	defaultScore int
	rules        []rule
}

// Default returns the Ranker built from the embedded title configuration.
func Default() *Ranker {
	r, err := Parse(defaultTitles)
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads a title configuration from a YAML file. An empty path returns
// the embedded default.
func Load(path string) (*Ranker, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seniority: read titles %s", path)
	}
	return Parse(data)
}

// Parse builds a Ranker from YAML.
func Parse(data []byte) (*Ranker, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrap(err, "seniority: parse titles")
	}
	if len(cfg.SearchTitles) == 0 {
		return nil, eris.New("seniority: search_titles must not be empty")
	}

	r := &Ranker{
		searchTitles: cfg.SearchTitles,
		defaultScore: cfg.DefaultScore,
		rules:        make([]rule, 0, len(cfg.Ranks)),
	}
	for i, rc := range cfg.Ranks {
		if len(rc.Match) == 0 {
			return nil, eris.Errorf("seniority: rank %d has no match terms", i)
		}
		r.rules = append(r.rules, rule{
			score:   rc.Score,
			match:   wordsPattern(rc.Match),
			exclude: wordsPattern(rc.Exclude),
		})
	}
	return r, nil
}

// wordsPattern compiles terms into a case-insensitive whole-word matcher.
// Returns nil for no terms.
func wordsPattern(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(strings.TrimSpace(t))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// SearchTitles returns the title filter for contact searches.
func (r *Ranker) SearchTitles() []string {
	return slices.Clone(r.searchTitles)
}

// Score returns the seniority of a job title. Higher is more senior; an
// empty title scores 0.
func (r *Ranker) Score(title string) int {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0
	}
	for _, ru := range r.rules {
		if !ru.match.MatchString(title) {
			continue
		}
		if ru.exclude != nil && ru.exclude.MatchString(title) {
			continue
		}
		return ru.score
	}
	return r.defaultScore
}

// Rank returns a copy of contacts ordered from most to least senior.
// Contacts with equal scores keep their original order.
func (r *Ranker) Rank(contacts []model.ContactData) []model.ContactData {
	ranked := slices.Clone(contacts)
	slices.SortStableFunc(ranked, func(a, b model.ContactData) int {
		return r.Score(b.Title) - r.Score(a.Title)
	})
	return ranked
}
