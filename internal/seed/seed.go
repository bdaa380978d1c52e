// Package seed loads YAML fixtures into a record store.
//
// A fixture file maps collection names to record lists. String values
// of the forms below are resolved against the seeding time so demo data
// stays current:
//
//	@now, @now+Nd, @now-Nd     timestamp in domain.TimeLayout
//	@date, @date+Nd, @date-Nd  date in domain.DateLayout
//	@dob:YYYY                  today's month and day in year YYYY
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/store"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// Fixtures holds records per collection.
type Fixtures map[string][]doc.Record

var (
	offsetToken = regexp.MustCompile(`^@(now|date)(?:([+-]\d+)d)?$`)
	dobToken    = regexp.MustCompile(`^@dob:(\d{4})$`)
)

// Default returns the embedded demo fixtures.
func Default() (Fixtures, error) {
	return Parse(defaultFixtures)
}

// Load reads fixtures from a YAML file.
func Load(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML fixtures. Every collection must be a known one.
func Parse(data []byte) (Fixtures, error) {
	var raw map[string][]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return FromMap(raw)
}

// FromMap builds fixtures from decoded data, normalizing every value.
func FromMap(raw map[string][]map[string]any) (Fixtures, error) {
	f := make(Fixtures, len(raw))
	for collection, recs := range raw {
		if !slices.Contains(domain.AllCollections, collection) {
			return nil, fmt.Errorf("parse fixtures: unknown collection %q", collection)
		}
		out := make([]doc.Record, len(recs))
		for i, rec := range recs {
			out[i] = doc.NormalizeRecord(rec)
		}
		f[collection] = out
	}
	return f, nil
}

// Merge returns f with the records of other appended per collection.
func (f Fixtures) Merge(other Fixtures) Fixtures {
	out := make(Fixtures, len(f)+len(other))
	for collection, recs := range f {
		out[collection] = slices.Clone(recs)
	}
	for collection, recs := range other {
		out[collection] = append(out[collection], recs...)
	}
	return out
}

// Resolve returns a copy of f with every relative value expanded
// against now.
func (f Fixtures) Resolve(now time.Time) (Fixtures, error) {
	out := make(Fixtures, len(f))
	for collection, recs := range f {
		resolved := make([]doc.Record, len(recs))
		for i, rec := range recs {
			r := make(doc.Record, len(rec))
			for k, v := range rec {
				rv, err := resolveValue(v, now)
				if err != nil {
					return nil, fmt.Errorf("%s[%d].%s: %w", collection, i, k, err)
				}
				r[k] = rv
			}
			resolved[i] = r
		}
		out[collection] = resolved
	}
	return out, nil
}

func resolveValue(v any, now time.Time) (any, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "@") {
		return v, nil
	}

	if m := offsetToken.FindStringSubmatch(s); m != nil {
		t := now
		if m[2] != "" {
			days, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("bad offset in %q: %w", s, err)
			}
			t = t.AddDate(0, 0, days)
		}
		if m[1] == "date" {
			return t.Format(domain.DateLayout), nil
		}
		return t.Format(domain.TimeLayout), nil
	}
	if m := dobToken.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%02d-%02d", m[1], int(now.Month()), now.Day()), nil
	}
	return nil, fmt.Errorf("unknown relative value %q", s)
}

// Apply resolves f against now and inserts it into gw. Collections are
// cleared first when gw supports it, so seeding is repeatable. It
// returns the number of records inserted per collection.
func Apply(ctx context.Context, gw store.Gateway, f Fixtures, now time.Time, logger *slog.Logger) (map[string]int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	resolved, err := f.Resolve(now)
	if err != nil {
		return nil, fmt.Errorf("resolve fixtures: %w", err)
	}

	clearer, canClear := gw.(store.Clearer)
	counts := make(map[string]int, len(resolved))
	for _, collection := range domain.AllCollections {
		recs, ok := resolved[collection]
		if !ok {
			continue
		}
		if canClear {
			if err := clearer.Clear(ctx, collection); err != nil {
				return counts, fmt.Errorf("seed %s: %w", collection, err)
			}
		}
		for _, rec := range recs {
			if _, err := gw.Insert(ctx, collection, rec); err != nil {
				return counts, fmt.Errorf("seed %s: %w", collection, err)
			}
		}
		counts[collection] = len(recs)
		logger.Debug("seeded collection", "collection", collection, "records", len(recs))
	}
	return counts, nil
}
