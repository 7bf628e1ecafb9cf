// Package aggregate groups flat record lists into per-key summaries.
package aggregate

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unknown is the bucket key for records without a grouping value.
const Unknown = "unknown"

// KeyFunc extracts the grouping key of a record.
type KeyFunc[T any] func(T) string

// Predicate reports whether a record counts as a success.
type Predicate[T any] func(T) bool

// ProfitFunc returns the signed profit of a record, or nil when absent.
type ProfitFunc[T any] func(T) *decimal.Decimal

// Bucket accumulates the records sharing a key.
type Bucket struct {
	Key          string
	Count        int
	SuccessCount int
	ProfitSum    decimal.Decimal
}

// Summary is a finalised bucket ready for display.
type Summary struct {
	Key          string           `json:"key"`
	Count        int              `json:"count"`
	SuccessCount int              `json:"success_count"`
	WinRate      *decimal.Decimal `json:"win_rate,omitempty"`
	Profit       string           `json:"profit"`
	ProfitValue  decimal.Decimal  `json:"-"`
}

// Aggregate groups records in a single pass. Keys are used as returned by key;
// only blank keys are replaced by Unknown. Every record lands in exactly one
// bucket, so the bucket counts always add up to len(records).
func Aggregate[T any](records []T, key KeyFunc[T], success Predicate[T], profit ProfitFunc[T]) map[string]*Bucket {
	buckets := make(map[string]*Bucket)
	for _, rec := range records {
		k := Unknown
		if key != nil {
			if raw := key(rec); strings.TrimSpace(raw) != "" {
				k = raw
			}
		}

		b, ok := buckets[k]
		if !ok {
			b = &Bucket{Key: k}
			buckets[k] = b
		}

		b.Count++
		if success != nil && success(rec) {
			b.SuccessCount++
		}
		if profit != nil {
			if p := profit(rec); p != nil {
				b.ProfitSum = b.ProfitSum.Add(*p)
			}
		}
	}
	return buckets
}

// Finalize converts buckets into summaries, rounding profit to places. The
// result is ordered by key; use SortByProfit or SortByCount for ranking.
func Finalize(buckets map[string]*Bucket, places int32) []Summary {
	out := make([]Summary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.Summary(places))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Summary finalises a single bucket.
func (b *Bucket) Summary(places int32) Summary {
	s := Summary{
		Key:          b.Key,
		Count:        b.Count,
		SuccessCount: b.SuccessCount,
		Profit:       b.ProfitSum.StringFixed(places),
		ProfitValue:  b.ProfitSum,
	}
	if b.Count > 0 {
		rate := decimal.NewFromInt(int64(b.SuccessCount)).Div(decimal.NewFromInt(int64(b.Count)))
		s.WinRate = &rate
	}
	return s
}

// SortByProfit orders summaries by descending profit, then key.
func SortByProfit(summaries []Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if c := summaries[i].ProfitValue.Cmp(summaries[j].ProfitValue); c != 0 {
			return c > 0
		}
		return summaries[i].Key < summaries[j].Key
	})
}

// SortByCount orders summaries by descending count, then key.
func SortByCount(summaries []Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Key < summaries[j].Key
	})
}

// TotalCount sums bucket counts.
func TotalCount(buckets map[string]*Bucket) int {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	return total
}

// NormalizeKey lowercases, strips accents and collapses whitespace. Blank
// input yields "".
func NormalizeKey(raw string) string {
	// Chained transformers carry state, so each call builds its own.
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, strings.ToLower(raw))
	if err != nil {
		folded = strings.ToLower(raw)
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Normalized wraps key so spellings that fold to the same NormalizeKey value
// share a bucket. The bucket is labelled with the first spelling seen, trimmed.
// The returned func is stateful; build one per aggregation.
func Normalized[T any](key KeyFunc[T]) KeyFunc[T] {
	labels := make(map[string]string)
	return func(rec T) string {
		raw := key(rec)
		folded := NormalizeKey(raw)
		if folded == "" {
			return ""
		}
		label, ok := labels[folded]
		if !ok {
			label = strings.Join(strings.Fields(raw), " ")
			labels[folded] = label
		}
		return label
	}
}
