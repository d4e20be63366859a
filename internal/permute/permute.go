// Package permute generates candidate subdomains by mutating the labels of a
// known name with alteration words.
package permute

import (
	"iter"
	"strconv"
	"strings"

	"github.com/vulnverified/altsweep/internal/domain"
)

// Generator chains the mutation strategies for one name at a time.
type Generator struct {
	Words        []string
	NumberSuffix bool
}

// Permute yields every candidate for n. Strategies run independently and may
// yield the same candidate more than once.
func (g *Generator) Permute(n domain.Name) iter.Seq[string] {
	seqs := []iter.Seq[string]{
		IndexInsertion(n, g.Words),
		DashFusion(n, g.Words),
	}
	if g.NumberSuffix {
		seqs = append(seqs, NumberSuffix(n))
	}
	seqs = append(seqs, Concatenation(n, g.Words))

	return func(yield func(string) bool) {
		for _, seq := range seqs {
			for c := range seq {
				if !yield(c) {
					return
				}
			}
		}
	}
}

// IndexInsertion inserts each word as a new label at every position,
// including past the last label.
//
// Insertions before an existing label are skipped when the subdomain would end
// in a bare dot. The trailing append is skipped when the first label is empty.
func IndexInsertion(n domain.Name, words []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, word := range words {
			word = strings.TrimSpace(word)
			for i := range n.Labels {
				labels := n.Labels.Insert(i, word)
				if strings.HasSuffix(labels.String(), ".") {
					continue
				}
				if !yield(n.With(labels).String()) {
					return
				}
			}

			labels := n.Labels.Insert(len(n.Labels), word)
			if labels[0] == "" {
				continue
			}
			if !yield(n.With(labels).String()) {
				return
			}
		}
	}
}

// DashFusion joins each word onto every label with a dash, in both orders.
func DashFusion(n domain.Name, words []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, word := range words {
			word = strings.TrimSpace(word)
			for i, label := range n.Labels {
				after := n.Labels.Substitute(i, label+"-"+word)
				if sub := after.String(); after[0] != "" && !strings.HasPrefix(sub, "-") {
					if !yield(n.With(after).String()) {
						return
					}
				}

				before := n.Labels.Substitute(i, word+"-"+label)
				if !strings.HasSuffix(before.String(), "-") {
					if !yield(n.With(before).String()) {
						return
					}
				}
			}
		}
	}
}

// Concatenation joins each word onto every label without a separator, in both
// orders.
func Concatenation(n domain.Name, words []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, word := range words {
			word = strings.TrimSpace(word)
			for i, label := range n.Labels {
				if !yield(n.With(n.Labels.Substitute(i, label+word)).String()) {
					return
				}
				if !yield(n.With(n.Labels.Substitute(i, word+label)).String()) {
					return
				}
			}
		}
	}
}

// NumberSuffix appends the digits 0-9 to every label, with and without a dash.
func NumberSuffix(n domain.Name) iter.Seq[string] {
	return func(yield func(string) bool) {
		for d := 0; d < 10; d++ {
			digit := strconv.Itoa(d)
			for i, label := range n.Labels {
				if !yield(n.With(n.Labels.Substitute(i, label+"-"+digit)).String()) {
					return
				}
				if !yield(n.With(n.Labels.Substitute(i, label+digit)).String()) {
					return
				}
			}
		}
	}
}
