// Package tokenid builds identifiers for tickets and cards that are about to
// be minted. Ids are only made unlikely to collide; the NFT contract rejects
// a mint whose token id already exists.
package tokenid

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	suffixLen = 5
	alphabet  = "abcdefghijklmnopqrstuvwxyz"
)

// IDGenerator produces a new token id for the given prefix.
type IDGenerator interface {
	Generate(prefix string) (string, error)
}

// GenerationError is returned when the random source cannot be read.
type GenerationError struct {
	Prefix string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate token id %q: %v", e.Prefix, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type Option func(*Generator)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRandom replaces the random source (crypto/rand by default).
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

// Generator forms ids as prefix_<seconds>_<fraction>_<letters>, e.g.
// movie_ticket_1663322234_123456_qzkab.
type Generator struct {
	now  func() time.Time
	rand io.Reader
}

func New(opts ...Option) *Generator {
	g := &Generator{
		now:  time.Now,
		rand: rand.Reader,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Generator) Generate(prefix string) (string, error) {
	suffix, err := g.letters()
	if err != nil {
		return "", &GenerationError{Prefix: prefix, Err: err}
	}

	ts := strings.ReplaceAll(Timestamp(g.now()), ".", "_")

	var b strings.Builder
	b.Grow(len(prefix) + len(ts) + suffixLen + 2)
	b.WriteString(prefix)
	b.WriteByte('_')
	b.WriteString(ts)
	b.WriteByte('_')
	b.WriteString(suffix)

	return b.String(), nil
}

// letters draws suffixLen distinct letters with a partial Fisher-Yates shuffle.
func (g *Generator) letters() (string, error) {
	pool := []byte(alphabet)

	for i := 0; i < suffixLen; i++ {
		n, err := rand.Int(g.rand, big.NewInt(int64(len(pool)-i)))
		if err != nil {
			return "", err
		}

		j := i + int(n.Int64())
		pool[i], pool[j] = pool[j], pool[i]
	}

	return string(pool[:suffixLen]), nil
}

// Timestamp renders t as fractional unix seconds in the shortest decimal
// form, always keeping a fractional part ("1663322234.0" for whole seconds).
func Timestamp(t time.Time) string {
	secs := float64(t.Unix()) + float64(t.Nanosecond())/1e9

	s := strconv.FormatFloat(secs, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}
