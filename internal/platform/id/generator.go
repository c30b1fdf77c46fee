package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// OrderGenerator creates globally unique gateway order ids of the form
// PREFIX-<unix millis>-<6 uppercase base36>. The random suffix keeps ids from
// colliding within one millisecond; the timestamp keeps them sortable and
// human-traceable.
type OrderGenerator interface {
	NewOrderID() (string, error)
}

type prefixedOrderGenerator struct {
	prefix string
	now    func() time.Time
}

func NewOrderGenerator(prefix string) OrderGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "MABAR"
	}

	return &prefixedOrderGenerator{prefix: prefix, now: time.Now}
}

const orderSuffixLength = 6

func (g *prefixedOrderGenerator) NewOrderID() (string, error) {
	suffix, err := randomBase36(orderSuffixLength)
	if err != nil {
		return "", fmt.Errorf("generate order suffix: %w", err)
	}

	millis := strconv.FormatInt(g.now().UnixMilli(), 10)
	return g.prefix + "-" + millis + "-" + suffix, nil
}

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomBase36(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}

	return string(out), nil
}
