package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Префиксы отображаемых идентификаторов
const (
	ProjectPrefix     = "PROJ"
	RequirementPrefix = "REQ"
	RfqPrefix         = "RFQ"
	QuotePrefix       = "QUOT"
)

// New возвращает идентификатор вида PREFIX_XXX_NNNN:
// XXX три заглавных hex-символа, NNNN число 1000..9999.
func New(prefix string) string {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("idgen: crypto/rand failed: %v", err))
	}
	tag := strings.ToUpper(hex.EncodeToString(b[:]))[:3]

	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		panic(fmt.Sprintf("idgen: crypto/rand failed: %v", err))
	}
	return fmt.Sprintf("%s_%s_%d", prefix, tag, 1000+n.Int64())
}

func Project() string     { return New(ProjectPrefix) }
func Requirement() string { return New(RequirementPrefix) }
func Rfq() string         { return New(RfqPrefix) }
func Quote() string       { return New(QuotePrefix) }
