package nonnative

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestComposition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	bound := new(big.Int).Lsh(big.NewInt(1), 248)
	for _, nbBits := range []uint{8, 16, 32, 64} {
		nbBits := nbBits
		properties.Property("recompose(decompose(x)) == x", prop.ForAll(
			func(x *big.Int) bool {
				nbLimbs := (uint(x.BitLen()) + nbBits - 1) / nbBits
				if nbLimbs == 0 {
					nbLimbs = 1
				}
				limbs := make([]*big.Int, nbLimbs)
				for i := range limbs {
					limbs[i] = new(big.Int)
				}
				if err := decompose(x, nbBits, limbs); err != nil {
					return false
				}
				limbBound := new(big.Int).Lsh(big.NewInt(1), nbBits)
				for _, l := range limbs {
					if l.Sign() < 0 || l.Cmp(limbBound) >= 0 {
						return false
					}
				}
				back := new(big.Int)
				if err := recompose(limbs, nbBits, back); err != nil {
					return false
				}
				return back.Cmp(x) == 0
			},
			genValue(bound),
		))
	}
	properties.TestingRun(t)
}

func TestDecomposeBounds(t *testing.T) {
	assert := require.New(t)

	res := []*big.Int{new(big.Int), new(big.Int)}
	// 17 bits do not fit two 8-bit limbs
	assert.Error(decompose(new(big.Int).Lsh(big.NewInt(1), 16), 8, res))
	assert.NoError(decompose(big.NewInt(0xffff), 8, res))

	assert.Error(recompose(nil, 8, new(big.Int)))
	assert.Error(recompose(res, 8, nil))
}

func TestSubPadding(t *testing.T) {
	assert := require.New(t)

	m61 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 61), big.NewInt(1))
	params, err := NewParams(32, m61)
	assert.NoError(err)

	for overflow := uint(1); overflow < 12; overflow++ {
		for nbLimbs := params.nbLimbs; nbLimbs < params.nbLimbs+3; nbLimbs++ {
			pad := subPadding(params, overflow, nbLimbs)
			assert.Len(pad, int(nbLimbs))

			// every limb dominates the worst-case subtrahend limb
			minLimb := new(big.Int).Lsh(big.NewInt(1), overflow+params.nbBits)
			for i, l := range pad {
				assert.True(l.Cmp(minLimb) >= 0, "limb %d too small for overflow %d", i, overflow)
			}

			// the padding is a multiple of the modulus
			total := new(big.Int)
			assert.NoError(recompose(pad, params.nbBits, total))
			assert.Zero(new(big.Int).Mod(total, params.p).Sign(), "padding not a multiple of p at overflow %d", overflow)
		}
	}
}
