package nonnative

import (
	"fmt"
	"math/big"
)

// recompose takes the limbs in inputs and combines them into res. It errors
// if inputs is zero-length or if the result is uninitialized.
//
// The following holds
//
//	res = Σ_{i=0}^{len(inputs)} inputs[i] * 2^{nbBits * i}
func recompose(inputs []*big.Int, nbBits uint, res *big.Int) error {
	if len(inputs) == 0 {
		return fmt.Errorf("zero length slice input")
	}
	if res == nil {
		return fmt.Errorf("result not initialized")
	}
	res.SetUint64(0)
	for i := range inputs {
		res.Lsh(res, nbBits)
		res.Add(res, inputs[len(inputs)-i-1])
	}
	return nil
}

// decompose decomposes the input into res as integers of width nbBits. It
// errors if the decomposition does not fit into res or if res is
// uninitialized.
//
// The following holds
//
//	input = Σ_{i=0}^{len(res)} res[i] * 2^{nbBits * i}
func decompose(input *big.Int, nbBits uint, res []*big.Int) error {
	if input.BitLen() > len(res)*int(nbBits) {
		return fmt.Errorf("decomposed integer does not fit into res")
	}
	for _, r := range res {
		if r == nil {
			return fmt.Errorf("result slice element uninitialized")
		}
	}
	base := new(big.Int).Lsh(big.NewInt(1), nbBits)
	tmp := new(big.Int).Set(input)
	for i := 0; i < len(res); i++ {
		res[i].Mod(tmp, base)
		tmp.Rsh(tmp, nbBits)
	}
	return nil
}

// subPadding returns k*p for some k, decomposed so that every limb is at
// least 2^(overflow+nbBits).
//
// Denote the padding d=(d[0], ..., d[nbLimbs]). When computing the difference
// of a and b by limb-wise subtraction
//
//	s = a - b = (a[0]-b[0], ..., a[nbLimbs]-b[nbLimbs])
//
// it may happen that some limbs underflow the native field and the limbs of s
// do not represent the actual difference a-b. However, when adding the
// padding d to every limb i.e.
//
//	s = a + d - b = (a[0]+d[0]-b[0], ..., a[nbLimbs]+d[nbLimbs]-b[nbLimbs])
//
// then no such underflow happens and s = a-b (mod p) as the padding is a
// multiple of p.
func subPadding(params *Params, overflow uint, nbLimbs uint) []*big.Int {
	padLimbs := make([]*big.Int, nbLimbs)
	for i := range padLimbs {
		padLimbs[i] = new(big.Int).Lsh(big.NewInt(1), overflow+params.nbBits)
	}
	pad := new(big.Int)
	if err := recompose(padLimbs, params.nbBits, pad); err != nil {
		panic(fmt.Sprintf("recompose: %v", err))
	}
	pad.Mod(pad, params.p)
	pad.Sub(params.p, pad)
	ret := make([]*big.Int, nbLimbs)
	for i := range ret {
		ret[i] = new(big.Int)
	}
	if err := decompose(pad, params.nbBits, ret); err != nil {
		panic(fmt.Sprintf("decompose: %v", err))
	}
	for i := range ret {
		ret[i].Add(ret[i], padLimbs[i])
	}
	return ret
}
