package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// Prior scale for the base growth rate and offset.
	baseParamScale  = 5.0
	noiseIterations = 5
	minNoiseVar     = 1e-6
)

// designMatrix builds the regression features for scaled times t:
// intercept, growth, one hinge per changepoint, then Fourier blocks.
func (md *Model) designMatrix(dates []time.Time, t []float64) *mat.Dense {
	n := len(t)
	p := md.numParams()
	x := mat.NewDense(n, p, nil)
	for i, ti := range t {
		x.Set(i, 0, 1)
		x.Set(i, 1, ti)
		col := 2
		for _, c := range md.changepoints {
			if ti > c {
				x.Set(i, col, ti-c)
			}
			col++
		}
		for _, s := range md.seasonalities {
			for _, f := range fourier(epochDays(dates[i]), s.Period, s.FourierOrder) {
				x.Set(i, col, f)
				col++
			}
		}
	}
	return x
}

func (md *Model) numParams() int {
	p := 2 + len(md.changepoints)
	for _, s := range md.seasonalities {
		p += 2 * s.FourierOrder
	}
	return p
}

// priorPrecision returns 1/scale² for every parameter.
func (md *Model) priorPrecision() []float64 {
	prec := make([]float64, 0, md.numParams())
	base := 1 / (baseParamScale * baseParamScale)
	prec = append(prec, base, base)
	tau := md.cfg.ChangepointPriorScale
	for range md.changepoints {
		prec = append(prec, 1/(tau*tau))
	}
	for _, s := range md.seasonalities {
		for i := 0; i < 2*s.FourierOrder; i++ {
			prec = append(prec, 1/(s.PriorScale*s.PriorScale))
		}
	}
	return prec
}

// solve computes the MAP coefficients, alternating between the ridge
// solution for a fixed noise variance and re-estimating that variance from
// the residuals.
func (md *Model) solve(dates []time.Time, t, y []float64) ([]float64, float64, error) {
	x := md.designMatrix(dates, t)
	yv := mat.NewVecDense(len(y), y)
	prec := md.priorPrecision()

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	noiseVar := stat.Variance(y, nil)
	if !(noiseVar > minNoiseVar) {
		noiseVar = minNoiseVar
	}

	var beta *mat.VecDense
	for iter := 0; iter < noiseIterations; iter++ {
		b, err := ridge(&xtx, &xty, prec, noiseVar)
		if err != nil {
			return nil, 0, err
		}
		beta = b

		var fitted mat.VecDense
		fitted.MulVec(x, beta)
		rss := 0.0
		for i := range y {
			r := y[i] - fitted.AtVec(i)
			rss += r * r
		}
		noiseVar = math.Max(rss/float64(len(y)), minNoiseVar)
	}

	return beta.RawVector().Data, math.Sqrt(noiseVar), nil
}

// ridge solves (XᵀX + λ·diag(prec)) β = Xᵀy by Cholesky, adding jitter to
// the diagonal when the factorization fails.
func ridge(xtx *mat.SymDense, xty *mat.VecDense, prec []float64, lambda float64) (*mat.VecDense, error) {
	p := xtx.SymmetricDim()
	jitter := 0.0
	for attempt := 0; attempt < 4; attempt++ {
		a := mat.NewSymDense(p, nil)
		a.CopySym(xtx)
		for i := 0; i < p; i++ {
			a.SetSym(i, i, a.At(i, i)+lambda*prec[i]+jitter)
		}

		var chol mat.Cholesky
		if chol.Factorize(a) {
			var beta mat.VecDense
			if err := chol.SolveVecTo(&beta, xty); err == nil {
				return &beta, nil
			}
		}
		if jitter == 0 {
			jitter = 1e-10 * (1 + mat.Trace(xtx)/float64(p))
		} else {
			jitter *= 100
		}
	}
	return nil, ErrSingular
}
