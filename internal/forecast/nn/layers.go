package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// gruLayer Keras GRU (게이트 순서 z, r, h)
type gruLayer struct {
	units         int
	resetAfter    bool
	kernel        *mat.Dense // (in, 3u)
	recurrent     *mat.Dense // (u, 3u)
	bias          *mat.VecDense
	recurrentBias *mat.VecDense
	act           func(float64) float64
	recAct        func(float64) float64
}

func newGRULayer(a LayerArtifact, in int) (*gruLayer, error) {
	u := a.Units
	if u <= 0 {
		return nil, fmt.Errorf("units must be positive")
	}
	kernel, err := toDense(a.Kernel, in, 3*u, "kernel")
	if err != nil {
		return nil, err
	}
	recurrent, err := toDense(a.RecurrentKernel, u, 3*u, "recurrent_kernel")
	if err != nil {
		return nil, err
	}
	bias, err := toVec(a.Bias, 3*u, "bias")
	if err != nil {
		return nil, err
	}
	recBias, err := toVec(a.RecurrentBias, 3*u, "recurrent_bias")
	if err != nil {
		return nil, err
	}

	actName := a.Activation
	if actName == "" {
		actName = "tanh"
	}
	act, err := activation(actName)
	if err != nil {
		return nil, err
	}
	recName := a.RecurrentActivation
	if recName == "" {
		recName = "sigmoid"
	}
	recAct, err := activation(recName)
	if err != nil {
		return nil, err
	}

	resetAfter := true // TF2 기본값
	if a.ResetAfter != nil {
		resetAfter = *a.ResetAfter
	}

	return &gruLayer{
		units:         u,
		resetAfter:    resetAfter,
		kernel:        kernel,
		recurrent:     recurrent,
		bias:          bias,
		recurrentBias: recBias,
		act:           act,
		recAct:        recAct,
	}, nil
}

func (g *gruLayer) outputDim() int {
	return g.units
}

func (g *gruLayer) run(seq []*mat.VecDense, returnSequences bool) []*mat.VecDense {
	h := mat.NewVecDense(g.units, nil)
	var out []*mat.VecDense
	for _, x := range seq {
		h = g.step(x, h)
		if returnSequences {
			out = append(out, h)
		}
	}
	if !returnSequences {
		out = []*mat.VecDense{h}
	}
	return out
}

func (g *gruLayer) step(x, h *mat.VecDense) *mat.VecDense {
	u := g.units

	var mx mat.VecDense
	mx.MulVec(g.kernel.T(), x)
	mx.AddVec(&mx, g.bias)

	next := mat.NewVecDense(u, nil)

	if g.resetAfter {
		var mh mat.VecDense
		mh.MulVec(g.recurrent.T(), h)
		mh.AddVec(&mh, g.recurrentBias)
		for i := 0; i < u; i++ {
			z := g.recAct(mx.AtVec(i) + mh.AtVec(i))
			r := g.recAct(mx.AtVec(u+i) + mh.AtVec(u+i))
			hh := g.act(mx.AtVec(2*u+i) + r*mh.AtVec(2*u+i))
			next.SetVec(i, z*h.AtVec(i)+(1-z)*hh)
		}
		return next
	}

	// reset_after=false: 후보 상태는 (r ⊙ h)·U_h 로 계산
	uz := g.recurrent.Slice(0, u, 0, 2*u)
	uh := g.recurrent.Slice(0, u, 2*u, 3*u)

	var mzr mat.VecDense
	mzr.MulVec(uz.T(), h)

	z := make([]float64, u)
	rh := mat.NewVecDense(u, nil)
	for i := 0; i < u; i++ {
		z[i] = g.recAct(mx.AtVec(i) + mzr.AtVec(i))
		r := g.recAct(mx.AtVec(u+i) + mzr.AtVec(u+i))
		rh.SetVec(i, r*h.AtVec(i))
	}

	var mh mat.VecDense
	mh.MulVec(uh.T(), rh)
	for i := 0; i < u; i++ {
		hh := g.act(mx.AtVec(2*u+i) + mh.AtVec(i))
		next.SetVec(i, z[i]*h.AtVec(i)+(1-z[i])*hh)
	}
	return next
}

// lstmLayer Keras LSTM (게이트 순서 i, f, c, o)
type lstmLayer struct {
	units     int
	kernel    *mat.Dense // (in, 4u)
	recurrent *mat.Dense // (u, 4u)
	bias      *mat.VecDense
	act       func(float64) float64
	recAct    func(float64) float64
}

func newLSTMLayer(a LayerArtifact, in int) (*lstmLayer, error) {
	u := a.Units
	if u <= 0 {
		return nil, fmt.Errorf("units must be positive")
	}
	kernel, err := toDense(a.Kernel, in, 4*u, "kernel")
	if err != nil {
		return nil, err
	}
	recurrent, err := toDense(a.RecurrentKernel, u, 4*u, "recurrent_kernel")
	if err != nil {
		return nil, err
	}
	bias, err := toVec(a.Bias, 4*u, "bias")
	if err != nil {
		return nil, err
	}

	actName := a.Activation
	if actName == "" {
		actName = "tanh"
	}
	act, err := activation(actName)
	if err != nil {
		return nil, err
	}
	recName := a.RecurrentActivation
	if recName == "" {
		recName = "sigmoid"
	}
	recAct, err := activation(recName)
	if err != nil {
		return nil, err
	}

	return &lstmLayer{
		units:     u,
		kernel:    kernel,
		recurrent: recurrent,
		bias:      bias,
		act:       act,
		recAct:    recAct,
	}, nil
}

func (l *lstmLayer) outputDim() int {
	return l.units
}

func (l *lstmLayer) run(seq []*mat.VecDense, returnSequences bool) []*mat.VecDense {
	u := l.units
	h := mat.NewVecDense(u, nil)
	c := mat.NewVecDense(u, nil)
	var out []*mat.VecDense

	for _, x := range seq {
		var zx, zh mat.VecDense
		zx.MulVec(l.kernel.T(), x)
		zh.MulVec(l.recurrent.T(), h)
		zx.AddVec(&zx, &zh)
		zx.AddVec(&zx, l.bias)

		nextH := mat.NewVecDense(u, nil)
		nextC := mat.NewVecDense(u, nil)
		for j := 0; j < u; j++ {
			ig := l.recAct(zx.AtVec(j))
			fg := l.recAct(zx.AtVec(u + j))
			cand := l.act(zx.AtVec(2*u + j))
			og := l.recAct(zx.AtVec(3*u + j))
			cj := fg*c.AtVec(j) + ig*cand
			nextC.SetVec(j, cj)
			nextH.SetVec(j, og*l.act(cj))
		}
		h, c = nextH, nextC
		if returnSequences {
			out = append(out, h)
		}
	}
	if !returnSequences {
		out = []*mat.VecDense{h}
	}
	return out
}

// denseLayer y = act(x·W + b)
type denseLayer struct {
	units  int
	kernel *mat.Dense // (in, u)
	bias   *mat.VecDense
	act    func(float64) float64
}

func newDenseLayer(a LayerArtifact, in int) (*denseLayer, error) {
	if a.Units <= 0 {
		return nil, fmt.Errorf("units must be positive")
	}
	kernel, err := toDense(a.Kernel, in, a.Units, "kernel")
	if err != nil {
		return nil, err
	}
	bias, err := toVec(a.Bias, a.Units, "bias")
	if err != nil {
		return nil, err
	}
	act, err := activation(a.Activation)
	if err != nil {
		return nil, err
	}
	return &denseLayer{units: a.Units, kernel: kernel, bias: bias, act: act}, nil
}

func (d *denseLayer) forward(x *mat.VecDense) *mat.VecDense {
	var y mat.VecDense
	y.MulVec(d.kernel.T(), x)
	y.AddVec(&y, d.bias)
	out := mat.NewVecDense(d.units, nil)
	for i := 0; i < d.units; i++ {
		out.SetVec(i, d.act(y.AtVec(i)))
	}
	return out
}
