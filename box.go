package pimc

// Box is the simulation cell: a D-dimensional rectangular volume with a
// per-dimension periodic flag, providing minimum-image wrapping and
// uniform/bounded random sampling of positions. It is the "Box/Container"
// external collaborator of spec section 6.
type Box struct {
	Side     []float64
	Periodic []bool
}

// NewBox builds a Box with the given side lengths, all dimensions periodic.
func NewBox(side []float64) *Box {
	periodic := make([]bool, len(side))
	for i := range periodic {
		periodic[i] = true
	}
	return &Box{Side: side, Periodic: periodic}
}

// Dim returns the number of spatial dimensions.
func (b *Box) Dim() int {
	return len(b.Side)
}

// Volume returns the product of the side lengths.
func (b *Box) Volume() float64 {
	v := 1.0
	for _, s := range b.Side {
		v *= s
	}
	return v
}

// PutInBC applies the minimum-image convention to a separation vector in
// place, wrapping each periodic component into [-side/2, side/2).
func (b *Box) PutInBC(v []float64) {
	for i, s := range b.Side {
		if !b.Periodic[i] {
			continue
		}
		for v[i] >= 0.5*s {
			v[i] -= s
		}
		for v[i] < -0.5*s {
			v[i] += s
		}
	}
}

// PutInside wraps an absolute position into the primary cell
// [-side/2, side/2) along each periodic dimension.
func (b *Box) PutInside(p []float64) {
	for i, s := range b.Side {
		if !b.Periodic[i] {
			continue
		}
		for p[i] >= 0.5*s {
			p[i] -= s
		}
		for p[i] < -0.5*s {
			p[i] += s
		}
	}
}

// RandPosition draws a position uniformly distributed over the box volume.
func (b *Box) RandPosition(r Rand) []float64 {
	p := make([]float64, b.Dim())
	for i, s := range b.Side {
		p[i] = s * (r.Float64() - 0.5)
	}
	return p
}

// RandUpdate returns origin displaced by a uniform random vector in
// [-delta/2, delta/2]^D along each dimension, wrapped back inside the box.
func (b *Box) RandUpdate(r Rand, origin []float64, delta float64) []float64 {
	p := make([]float64, len(origin))
	for i := range p {
		p[i] = origin[i] + delta*(r.Float64()-0.5)
	}
	b.PutInside(p)
	return p
}

// Separation returns a-b with the minimum-image convention applied.
func (b *Box) Separation(a, bPos []float64) []float64 {
	sep := make([]float64, len(a))
	for i := range sep {
		sep[i] = a[i] - bPos[i]
	}
	b.PutInBC(sep)
	return sep
}
