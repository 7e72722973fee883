package noise

import "math/rand"

const (
	f4 = 0.30901699437494745 // (sqrt(5)-1)/4
	g4 = 0.1381966011250105  // (5-sqrt(5))/20
)

var grad4 = [32][4]float64{
	{0, 1, 1, 1}, {0, 1, 1, -1}, {0, 1, -1, 1}, {0, 1, -1, -1},
	{0, -1, 1, 1}, {0, -1, 1, -1}, {0, -1, -1, 1}, {0, -1, -1, -1},
	{1, 0, 1, 1}, {1, 0, 1, -1}, {1, 0, -1, 1}, {1, 0, -1, -1},
	{-1, 0, 1, 1}, {-1, 0, 1, -1}, {-1, 0, -1, 1}, {-1, 0, -1, -1},
	{1, 1, 0, 1}, {1, 1, 0, -1}, {1, -1, 0, 1}, {1, -1, 0, -1},
	{-1, 1, 0, 1}, {-1, 1, 0, -1}, {-1, -1, 0, 1}, {-1, -1, 0, -1},
	{1, 1, 1, 0}, {1, 1, -1, 0}, {1, -1, 1, 0}, {1, -1, -1, 0},
	{-1, 1, 1, 0}, {-1, 1, -1, 0}, {-1, -1, 1, 0}, {-1, -1, -1, 0},
}

// SimplexSource is classic 4D simplex noise over a seeded permutation table.
type SimplexSource struct {
	perm [512]uint8
}

// NewSimplex shuffles the permutation table with a seeded Fisher-Yates pass.
func NewSimplex(seed int64) *SimplexSource {
	s := &SimplexSource{}
	r := rand.New(rand.NewSource(seed))
	var p [256]uint8
	for i := range p {
		p[i] = uint8(i)
	}
	for i := 255; i > 0; i-- {
		j := r.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	for i := range s.perm {
		s.perm[i] = p[i&255]
	}
	return s
}

func fastFloor(x float64) int {
	i := int(x)
	if x < float64(i) {
		return i - 1
	}
	return i
}

func (s *SimplexSource) hash(i, j, k, l int) int {
	return int(s.perm[i+int(s.perm[j+int(s.perm[k+int(s.perm[l])])])] % 32)
}

// Eval4 returns noise in roughly [-1, 1].
func (s *SimplexSource) Eval4(x, y, z, w float64) float64 {
	t := (x + y + z + w) * f4
	cell := [4]int{fastFloor(x + t), fastFloor(y + t), fastFloor(z + t), fastFloor(w + t)}

	t0 := float64(cell[0]+cell[1]+cell[2]+cell[3]) * g4
	d := [4]float64{
		x - (float64(cell[0]) - t0),
		y - (float64(cell[1]) - t0),
		z - (float64(cell[2]) - t0),
		w - (float64(cell[3]) - t0),
	}

	// Rank each axis by magnitude to pick the simplex traversal order.
	var rank [4]int
	for a := 0; a < 4; a++ {
		for b := a + 1; b < 4; b++ {
			if d[a] > d[b] {
				rank[a]++
			} else {
				rank[b]++
			}
		}
	}

	ii, jj, kk, ll := cell[0]&255, cell[1]&255, cell[2]&255, cell[3]&255

	sum := 0.0
	for corner := 0; corner <= 4; corner++ {
		var off [4]int
		for a := 0; a < 4; a++ {
			if rank[a] >= 4-corner {
				off[a] = 1
			}
		}
		shift := float64(corner) * g4
		p := [4]float64{
			d[0] - float64(off[0]) + shift,
			d[1] - float64(off[1]) + shift,
			d[2] - float64(off[2]) + shift,
			d[3] - float64(off[3]) + shift,
		}
		falloff := 0.6 - p[0]*p[0] - p[1]*p[1] - p[2]*p[2] - p[3]*p[3]
		if falloff <= 0 {
			continue
		}
		g := grad4[s.hash(ii+off[0], jj+off[1], kk+off[2], ll+off[3])]
		falloff *= falloff
		sum += falloff * falloff * (g[0]*p[0] + g[1]*p[1] + g[2]*p[2] + g[3]*p[3])
	}

	return 27.0 * sum
}
