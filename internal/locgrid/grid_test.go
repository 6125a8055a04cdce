package locgrid_test

import (
	"bytes"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/airbusgeo/georef/internal/georef"
	. "github.com/airbusgeo/georef/internal/locgrid"
	"github.com/airbusgeo/georef/internal/transform"
	"github.com/airbusgeo/georef/internal/utils/affine"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// newGrid creates a grid of width×height cells filled with f(col, row)
func newGrid(width, height int, f func(col, row float64) (float64, float64)) *Grid {
	g, err := New(width, height)
	Expect(err).To(BeNil())
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			x, y := f(float64(col), float64(row))
			Expect(g.Set(col, row, x, y)).To(Succeed())
		}
	}
	return g
}

// fromRows creates a grid from rows of (x, y) pairs
func fromRows(rows ...[][2]float64) *Grid {
	return newGrid(len(rows[0]), len(rows), func(col, row float64) (float64, float64) {
		p := rows[int(row)][int(col)]
		return p[0], p[1]
	})
}

func apply(t transform.Transform, col, row float64) (float64, float64) {
	x, y, err := transform.TransformXY(t, col, row)
	Expect(err).To(BeNil())
	return x, y
}

var linear = func(col, row float64) (float64, float64) {
	return 100 + 10*col, 200 - 5*row
}

var _ = Describe("Grid", func() {
	var (
		grid *Grid
		err  error
	)

	var (
		itShouldReturnAnErrorWithCode = func(code georef.ErrorCode) {
			It("it should return an error", func() {
				Expect(georef.IsError(err, code)).To(BeTrue(), "%v", err)
			})
		}
	)

	Describe("New", func() {
		Context("when the size is valid", func() {
			BeforeEach(func() {
				grid, err = New(3, 2)
			})
			It("it should create a grid of undefined cells", func() {
				Expect(err).To(BeNil())
				Expect(grid.Width()).To(Equal(3))
				Expect(grid.Height()).To(Equal(2))
				Expect(grid.Extent()).To(Equal(image.Rect(0, 0, 3, 2)))
				Expect(grid.HasUndefined()).To(BeTrue())
				for row := 0; row < 2; row++ {
					for col := 0; col < 3; col++ {
						x, y, err := grid.Get(col, row)
						Expect(err).To(BeNil())
						Expect(math.IsNaN(x) && math.IsNaN(y)).To(BeTrue())
					}
				}
			})
		})

		Context("when the width is null", func() {
			BeforeEach(func() {
				grid, err = New(0, 2)
			})
			itShouldReturnAnErrorWithCode(georef.InvalidArgument)
		})

		Context("when the height is negative", func() {
			BeforeEach(func() {
				grid, err = New(2, -1)
			})
			itShouldReturnAnErrorWithCode(georef.InvalidArgument)
		})

		Context("when width×height overflows", func() {
			BeforeEach(func() {
				grid, err = New(1<<32, 1<<32)
			})
			itShouldReturnAnErrorWithCode(georef.InvalidArgument)
		})

		Context("when the grid is too large", func() {
			BeforeEach(func() {
				grid, err = New(MaxCells/2+1, 2)
			})
			itShouldReturnAnErrorWithCode(georef.InvalidArgument)
		})
	})

	Describe("Get and Set", func() {
		BeforeEach(func() {
			grid, _ = New(3, 2)
		})

		It("it should round-trip a value", func() {
			Expect(grid.Set(2, 1, 12.5, -3)).To(Succeed())
			x, y, err := grid.Get(2, 1)
			Expect(err).To(BeNil())
			Expect(x).To(Equal(12.5))
			Expect(y).To(Equal(-3.0))
		})

		It("it should reject out of range indices", func() {
			Expect(georef.IsError(grid.Set(3, 0, 0, 0), georef.IndexOutOfRange)).To(BeTrue())
			Expect(georef.IsError(grid.Set(0, -1, 0, 0), georef.IndexOutOfRange)).To(BeTrue())
			_, _, err := grid.Get(0, 2)
			Expect(georef.IsError(err, georef.IndexOutOfRange)).To(BeTrue())
		})

		It("it should be fully defined once all the cells are set", func() {
			grid = newGrid(3, 2, linear)
			Expect(grid.HasUndefined()).To(BeFalse())
			Expect(grid.Set(1, 1, 0, math.NaN())).To(Succeed())
			Expect(grid.HasUndefined()).To(BeTrue())
		})

		It("it should invalidate the fitted affine", func() {
			grid = newGrid(3, 2, linear)
			before := grid.AffineTransform()
			Expect(grid.Set(0, 0, 0, 0)).To(Succeed())
			Expect(grid.AffineTransform().Equal(before, 1e-9)).To(BeFalse())
		})
	})

	Describe("IsMonotonic", func() {
		It("it should accept increasing rows and columns", func() {
			grid = fromRows(
				[][2]float64{{0, 0}, {1, 1}},
				[][2]float64{{2, 1}, {3, 2}},
			)
			Expect(grid.IsMonotonic(true)).To(BeTrue())
			Expect(grid.IsMonotonic(false)).To(BeTrue())
		})

		It("it should reject a single decreasing pair", func() {
			grid = fromRows(
				[][2]float64{{0, 0}, {-1, 1}},
				[][2]float64{{2, 1}, {3, 2}},
			)
			Expect(grid.IsMonotonic(false)).To(BeFalse())
		})

		It("it should accept equal values only when not strict", func() {
			grid = fromRows(
				[][2]float64{{0, 0}, {1, 1}},
				[][2]float64{{2, 0}, {3, 2}},
			)
			Expect(grid.IsMonotonic(false)).To(BeTrue())
			Expect(grid.IsMonotonic(true)).To(BeFalse())
		})

		It("it should require the same direction for all the rows", func() {
			grid = fromRows(
				[][2]float64{{0, 0}, {1, 0}},
				[][2]float64{{3, 1}, {2, 1}},
			)
			Expect(grid.IsMonotonic(false)).To(BeFalse())
		})

		It("it should accept rows and columns in different directions", func() {
			grid = newGrid(4, 3, linear)
			Expect(grid.IsMonotonic(false)).To(BeTrue())
			Expect(grid.IsMonotonic(true)).To(BeFalse(), "x is constant along the columns")
		})

		It("it should skip undefined cells", func() {
			grid = fromRows(
				[][2]float64{{0, 0}, {math.NaN(), math.NaN()}, {2, 2}},
			)
			Expect(grid.IsMonotonic(true)).To(BeTrue())
			Expect(grid.Set(1, 0, 5, 5)).To(Succeed())
			Expect(grid.IsMonotonic(false)).To(BeFalse())
		})
	})

	Describe("RemoveSingularities", func() {
		It("it should interpolate a run of equal values along a row", func() {
			grid = fromRows([][2]float64{{7, 0}, {8, 1}, {8, 2}, {8, 3}, {11, 4}})
			grid.RemoveSingularities()
			for col, expected := range []float64{7, 8, 9, 10, 11} {
				x, y, _ := grid.Get(col, 0)
				Expect(x).To(Equal(expected))
				Expect(y).To(Equal(float64(col)))
			}
		})

		It("it should interpolate a run of equal values along a column", func() {
			grid = fromRows(
				[][2]float64{{0, 10}},
				[][2]float64{{0, 10}},
				[][2]float64{{0, 16}},
			)
			grid.RemoveSingularities()
			_, y, _ := grid.Get(0, 1)
			Expect(y).To(Equal(13.0))
		})

		It("it should leave a run ending the row unchanged", func() {
			grid = fromRows([][2]float64{{1, 0}, {2, 1}, {2, 2}})
			grid.RemoveSingularities()
			x, _, _ := grid.Get(2, 0)
			Expect(x).To(Equal(2.0))
		})

		It("it should make the grid strictly monotonic", func() {
			grid = fromRows(
				[][2]float64{{0, 0}, {1, 0}, {1, 0}, {3, 0}},
				[][2]float64{{0, 1}, {1, 1}, {1, 1}, {3, 1}},
			)
			Expect(grid.IsMonotonic(true)).To(BeFalse())
			grid.RemoveSingularities()
			x, _, _ := grid.Get(2, 1)
			Expect(x).To(Equal(2.0))
		})
	})

	Describe("AffineTransform", func() {
		It("it should fit a perfectly affine grid", func() {
			grid = newGrid(5, 4, linear)
			a := grid.AffineTransform()
			Expect(a.Equal(affine.NewAffine(100, 10, 0, 200, 0, -5), 1e-9)).To(BeTrue(), a.String())
		})

		It("it should fit the rotation terms", func() {
			grid = newGrid(4, 6, func(col, row float64) (float64, float64) {
				return 1 + 2*col + 3*row, 4 + 5*col - 6*row
			})
			a := grid.AffineTransform()
			Expect(a.Equal(affine.NewAffine(1, 2, 3, 4, 5, -6), 1e-9)).To(BeTrue(), a.String())
		})

		It("it should fit a least-squares plane", func() {
			// x = col + noise, the noise being uncorrelated with the indices
			grid = fromRows(
				[][2]float64{{0.1, 0}, {0.9, 0}, {2.1, 0}, {2.9, 0}},
				[][2]float64{{-0.1, 1}, {1.1, 1}, {1.9, 1}, {3.1, 1}},
			)
			a := grid.AffineTransform()
			Expect(a[0]).To(BeNumerically("~", 0, 1e-9))
			Expect(a[1]).To(BeNumerically("~", 1, 1e-9))
			Expect(a[2]).To(BeNumerically("~", 0, 1e-9))
			Expect(a[5]).To(BeNumerically("~", 1, 1e-9))
		})

		It("it should handle single row and single column grids", func() {
			grid = newGrid(5, 1, linear)
			Expect(grid.AffineTransform().Equal(affine.NewAffine(100, 10, 0, 200, 0, 0), 1e-9)).To(BeTrue())
			grid = newGrid(1, 5, linear)
			Expect(grid.AffineTransform().Equal(affine.NewAffine(100, 0, 0, 200, 0, -5), 1e-9)).To(BeTrue())
			grid = newGrid(1, 1, linear)
			Expect(grid.AffineTransform().Equal(affine.NewAffine(100, 0, 0, 200, 0, 0), 0)).To(BeTrue())
		})

		It("it should propagate undefined cells", func() {
			grid = newGrid(3, 3, linear)
			Expect(grid.Set(1, 1, math.NaN(), math.NaN())).To(Succeed())
			a := grid.AffineTransform()
			Expect(math.IsNaN(a[0])).To(BeTrue())
		})

		It("it should return a copy", func() {
			grid = newGrid(3, 3, linear)
			a := grid.AffineTransform()
			a[0] = 42
			Expect(grid.AffineTransform()[0]).To(BeNumerically("~", 100, 1e-9))
		})
	})

	Describe("ApplyTransform", func() {
		BeforeEach(func() {
			grid = newGrid(4, 3, linear)
		})

		It("it should transform the whole grid", func() {
			Expect(grid.ApplyTransform(affine.Translation(-100, -200), nil)).To(Succeed())
			Expect(grid.AffineTransform().Equal(affine.NewAffine(0, 10, 0, 0, 0, -5), 1e-9)).To(BeTrue())
		})

		It("it should only transform the region", func() {
			region := image.Rect(1, 1, 3, 2)
			Expect(grid.ApplyTransform(affine.Scale(2, 2), &region)).To(Succeed())
			x, y, _ := grid.Get(1, 1)
			Expect(x).To(Equal(220.0))
			Expect(y).To(Equal(390.0))
			x, y, _ = grid.Get(3, 1)
			Expect(x).To(Equal(130.0))
			Expect(y).To(Equal(195.0))
			x, _, _ = grid.Get(1, 0)
			Expect(x).To(Equal(110.0))
		})

		It("it should reject a region outside the grid", func() {
			region := image.Rect(2, 2, 5, 3)
			err := grid.ApplyTransform(affine.Identity(), &region)
			Expect(georef.IsError(err, georef.InvalidArgument)).To(BeTrue())
		})
	})

	Describe("Transform", func() {
		var t transform.Transform

		It("it should reject unsupported degrees", func() {
			grid = newGrid(3, 3, linear)
			_, err = grid.Transform(-1)
			Expect(georef.IsError(err, georef.OutOfRange)).To(BeTrue())
			_, err = grid.Transform(MaxDegree + 1)
			Expect(georef.IsError(err, georef.OutOfRange)).To(BeTrue())
		})

		Context("degree 1", func() {
			BeforeEach(func() {
				grid = newGrid(4, 3, linear)
				t, err = grid.Transform(1)
				Expect(err).To(BeNil())
			})

			It("it should be the fitted affine", func() {
				x, y := apply(t, 2, 2)
				Expect(x).To(BeNumerically("~", 120, 1e-9))
				Expect(y).To(BeNumerically("~", 190, 1e-9))
			})

			It("it should be value-equal when requested twice", func() {
				t2, err := grid.Transform(1)
				Expect(err).To(BeNil())
				m1, _ := transform.IsLinear(t)
				m2, _ := transform.IsLinear(t2)
				Expect(m1.Equal(m2, 0)).To(BeTrue())
			})

			It("it should be invalidated by a mutation", func() {
				Expect(grid.ApplyTransform(affine.Translation(1, 1), nil)).To(Succeed())
				t2, err := grid.Transform(1)
				Expect(err).To(BeNil())
				x, _ := apply(t2, 0, 0)
				Expect(x).To(BeNumerically("~", 101, 1e-9))
				x, _ = apply(t, 0, 0)
				Expect(x).To(BeNumerically("~", 100, 1e-9))
			})
		})

		Context("degree 0", func() {
			BeforeEach(func() {
				grid = newGrid(4, 3, func(col, row float64) (float64, float64) {
					return 100 + 10*col + col*col, 200 - 5*row
				})
				t, err = grid.Transform(0)
				Expect(err).To(BeNil())
			})

			It("it should return the grid values on the cells", func() {
				for _, c := range []float64{0, 1, 2, 3} {
					x, y := apply(t, c, 2)
					Expect(x).To(Equal(100 + 10*c + c*c))
					Expect(y).To(Equal(190.0))
				}
			})

			It("it should interpolate between the cells", func() {
				x, y := apply(t, 1.5, 0.5)
				Expect(x).To(BeNumerically("~", (111.0+124.0)/2, 1e-9))
				Expect(y).To(BeNumerically("~", 197.5, 1e-9))
			})

			It("it should extrapolate outside the grid with the fitted affine", func() {
				a := grid.AffineTransform()
				x, y := apply(t, 5, -1)
				Expect(x).To(BeNumerically("~", 100+30+9+2*a[1], 1e-9))
				Expect(y).To(BeNumerically("~", 205, 1e-9))
			})

			It("it should be invertible", func() {
				inv, err := t.Inverse()
				Expect(err).To(BeNil())
				col, row := apply(inv, 124, 197.5)
				Expect(col).To(BeNumerically("~", 2, 1e-6))
				Expect(row).To(BeNumerically("~", 0.5, 1e-6))
				fwd, err := inv.Inverse()
				Expect(err).To(BeNil())
				Expect(fwd).To(BeIdenticalTo(t))
			})

			It("it should not see later mutations", func() {
				Expect(grid.Set(0, 0, -1, -1)).To(Succeed())
				x, y := apply(t, 0, 0)
				Expect(x).To(Equal(100.0))
				Expect(y).To(Equal(200.0))

				t2, err := grid.Transform(0)
				Expect(err).To(BeNil())
				x, y = apply(t2, 0, 0)
				Expect(x).To(Equal(-1.0))
				Expect(y).To(Equal(-1.0))

				grid.RemoveSingularities()
				x, _ = apply(t2, 0, 0)
				Expect(x).To(Equal(-1.0))
			})
		})

		Context("degree 0 with undefined cells", func() {
			BeforeEach(func() {
				grid, err = New(3, 1)
				Expect(err).To(BeNil())
				Expect(grid.Set(0, 0, 10, 0)).To(Succeed())
				Expect(grid.Set(1, 0, 20, 0)).To(Succeed())
				t, err = grid.Transform(0)
				Expect(err).To(BeNil())
			})

			It("it should return the defined cells next to a hole", func() {
				x, y := apply(t, 1, 0)
				Expect(x).To(Equal(20.0))
				Expect(y).To(Equal(0.0))
				x, y = apply(t, 0, 0)
				Expect(x).To(Equal(10.0))
				Expect(y).To(Equal(0.0))
			})

			It("it should interpolate between defined cells", func() {
				x, _ := apply(t, 0.5, 0)
				Expect(x).To(BeNumerically("~", 15, 1e-9))
			})

			It("it should be undefined next to the hole", func() {
				x, y := apply(t, 1.5, 0)
				Expect(math.IsNaN(x) && math.IsNaN(y)).To(BeTrue())
			})
		})

		Context("degree 0 on the last row", func() {
			BeforeEach(func() {
				grid = newGrid(2, 3, linear)
				Expect(grid.Set(0, 1, math.NaN(), math.NaN())).To(Succeed())
				t, err = grid.Transform(0)
				Expect(err).To(BeNil())
			})

			It("it should not read the undefined row above", func() {
				x, y := apply(t, 0, 2)
				Expect(x).To(Equal(100.0))
				Expect(y).To(Equal(190.0))
				x, y = apply(t, 1, 2)
				Expect(x).To(Equal(110.0))
				Expect(y).To(Equal(190.0))
			})
		})

		Context("degree 2", func() {
			quadratic := func(col, row float64) (float64, float64) {
				return 3 + 2*col + 0.5*row + 0.01*col*col, -1 + 0.3*col - 4*row + 0.002*row*row
			}

			BeforeEach(func() {
				grid = newGrid(6, 5, quadratic)
				Expect(grid.Set(3, 3, math.NaN(), math.NaN())).To(Succeed())
				t, err = grid.Transform(2)
				Expect(err).To(BeNil())
			})

			It("it should fit the defined cells", func() {
				x, y := apply(t, 3, 3)
				ex, ey := quadratic(3, 3)
				Expect(x).To(BeNumerically("~", ex, 1e-9))
				Expect(y).To(BeNumerically("~", ey, 1e-9))
			})

			It("it should be cached", func() {
				t2, err := grid.Transform(2)
				Expect(err).To(BeNil())
				Expect(t2).To(BeIdenticalTo(t))
			})
		})

		It("it should fail when there are not enough defined cells", func() {
			grid, _ = New(3, 3)
			_, err = grid.Transform(2)
			Expect(georef.IsError(err, georef.InvalidArgument)).To(BeTrue())
		})
	})

	Describe("concurrent access", func() {
		It("it should serialize the mutations and the fits", func() {
			grid = newGrid(8, 8, linear)
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(2)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					x, y := linear(float64(i), float64(i))
					Expect(grid.Set(i, i, x, y)).To(Succeed())
				}(i)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_ = grid.AffineTransform()
					_, err := grid.Transform(0)
					Expect(err).To(BeNil())
				}()
			}
			wg.Wait()
			Expect(grid.AffineTransform().Equal(affine.NewAffine(100, 10, 0, 200, 0, -5), 1e-9)).To(BeTrue())
		})
	})

	Describe("Read and WriteTo", func() {
		It("it should round-trip the defined cells", func() {
			grid = newGrid(3, 2, linear)
			Expect(grid.Set(1, 1, math.NaN(), math.NaN())).To(Succeed())
			var buf bytes.Buffer
			n, err := grid.WriteTo(&buf)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(int64(buf.Len())))
			Expect(strings.Count(buf.String(), "\n")).To(Equal(6))

			read, err := Read(&buf)
			Expect(err).To(BeNil())
			Expect(read.Width()).To(Equal(3))
			Expect(read.Height()).To(Equal(2))
			for row := 0; row < 2; row++ {
				for col := 0; col < 3; col++ {
					x0, y0, _ := grid.Get(col, row)
					x1, y1, _ := read.Get(col, row)
					if col == 1 && row == 1 {
						Expect(math.IsNaN(x1) && math.IsNaN(y1)).To(BeTrue())
						continue
					}
					Expect(x1).To(Equal(x0))
					Expect(y1).To(Equal(y0))
				}
			}
		})

		It("it should skip comments", func() {
			read, err := Read(strings.NewReader("# grid\n\n1 1\n# cell\n0 0 1.5 -2\n"))
			Expect(err).To(BeNil())
			x, y, _ := read.Get(0, 0)
			Expect(x).To(Equal(1.5))
			Expect(y).To(Equal(-2.0))
		})

		It("it should reject malformed inputs", func() {
			for _, input := range []string{
				"",
				"3\n",
				"a 2\n",
				"0 2\n",
				"4294967296 4294967296\n",
				"2 2\n0 0 1\n",
				"2 2\n0 0 x 1\n",
				"2 2\n5 0 1 1\n",
			} {
				_, err := Read(strings.NewReader(input))
				Expect(err).NotTo(BeNil(), input)
			}
		})
	})
})
