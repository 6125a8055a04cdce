package proj_test

import (
	"math"

	"github.com/airbusgeo/georef/internal/utils/affine"
	"github.com/airbusgeo/georef/internal/utils/proj"
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

// round10 truncates the coordinates to 1e-10 degree
func round10(flat []float64) []float64 {
	res := make([]float64, len(flat))
	for i, v := range flat {
		res[i] = math.Trunc(v*1e10) / 1e10
	}
	return res
}

var _ = Describe("Footprint", func() {
	var (
		itShouldBeTheRing = func(ring *proj.Ring, srid int, flat []float64) {
			It("it should be the expected ring", func() {
				Expect(ring.SRID()).To(Equal(srid))
				Expect(ring.FlatCoords()).To(Equal(flat))
			})
		}
	)

	Describe("NewRingFromExtent", func() {
		var (
			pixToCRS *affine.Affine
			ring     proj.Ring
		)
		JustBeforeEach(func() {
			ring = proj.NewRingFromExtent(pixToCRS, 4640, 416, 32631)
		})

		Context("north-up grid", func() {
			BeforeEach(func() {
				pixToCRS = affine.Translation(453120, 5338560).Multiply(affine.Scale(10, -10))
			})
			itShouldBeTheRing(&ring, 32631, []float64{453120, 5334400, 453120, 5338560, 499520, 5338560, 499520, 5334400, 453120, 5334400})
		})

		Context("south-up grid", func() {
			BeforeEach(func() {
				pixToCRS = affine.Translation(453120, 5334400).Multiply(affine.Scale(10, 10))
			})
			itShouldBeTheRing(&ring, 32631, []float64{453120, 5334400, 453120, 5338560, 499520, 5338560, 499520, 5334400, 453120, 5334400})
		})

		Context("rotated grid", func() {
			BeforeEach(func() {
				pixToCRS = affine.NewAffine(0, 0, -1, 0, 1, 0)
			})
			It("it should bound all the corners", func() {
				Expect(ring.FlatCoords()).To(Equal([]float64{-416, 0, -416, 4640, 0, 4640, 0, 0, -416, 0}))
			})
		})
	})

	Describe("Equal", func() {
		It("it should compare the srid and the coordinates", func() {
			a := proj.NewRingFlat(4326, []float64{0, 0, 0, 1, 1, 1, 0, 0})
			b := proj.NewRingFlat(4326, []float64{0, 0, 0, 1, 1, 1, 0, 0})
			c := proj.NewRingFlat(3857, []float64{0, 0, 0, 1, 1, 1, 0, 0})
			Expect(a.Equal(&b)).To(BeTrue())
			Expect(a.Equal(&c)).To(BeFalse())
		})
	})

	Describe("Polygon", func() {
		It("it should keep the srid", func() {
			ring := proj.NewRingFlat(4326, []float64{0, 0, 0, 1, 1, 1, 0, 0})
			p := ring.Polygon()
			Expect(p.SRID()).To(Equal(4326))
			Expect(p.NumLinearRings()).To(Equal(1))
		})
	})

	table.DescribeTable("NewGeographicRingFromRing",
		func(srid int, flat, expected []float64) {
			crs, err := proj.CRSFromEPSG(srid)
			Expect(err).To(BeNil())
			ring, err := proj.NewGeographicRingFromRing(proj.NewRingFlat(srid, flat), crs)
			Expect(err).To(BeNil())
			Expect(ring.SRID()).To(Equal(4326))
			Expect(round10(ring.FlatCoords())).To(Equal(round10(expected)))
		},
		table.Entry("32701 ring over meridian 180", 32701,
			[]float64{100000, 7590000, 100000, 7700000, 200000, 7700000, 200000, 7590000, 100000, 7590000},
			[]float64{179.1337407477, -21.7485383988, 179.1595683063, -20.7569050097, 180.1186085085, -20.7756874907, 180.099204994, -21.7683053952, 179.1337407477, -21.7485383988}),
		table.Entry("3857 ring over meridian 180", 3857,
			[]float64{20000000, -17000000, 21000000, -17000000, 21000000, 17000000, 20000000, 17000000, 20000000, -17000000},
			[]float64{179.6630568239, -82.0401602032, 184.1546332445, -82.0401602032, 188.64620966501, -82.0401602032, 188.64620966501, 82.0401602032, 184.1546332445, 82.0401602032, 179.6630568239, 82.0401602032, 179.6630568239, -82.0401602032}),
		table.Entry("3857 ring over meridian -180", 3857,
			[]float64{-21000000, -17000000, -20000000, -17000000, -20000000, 17000000, -21000000, 17000000, -21000000, -17000000},
			[]float64{171.3537903349, -82.0401602032, 175.8453667554, -82.0401602032, 180.336943176, -82.0401602032, 180.336943176, 82.0401602032, 175.8453667554, 82.0401602032, 171.3537903349, 82.0401602032, 171.3537903349, -82.0401602032}),
		table.Entry("3857 worldwide ring", 3857,
			[]float64{-20000000, -17000000, 20000000, -17000000, 20000000, 17000000, -20000000, 17000000, -20000000, -17000000},
			[]float64{-179.6630568239, -82.0401602032, -157.2051747209, -82.0401602032, -134.7472926179, -82.0401602032, -112.2894105149, -82.0401602032, -89.8315284119, -82.0401602032, -67.3736463089, -82.0401602032, -44.91576420591, -82.0401602032, -22.4578821029, -82.0401602032, 0, -82.0401602032, 22.4578821029, -82.0401602032, 44.91576420591, -82.0401602032, 67.3736463089, -82.0401602032, 89.8315284119, -82.0401602032, 112.2894105149, -82.0401602032, 134.7472926179, -82.0401602032, 157.2051747209, -82.0401602032, 179.6630568239, -82.0401602032, 179.6630568239, 82.0401602032, 157.2051747209, 82.0401602032, 134.7472926179, 82.0401602032, 112.2894105149, 82.0401602032, 89.8315284119, 82.0401602032, 67.3736463089, 82.0401602032, 44.91576420591, 82.0401602032, 22.4578821029, 82.0401602032, 0, 82.0401602032, -22.4578821029, 82.0401602032, -44.91576420591, 82.0401602032, -67.3736463089, 82.0401602032, -89.8315284119, 82.0401602032, -112.2894105149, 82.0401602032, -134.7472926179, 82.0401602032, -157.2051747209, 82.0401602032, -179.6630568239, 82.0401602032, -179.6630568239, -82.0401602032}),
		table.Entry("3857 strange worldwide ring", 3857,
			[]float64{-20000000, -17000000, 19000000, 0, -1000000, -17000000, 20000000, -17000000, 20000000, 17000000, -20000000, 17000000, -20000000, -17000000},
			[]float64{-179.6630568239, -82.0401602032, -135.870186723, -78.90982629, -92.0773166222, -74.5703853942, -48.2844465214, -68.5913113239, -26.388011471, -64.8252828321, -4.4915764205, -60.44727889, 17.4048586298, -55.3878158714, 39.3012936802, -49.5866717334, 61.1977287306, -43.0034697947, 83.094163781, -35.6312510832, 104.9905988314, -27.5113123375, 126.8870338818, -18.7455386529, 170.6799039827, 0, 148.2220218797, -18.7455386529, 125.7641397767, -35.6312510832, 103.3062576737, -49.5866717334, 80.8483755707, -60.44727889, 58.3904934677, -68.5913113239, 35.9326113647, -74.5703853942, 13.4747292617, -78.90982629, -8.9831528411, -82.0401602032, 14.5976233669, -82.0401602032, 38.178399575, -82.0401602032, 61.7591757832, -82.0401602032, 85.3399519913, -82.0401602032, 108.9207281994, -82.0401602032, 132.5015044076, -82.0401602032, 156.0822806157, -82.0401602032, 179.6630568239, -82.0401602032, 179.6630568239, 82.0401602032, 157.2051747209, 82.0401602032, 134.7472926179, 82.0401602032, 112.2894105149, 82.0401602032, 89.8315284119, 82.0401602032, 67.3736463089, 82.0401602032, 44.91576420591, 82.0401602032, 22.4578821029, 82.0401602032, 0, 82.0401602032, -22.4578821029, 82.0401602032, -44.91576420591, 82.0401602032, -67.3736463089, 82.0401602032, -89.8315284119, 82.0401602032, -112.2894105149, 82.0401602032, -134.7472926179, 82.0401602032, -157.2051747209, 82.0401602032, -179.6630568239, 82.0401602032, -179.6630568239, -82.0401602032}),
		table.Entry("3857 bigger than worldwide ring", 3857,
			[]float64{-20000000, -17000000, 21000000, -17000000, 21000000, 17000000, -20000000, 17000000, -20000000, -17000000},
			[]float64{-179.6630568239, -82.0401602032, -156.6437276683, -82.0401602032, -133.6243985127, -82.0401602032, -110.6050693572, -82.0401602032, -87.5857402016, -82.0401602032, -64.566411046, -82.0401602032, -41.5470818905, -82.0401602032, -18.5277527349, -82.0401602032, 4.4915764205, -82.0401602032, 27.5109055761, -82.0401602032, 50.5302347317, -82.0401602032, 73.5495638872, -82.0401602032, 96.5688930428, -82.0401602032, 119.5882221984, -82.0401602032, 142.6075513539, -82.0401602032, 165.6268805095, -82.0401602032, 188.64620966509, -82.0401602032, 188.64620966509, 82.0401602032, 165.6268805095, 82.0401602032, 142.6075513539, 82.0401602032, 119.5882221984, 82.0401602032, 96.5688930428, 82.0401602032, 73.5495638872, 82.0401602032, 50.5302347317, 82.0401602032, 27.5109055761, 82.0401602032, 4.4915764205, 82.0401602032, -18.5277527349, 82.0401602032, -41.5470818905, 82.0401602032, -64.566411046, 82.0401602032, -87.5857402016, 82.0401602032, -110.6050693572, 82.0401602032, -133.6243985127, 82.0401602032, -156.6437276683, 82.0401602032, -179.6630568239, 82.0401602032, -179.6630568239, -82.0401602032}),
		table.Entry("4326 ring over meridian 180", 4326,
			[]float64{170, 85, 170, -85, 190, -85, 190, 85, 170, 85},
			[]float64{170, 85, 170, -85, 175, -85, 180, -85, 185, -85, 190, -85, 190, 85, 185, 85, 180, 85, 175, 85, 170, 85}),
		table.Entry("4326 ring over meridian -180", 4326,
			[]float64{-190, 85, -190, -85, -170, -85, -170, 85, -190, 85},
			[]float64{-190, 85, -190, -85, -185, -85, -180, -85, -175, -85, -170, -85, -170, 85, -175, 85, -180, 85, -185, 85, -190, 85}),
		table.Entry("4326 worldwide ring", 4326,
			[]float64{-180, 85, -180, -85, 180, -85, 180, 85, -180, 85},
			[]float64{-180, 85, -180, -85, -157.5, -85, -135, -85, -112.5, -85, -90, -85, -67.5, -85, -45, -85, -22.5, -85, 0, -85, 22.5, -85, 45, -85, 67.5, -85, 90, -85, 112.5, -85, 135, -85, 157.5, -85, 180, -85, 180, 85, 157.5, 85, 135, 85, 112.5, 85, 90, 85, 67.5, 85, 45, 85, 22.5, 85, 0, 85, -22.5, 85, -45, 85, -67.5, 85, -90, 85, -112.5, 85, -135, 85, -157.5, 85, -180, 85}),
		table.Entry("4326 strange worldwide ring", 4326,
			[]float64{-180, 85, -180, -85, 170, 0, -10, -85, 180, -85, 180, 85, -180, 85},
			[]float64{-180, 85, -180, -85, -158.125, -79.6875, -136.25, -74.375, -114.375, -69.0625, -92.5, -63.75, -70.625, -58.4375, -48.75, -53.125, -26.875, -47.8125, -5, -42.5, 16.875, -37.1875, 38.75, -31.875, 60.625, -26.5625, 82.5, -21.25, 126.25, -10.625, 170, 0, 125, -21.25, 102.5, -31.875, 80, -42.5, 57.5, -53.125, 35, -63.75, 12.5, -74.375, -10, -85, 13.75, -85, 37.5, -85, 61.25, -85, 85, -85, 108.75, -85, 132.5, -85, 156.25, -85, 180, -85, 180, 85, 157.5, 85, 135, 85, 112.5, 85, 90, 85, 67.5, 85, 45, 85, 22.5, 85, 0, 85, -22.5, 85, -45, 85, -67.5, 85, -90, 85, -112.5, 85, -135, 85, -157.5, 85, -180, 85}),
	)

	Describe("NewGeometricRingFromRing", func() {
		It("it should not densify the edges of a lon/lat ring", func() {
			crs, err := proj.CRSFromEPSG(4326)
			Expect(err).To(BeNil())
			flat := []float64{0, 0, 0, 10, 10, 10, 10, 0, 0, 0}
			ring, err := proj.NewGeometricRingFromRing(proj.NewRingFlat(4326, flat), crs)
			Expect(err).To(BeNil())
			Expect(round10(ring.FlatCoords())).To(Equal(round10(flat)))
		})
	})
})
