package gridgeom_test

import (
	"context"

	"github.com/airbusgeo/georef/internal/georef"
	. "github.com/airbusgeo/georef/internal/gridgeom"
	"github.com/airbusgeo/georef/internal/utils/affine"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("GridGeometry", func() {
	var (
		ctx        = context.Background()
		parameters map[string]string
		gg         *GridGeometry
		err        error
	)

	var (
		itShouldNotReturnAnError = func() {
			It("it should not return an error", func() {
				Expect(err).To(BeNil())
			})
		}
		itShouldReturnAnInvalidArgument = func() {
			It("it should return an error", func() {
				Expect(georef.IsError(err, georef.InvalidArgument)).To(BeTrue(), "%v", err)
			})
		}
	)

	BeforeEach(func() {
		parameters = map[string]string{
			"crs":        "32631",
			"resolution": "10",
			"ox":         "500000",
			"oy":         "4000000",
			"width":      "100",
			"height":     "50",
		}
	})

	JustBeforeEach(func() {
		gg, err = NewFromParameters(ctx, parameters)
	})

	Context("with valid parameters", func() {
		itShouldNotReturnAnError()
		It("it should create the grid geometry", func() {
			Expect(gg.SRID).To(Equal(32631))
			Expect(gg.Model.Kind).To(Equal(georef.Projected))
			Expect(gg.GridToCRS().Equal(affine.NewAffine(500000, 10, 0, 4000000, 0, -10), 1e-9)).To(BeTrue())
			Expect(gg.Envelope().Min).To(Equal([]float64{500000, 3999500}))
			Expect(gg.Envelope().Max).To(Equal([]float64{501000, 4000000}))
		})
		It("it should return the footprint", func() {
			ring := gg.Footprint()
			Expect(ring.SRID()).To(Equal(32631))
			Expect(ring.FlatCoords()).To(Equal([]float64{500000, 3999500, 500000, 4000000, 501000, 4000000, 501000, 3999500, 500000, 3999500}))
		})
		It("it should return the geographic footprint", func() {
			ring, err := gg.GeographicFootprint()
			Expect(err).To(BeNil())
			Expect(ring.SRID()).To(Equal(4326))
			b := ring.Bounds()
			Expect(b.Min(0)).To(BeNumerically("~", 3, 0.1))
			Expect(b.Min(1)).To(BeNumerically("~", 36.1, 0.1))
		})
	})

	Context("with a center anchor", func() {
		BeforeEach(func() {
			parameters["anchor"] = "center"
		})
		itShouldNotReturnAnError()
		It("it should shift the origin", func() {
			Expect(gg.GridToCRS().Equal(affine.NewAffine(499995, 10, 0, 4000005, 0, -10), 1e-9)).To(BeTrue())
		})
	})

	Context("without crs", func() {
		BeforeEach(func() {
			delete(parameters, "crs")
		})
		itShouldReturnAnInvalidArgument()
	})

	Context("with a null resolution", func() {
		BeforeEach(func() {
			parameters["resolution"] = "0"
		})
		itShouldReturnAnInvalidArgument()
	})

	Context("with an invalid width", func() {
		BeforeEach(func() {
			parameters["width"] = "-3"
		})
		itShouldReturnAnInvalidArgument()
	})

	Context("with an invalid origin", func() {
		BeforeEach(func() {
			parameters["oy"] = "north"
		})
		itShouldReturnAnInvalidArgument()
	})

	Context("with an invalid anchor", func() {
		BeforeEach(func() {
			parameters["anchor"] = "middle"
		})
		itShouldReturnAnInvalidArgument()
	})
})
