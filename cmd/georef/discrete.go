package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/airbusgeo/georef/internal/discrete"
	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/transform"
	"github.com/airbusgeo/georef/internal/utils"
	"github.com/spf13/cobra"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func newDiscreteCmd() *cobra.Command {
	var axes []string
	discreteCmd := &cobra.Command{
		Use:   "discrete --axis v1,v2,... [--axis ...]",
		Short: "Compute the grid to crs transform of discrete axes",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return doDiscrete(axes, c.OutOrStdout())
		},
	}
	discreteCmd.Flags().StringArrayVar(&axes, "axis", nil, "ordinates of an axis, coma-separated numbers or dates (RFC3339 or yyyy-mm-dd)")
	discreteCmd.MarkFlagRequired("axis")
	return discreteCmd
}

// parseAxis parses numbers, or dates if any of the ordinates is not a number.
// Date axes are expressed in the unix time crs.
func parseAxis(i int, s string) (discrete.Axis, *georef.CRS, error) {
	if numbers, err := utils.ParseFloats(s, ","); err == nil {
		name := fmt.Sprintf("axis %d", i)
		return discrete.NumberAxis(numbers...), &georef.CRS{
			Kind: georef.Engineering,
			Name: name,
			Axes: []georef.Axis{{Name: name, Direction: georef.DirectionOther}},
		}, nil
	}
	var dates []time.Time
	for _, v := range strings.Split(s, ",") {
		date, err := parseDate(strings.TrimSpace(v))
		if err != nil {
			return discrete.Axis{}, nil, fmt.Errorf("axis %d: %w", i, err)
		}
		dates = append(dates, date)
	}
	return discrete.DateAxis(dates...), georef.UnixTime, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("'%s' is neither a number nor a date", s)
}

func doDiscrete(values []string, w io.Writer) error {
	axes := make([]discrete.Axis, len(values))
	components := make([]*georef.CRS, len(values))
	for i, v := range values {
		var err error
		if axes[i], components[i], err = parseAxis(i, v); err != nil {
			return err
		}
	}

	crs := discrete.NewCRS(georef.NewCompound("discrete", components...), axes)
	t, ok := crs.GridToCRS()
	if !ok {
		_, err := fmt.Fprintln(w, "no transform")
		return err
	}
	m, ok := transform.IsLinear(t)
	if !ok {
		return georef.NewShouldNeverHappen("discrete axes must give a linear transform")
	}
	_, err := fmt.Fprintln(w, m.String())
	return err
}
