// Package datacube infers data-cube dimensions and variables from NetCDF
// style metadata, using the CF conventions coordinate-detection heuristic.
package datacube

// axisCriteria maps one physical-axis key to the attribute values that
// identify its coordinate variable. The table is the CF-xarray coordinate
// detection heuristic; the accepted value sets must match real-world CF
// files exactly, so do not edit them.
type axisCriteria struct {
	key    string
	checks []attrCheck
}

type attrCheck struct {
	attr     string
	accepted []string
}

var zStandardNames = []string{
	"model_level_number",
	"atmosphere_ln_pressure_coordinate",
	"atmosphere_sigma_coordinate",
	"atmosphere_hybrid_sigma_pressure_coordinate",
	"atmosphere_hybrid_height_coordinate",
	"atmosphere_sleve_coordinate",
	"ocean_sigma_coordinate",
	"ocean_s_coordinate",
	"ocean_s_coordinate_g1",
	"ocean_s_coordinate_g2",
	"ocean_sigma_z_coordinate",
	"ocean_double_sigma_coordinate",
}

var verticalStandardNames = []string{
	"air_pressure",
	"height",
	"depth",
	"geopotential_height",
	"altitude",
	"height_above_geopotential_datum",
	"height_above_reference_ellipsoid",
	"height_above_mean_sea_level",
}

var timeChecks = []attrCheck{
	{"standard_name", []string{"time"}},
	{"_CoordinateAxisType", []string{"Time"}},
	{"axis", []string{"T"}},
	{"cartesian_axis", []string{"T"}},
	{"grads_dim", []string{"t"}},
	{"long_name", []string{"time"}},
}

// coordinateCriteria is ordered: the first matching axis key wins.
var coordinateCriteria = []axisCriteria{
	{
		key: "latitude",
		checks: []attrCheck{
			{"standard_name", []string{"latitude"}},
			{"units", []string{"degree_north", "degree_N", "degreeN", "degrees_north", "degrees_N", "degreesN"}},
			{"_CoordinateAxisType", []string{"Lat"}},
			{"long_name", []string{"latitude"}},
		},
	},
	{
		key: "longitude",
		checks: []attrCheck{
			{"standard_name", []string{"longitude"}},
			{"units", []string{"degree_east", "degree_E", "degreeE", "degrees_east", "degrees_E", "degreesE"}},
			{"_CoordinateAxisType", []string{"Lon"}},
			{"long_name", []string{"longitude"}},
		},
	},
	{
		key: "Z",
		checks: []attrCheck{
			{"standard_name", zStandardNames},
			{"_CoordinateAxisType", []string{"GeoZ", "Height", "Pressure"}},
			{"axis", []string{"Z"}},
			{"cartesian_axis", []string{"Z"}},
			{"grads_dim", []string{"z"}},
			{"long_name", zStandardNames},
		},
	},
	{
		key: "vertical",
		checks: []attrCheck{
			{"standard_name", verticalStandardNames},
			{"positive", []string{"up", "down"}},
			{"long_name", verticalStandardNames},
		},
	},
	{
		key: "X",
		checks: []attrCheck{
			{"standard_name", []string{"projection_x_coordinate", "grid_longitude", "projection_x_angular_coordinate"}},
			{"_CoordinateAxisType", []string{"GeoX"}},
			{"axis", []string{"X"}},
			{"cartesian_axis", []string{"X"}},
			{"grads_dim", []string{"x"}},
			{"long_name", []string{"projection_x_coordinate", "grid_longitude", "projection_x_angular_coordinate", "cell index along first dimension"}},
		},
	},
	{
		key: "Y",
		checks: []attrCheck{
			{"standard_name", []string{"projection_y_coordinate", "grid_latitude", "projection_y_angular_coordinate"}},
			{"_CoordinateAxisType", []string{"GeoY"}},
			{"axis", []string{"Y"}},
			{"cartesian_axis", []string{"Y"}},
			{"grads_dim", []string{"y"}},
			{"long_name", []string{"projection_y_coordinate", "grid_latitude", "projection_y_angular_coordinate", "cell index along second dimension"}},
		},
	},
	{key: "T", checks: timeChecks},
	{key: "time", checks: timeChecks},
}

// axisName maps an axis key to the cube:dimensions axis value. T maps to no
// axis at all; time maps to t.
var axisName = map[string]string{
	"X":         "x",
	"Y":         "y",
	"Z":         "z",
	"T":         "",
	"longitude": "x",
	"latitude":  "y",
	"vertical":  "z",
	"time":      "t",
}

// standardName returns the first accepted standard_name for an axis key,
// used as the default dimension description.
func (c axisCriteria) standardName() string {
	for _, check := range c.checks {
		if check.attr == "standard_name" {
			return check.accepted[0]
		}
	}
	return ""
}

// matchAxis classifies a variable's attributes against the criteria table.
// The first axis key with any matching attribute value wins.
func matchAxis(attrs map[string]any) (axisCriteria, bool) {
	for _, criteria := range coordinateCriteria {
		for _, check := range criteria.checks {
			v, ok := attrs[check.attr].(string)
			if !ok {
				continue
			}
			for _, accepted := range check.accepted {
				if v == accepted {
					return criteria, true
				}
			}
		}
	}
	return axisCriteria{}, false
}

// isCoordinate reports whether the attributes identify a coordinate-like
// variable that was not promoted to a dimension.
func isCoordinate(attrs map[string]any) bool {
	_, ok := matchAxis(attrs)
	return ok
}
