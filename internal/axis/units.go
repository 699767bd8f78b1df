package axis

import "strings"

// UnknownUnits is the placeholder for quantities without a known unit.
const UnknownUnits = "??"

// Units returns the reference unit of an axis type.
func Units(axisType string) string {
	switch axisType {
	case "x", "y", "z", "r":
		return "L_r"
	case "px", "py", "pz", "p":
		return "P_r"
	case "vx", "vy", "vz", "v":
		return "V_r"
	case "ekin":
		return "K_r"
	case "charge":
		return "Q_r"
	case "gamma":
		return ""
	default:
		return UnknownUnits
	}
}

// IsSpatial reports whether the axis type is a Cartesian coordinate.
func IsSpatial(axisType string) bool {
	return axisType == "x" || axisType == "y" || axisType == "z"
}

// SpatialDim returns the dimension index of a spatial axis type, or -1.
func SpatialDim(axisType string) int {
	if !IsSpatial(axisType) {
		return -1
	}
	return strings.Index("xyz", axisType)
}

// FieldUnits returns the reference unit of a field component, keyed by
// the first letter of its name.
func FieldUnits(name string) string {
	if name == "" {
		return UnknownUnits
	}
	switch name[0] {
	case 'B':
		return "B_r"
	case 'E':
		return "E_r"
	case 'J':
		return "J_r"
	case 'R':
		return "N_r"
	default:
		return UnknownUnits
	}
}

// OutputUnits returns the title and the reference unit of a particle
// binning output type.
func OutputUnits(output string) (title, units string) {
	switch {
	case output == "density":
		return "Number density", "N_r"
	case output == "charge_density":
		return "Charge density", "N_r * Q_r"
	case output == "ekin_density":
		return "Energy density", "N_r * K_r"
	case strings.HasPrefix(output, "j") && len(output) > 1:
		return "J" + output[1:2], "J_r"
	case strings.HasPrefix(output, "p") && strings.HasSuffix(output, "_density") && len(output) > 1:
		return "P" + strings.Trim(output[1:2], "_") + " density", "N_r * P_r"
	case strings.HasPrefix(output, "pressure") && len(output) >= 2:
		return "Pressure " + output[len(output)-2:len(output)-1], "N_r * K_r"
	default:
		return UnknownUnits, UnknownUnits
	}
}
