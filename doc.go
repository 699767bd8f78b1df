// Package happi extracts physical quantities from Smilei diagnostic files
// and re-projects them onto a requested coordinate subspace.
//
// A Diagnostic is built once from one or more sources (HDF5 files or
// in-memory arrays) and an operation combining named quantities. Per-axis
// directives subset, slice or average the native grid. In cylindrical
// geometry, fields stored as azimuthal modes are reconstructed on a plane at
// a given angle or on an arbitrary Cartesian box.
//
// Basic usage:
//
//	diag, err := happi.OpenFields([]string{"results"}, 0, "Ex**2+Ey**2",
//	    happi.WithAverage("y", "all"),
//	    happi.WithSubset("x", []float64{10, 20}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer diag.Close()
//
//	for _, t := range diag.Timesteps() {
//	    data, err := diag.DataAtTime(t)
//	    if err != nil {
//	        continue // Missing timesteps are reported, not fatal.
//	    }
//	    fmt.Println(t, data.Shape)
//	}
//
// A Diagnostic is not safe for concurrent use.
package happi
