// Command irs evaluates the Structural Risk Index of one structure from the
// command line.
//
// Usage:
//
//	go run ./cmd/irs -lat -12.0464 -lon -77.0428 -height 12 -load 300 \
//	  -length 10 -width 8 -material Concreto [-zones zonas.csv] [-json]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/calc/irs"
	"SafeStruct/internal/calc/zones"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("irs", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var in assess.Input
	var material, zonesFile string
	var asJSON bool
	fs.Float64Var(&in.Lat, "lat", 0, "latitude in decimal degrees")
	fs.Float64Var(&in.Lon, "lon", 0, "longitude in decimal degrees")
	fs.Float64Var(&in.HeightM, "height", 0, "height in metres")
	fs.Float64Var(&in.LoadKN, "load", 0, "applied load in kN")
	fs.Float64Var(&in.LengthM, "length", 0, "plan length in metres")
	fs.Float64Var(&in.WidthM, "width", 0, "plan width in metres")
	fs.StringVar(&material, "material", string(irs.MaterialConcrete), "material: "+materialList())
	fs.StringVar(&zonesFile, "zones", "", "zone table (.csv or .xlsx); defaults to the embedded table")
	fs.BoolVar(&asJSON, "json", false, "print the assessment as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	in.Material = irs.Material(material)

	table, err := loadZones(zonesFile)
	if err != nil {
		fmt.Fprintln(stderr, "zone table:", err)
		return 1
	}

	a, err := assess.NewEvaluator(table).Evaluate(in)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	if !irs.KnownMaterial(in.Material) {
		fmt.Fprintf(stderr, "warning: unknown material %q, using factor 1.0\n", material)
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		return 0
	}
	printText(stdout, a)
	return 0
}

func loadZones(path string) (*zones.Table, error) {
	if path == "" {
		return zones.Default()
	}
	return zones.LoadFile(path)
}

func materialList() string {
	names := make([]string, len(irs.Materials))
	for i, m := range irs.Materials {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func printText(w io.Writer, a assess.Assessment) {
	source := "default"
	if a.Zone.Matched {
		source = "table"
	}
	f := a.Result.Factors
	fmt.Fprintf(w, "location:   %.5f, %.5f\n", a.Input.Lat, a.Input.Lon)
	fmt.Fprintf(w, "zone:       PGA %.2f g, soil %s (%s)\n", a.Zone.PGA, a.Zone.Soil, source)
	fmt.Fprintf(w, "structure:  %s, %.2f m high, %.2f m2, %.2f m3, %.2f kN\n",
		a.Input.Material, a.Input.HeightM, a.AreaM2, a.VolumeM3, a.Input.LoadKN)
	fmt.Fprintf(w, "factors:    seismic %.3f, structural %.3f, material %.2f, geometry %.3f\n",
		f.Seismic, f.Structural, f.Material, f.Geometry)
	fmt.Fprintf(w, "IRS:        %.2f (%s)\n", a.Result.Index, a.Result.Category.Label())
}
