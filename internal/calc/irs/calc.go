// Package irs computes the Structural Risk Index (IRS) of a building from its
// seismic zone, geometry, load and structural material.
package irs

import "math"

type Material string

const (
	MaterialSteel        Material = "Acero"
	MaterialConcrete     Material = "Concreto"
	MaterialMasonry      Material = "Mampostería"
	MaterialWood         Material = "Madera"
	MaterialAdobe        Material = "Adobe"
	MaterialLightPrecast Material = "Prefabricado ligero"
	MaterialAluminium    Material = "Aluminio estructural"
)

// Materials lists the known materials in the order the calculator offers them.
var Materials = []Material{
	MaterialConcrete,
	MaterialMasonry,
	MaterialSteel,
	MaterialWood,
	MaterialAdobe,
	MaterialLightPrecast,
	MaterialAluminium,
}

const (
	referencePGA      = 0.45
	referenceLoadKN   = 5000.0
	referenceAreaM2   = 20.0
	referenceVolumeM3 = 150.0
	slendernessEps    = 1e-6

	defaultSoilAmplification = 1.2
	defaultMaterialFactor    = 1.0
)

var soilAmplification = map[string]float64{
	"S1": 1.0,
	"S2": 1.15,
	"S3": 1.30,
	"S4": 1.55,
}

var materialFactor = map[Material]float64{
	MaterialSteel:        0.75,
	MaterialConcrete:     1.0,
	MaterialMasonry:      1.35,
	"Mamposteria":        1.35,
	MaterialWood:         0.85,
	MaterialAdobe:        1.50,
	MaterialLightPrecast: 1.20,
	MaterialAluminium:    0.90,
}

type Params struct {
	HeightM  float64  `json:"height_m"`
	LoadKN   float64  `json:"load_kn"`
	PGA      float64  `json:"pga"`
	SoilType string   `json:"soil_type"`
	Material Material `json:"material"`
	AreaM2   float64  `json:"area_m2"`
	VolumeM3 float64  `json:"volume_m3"`
}

// Factors exposes every intermediate value of the index.
type Factors struct {
	PGA               float64 `json:"pga_factor"`
	SoilAmplification float64 `json:"soil_amplification"`
	Seismic           float64 `json:"seismic"`
	Slenderness       float64 `json:"slenderness"`
	Load              float64 `json:"load"`
	Structural        float64 `json:"structural"`
	Material          float64 `json:"material"`
	Area              float64 `json:"area"`
	Volume            float64 `json:"volume"`
	Geometry          float64 `json:"geometry"`
}

type Result struct {
	Index    float64  `json:"irs"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Factors  Factors  `json:"factors"`
}

// Compute evaluates the index. Unknown soil types and materials fall back to
// neutral defaults; the caller guarantees a positive area.
func Compute(p Params) Result {
	var f Factors

	f.PGA = math.Min(p.PGA/referencePGA, 1.0)
	f.SoilAmplification = SoilAmplification(p.SoilType)
	f.Seismic = math.Min(f.PGA*f.SoilAmplification, 1.0)

	f.Slenderness = math.Min(p.HeightM/(math.Sqrt(p.AreaM2)+slendernessEps), 1.0)
	f.Load = math.Min(p.LoadKN/referenceLoadKN, 1.0)
	f.Structural = math.Min(0.6*f.Slenderness+0.4*f.Load, 1.0)

	f.Material = MaterialFactor(p.Material)

	// Geometry factors cap at 1.5, not 1.0.
	f.Area = math.Min(referenceAreaM2/p.AreaM2, 1.5)
	f.Volume = math.Min(p.VolumeM3/referenceVolumeM3, 1.5)
	f.Geometry = 0.5*f.Area + 0.5*f.Volume

	index := (0.50*f.Seismic + 0.30*f.Structural + 0.20*f.Geometry) * f.Material * 100
	index = round2(index)

	category := Categorize(index)
	return Result{
		Index:    index,
		Category: category,
		Label:    category.Label(),
		Factors:  f,
	}
}

// ComputeIRS is the positional form of Compute.
func ComputeIRS(height, load, pga float64, soilType string, material Material, area, volume float64) (float64, Category) {
	r := Compute(Params{
		HeightM:  height,
		LoadKN:   load,
		PGA:      pga,
		SoilType: soilType,
		Material: material,
		AreaM2:   area,
		VolumeM3: volume,
	})
	return r.Index, r.Category
}

func SoilAmplification(soilType string) float64 {
	if v, ok := soilAmplification[soilType]; ok {
		return v
	}
	return defaultSoilAmplification
}

func MaterialFactor(m Material) float64 {
	if v, ok := materialFactor[m]; ok {
		return v
	}
	return defaultMaterialFactor
}

// KnownMaterial reports whether m has its own factor.
func KnownMaterial(m Material) bool {
	_, ok := materialFactor[m]
	return ok
}

// round2 rounds half away from zero; exact binary ties are the only inputs
// where this differs from banker's rounding.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
