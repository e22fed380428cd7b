package irs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lima5x5() Params {
	return Params{
		HeightM:  10,
		LoadKN:   0,
		PGA:      0.20,
		SoilType: "S4",
		Material: MaterialConcrete,
		AreaM2:   25,
		VolumeM3: 250,
	}
}

func TestCompute_WorkedExample(t *testing.T) {
	r := Compute(lima5x5())

	assert.InDelta(t, 0.4444, r.Factors.PGA, 1e-4)
	assert.Equal(t, 1.55, r.Factors.SoilAmplification)
	assert.InDelta(t, 0.6889, r.Factors.Seismic, 1e-4)
	assert.InDelta(t, 1.0, r.Factors.Slenderness, 1e-9)
	assert.Equal(t, 0.0, r.Factors.Load)
	assert.InDelta(t, 0.6, r.Factors.Structural, 1e-9)
	assert.InDelta(t, 0.8, r.Factors.Area, 1e-9)
	assert.Equal(t, 1.5, r.Factors.Volume)
	assert.InDelta(t, 1.15, r.Factors.Geometry, 1e-9)
	assert.Equal(t, 1.0, r.Factors.Material)

	assert.Equal(t, 75.44, r.Index)
	assert.Equal(t, CategoryCritical, r.Category)
	assert.Equal(t, "Crítico", r.Label)
}

func TestComputeIRS_Positional(t *testing.T) {
	index, category := ComputeIRS(3, 0, 0.10, "S1", MaterialSteel, 100, 300)
	assert.Equal(t, 25.13, index)
	assert.Equal(t, CategorySafe, category)
}

func TestCompute_SeismicUpperClamp(t *testing.T) {
	for _, pga := range []float64{0.45, 0.5, 0.9, 2.0} {
		p := lima5x5()
		p.PGA = pga
		r := Compute(p)
		assert.Equal(t, 1.0, r.Factors.Seismic, "pga=%v", pga)
		assert.Equal(t, 1.0, r.Factors.PGA, "pga=%v", pga)
	}
}

func TestCompute_UnknownSoilFallsBack(t *testing.T) {
	p := lima5x5()
	p.SoilType = "S9"
	r := Compute(p)
	assert.Equal(t, 1.2, r.Factors.SoilAmplification)
	assert.Equal(t, 67.67, r.Index)

	p.SoilType = ""
	assert.Equal(t, 1.2, Compute(p).Factors.SoilAmplification)
}

func TestCompute_UnknownMaterialMatchesConcrete(t *testing.T) {
	p := lima5x5()
	p.Material = "Vidrio"
	unknown := Compute(p)

	p.Material = MaterialConcrete
	concrete := Compute(p)

	assert.Equal(t, 1.0, unknown.Factors.Material)
	assert.Equal(t, concrete.Index, unknown.Index)
	assert.False(t, KnownMaterial("Vidrio"))
}

func TestMaterialFactor_Table(t *testing.T) {
	tests := []struct {
		material Material
		want     float64
	}{
		{MaterialSteel, 0.75},
		{MaterialConcrete, 1.0},
		{MaterialMasonry, 1.35},
		{"Mamposteria", 1.35},
		{MaterialWood, 0.85},
		{MaterialAdobe, 1.50},
		{MaterialLightPrecast, 1.20},
		{MaterialAluminium, 0.90},
		{"acero", 1.0},
	}
	for _, tt := range tests {
		t.Run(string(tt.material), func(t *testing.T) {
			assert.Equal(t, tt.want, MaterialFactor(tt.material))
		})
	}
}

func TestMaterials_AllKnown(t *testing.T) {
	assert.Len(t, Materials, 7)
	for _, m := range Materials {
		assert.True(t, KnownMaterial(m), string(m))
	}
}

func TestCompute_MaterialFactorIsUnclamped(t *testing.T) {
	r := Compute(Params{
		HeightM:  20,
		LoadKN:   5000,
		PGA:      0.45,
		SoilType: "S4",
		Material: MaterialAdobe,
		AreaM2:   25,
		VolumeM3: 500,
	})
	assert.Equal(t, 154.5, r.Index)
	assert.Equal(t, CategoryCritical, r.Category)
}

func TestCompute_GeometryCapsAtOneAndAHalf(t *testing.T) {
	r := Compute(Params{
		HeightM:  1,
		PGA:      0.1,
		SoilType: "S1",
		Material: MaterialConcrete,
		AreaM2:   1,
		VolumeM3: 1000,
	})
	assert.Equal(t, 1.5, r.Factors.Area)
	assert.Equal(t, 1.5, r.Factors.Volume)
	assert.Equal(t, 1.5, r.Factors.Geometry)
}

func TestCompute_MonotonicInputs(t *testing.T) {
	base := Params{
		HeightM:  3,
		LoadKN:   100,
		PGA:      0.05,
		SoilType: "S2",
		Material: MaterialWood,
		AreaM2:   100,
		VolumeM3: 300,
	}

	t.Run("pga", func(t *testing.T) {
		prev := -1.0
		for pga := 0.0; pga <= 0.8; pga += 0.02 {
			p := base
			p.PGA = pga
			idx := Compute(p).Index
			assert.GreaterOrEqual(t, idx, prev, "pga=%v", pga)
			prev = idx
		}
	})

	t.Run("load", func(t *testing.T) {
		prev := -1.0
		for load := 0.0; load <= 6000; load += 250 {
			p := base
			p.LoadKN = load
			idx := Compute(p).Index
			assert.GreaterOrEqual(t, idx, prev, "load=%v", load)
			prev = idx
		}
	})

	t.Run("height", func(t *testing.T) {
		prev := -1.0
		for h := 1.0; h <= 30; h++ {
			p := base
			p.HeightM = h
			idx := Compute(p).Index
			assert.GreaterOrEqual(t, idx, prev, "height=%v", h)
			prev = idx
		}
	})
}

func TestCompute_RoundsToTwoDecimals(t *testing.T) {
	r := Compute(lima5x5())
	assert.Equal(t, r.Index, round2(r.Index))
}
