// Package etdmodel holds the canonical ETD model: the column set every
// mapped household table must have, the column groups the validators work
// on, and the validation thresholds bundled as reference tables.
package etdmodel

import (
	"github.com/energietransitie/etdkit"
)

// ReadingDateColumn is the time index of every household table.
const ReadingDateColumn = "ReadingDate"

// DataAnalysisColumns are the columns required for any analysis; datasets
// missing one of these are flagged in the index.
var DataAnalysisColumns = []string{
	"ReadingDate",
	"ElektriciteitNetgebruikHoog",
	"ElektriciteitNetgebruikLaag",
	"ElektriciteitTerugleveringHoog",
	"ElektriciteitTerugleveringLaag",
	"Zon-opwekTotaal",
}

// CumulativeColumns are the monotonically increasing meter readings that get
// a Diff column and the reset/gap/zero-run treatment.
var CumulativeColumns = []string{
	"ElektriciteitNetgebruikHoog",
	"ElektriciteitNetgebruikLaag",
	"ElektriciteitTerugleveringHoog",
	"ElektriciteitTerugleveringLaag",
	"Gasgebruik",
	"ElektriciteitsgebruikWTW",
	"ElektriciteitsgebruikWarmtepomp",
	"ElektriciteitsgebruikBooster",
	"ElektriciteitsgebruikBoilervat",
	"WarmteproductieWarmtepomp",
	"WatergebruikWarmTapwater",
	"Zon-opwekTotaal",
	"ElektriciteitsgebruikWarmtepompIntern",
	"WarmteproductieRuimteverwarming",
	"WarmteproductieTapwater",
	"WatergebruikWarmtepomp",
	"WatergebruikRuimteverwarming",
}

// ModelColumnOrder is the canonical column order of a mapped household
// table. ReadingDate comes first; everything else is a nullable float.
var ModelColumnOrder = []string{
	"ReadingDate",
	"ElektriciteitNetgebruikHoog",
	"ElektriciteitNetgebruikLaag",
	"ElektriciteitTerugleveringHoog",
	"ElektriciteitTerugleveringLaag",
	"ElektriciteitVermogen",
	"Gasgebruik",
	"ElektriciteitsgebruikWTW",
	"ElektriciteitsgebruikWarmtepomp",
	"ElektriciteitsgebruikBooster",
	"ElektriciteitsgebruikBoilervat",
	"TemperatuurWarmTapwater",
	"TemperatuurWoonkamer",
	"TemperatuurSetpointWoonkamer",
	"WarmteproductieWarmtepomp",
	"WatergebruikWarmTapwater",
	"Zon-opwekMomentaan",
	"Zon-opwekTotaal",
	"CO2",
	"Luchtvochtigheid",
	"Ventilatiedebiet",
	"SlimmemeterVoltageL1",
	"SlimmemeterVoltageL2",
	"SlimmemeterVoltageL3",
	"SlimmemeterStroomsterkteL1",
	"SlimmemeterStroomsterkteL2",
	"SlimmemeterStroomsterkteL3",
	"ElektriciteitsgebruikWarmtepompIntern",
	"TemperatuurBoilervat",
	"TemperatuurBinnenWTW",
	"TemperatuurBuitenWTW",
	"TemperatuurBuitenWarmtepomp",
	"TemperatuurAfgifteAanvoer",
	"TemperatuurAfgifteRetour",
	"WarmteproductieRuimteverwarming",
	"WarmteproductieTapwater",
	"WatergebruikWarmtepomp",
	"WatergebruikRuimteverwarming",
	"WarmtepompModus",
}

// AllowedSupplierMetadataColumns is the allowlist of metadata columns a
// supplier may contribute to the index.
var AllowedSupplierMetadataColumns = []string{
	"ProjectIdLeverancier", "HuisIdLeverancier", "Weerstation", "Oppervlakte", "PlatOfZadelDak",
	"Compactheid", "Warmtebehoefte", "PrimairFossielGebruik", "Bouwjaar", "Renovatiejaar",
	"WoningType", "WoningTypeDetail", "WarmteopwekkerType", "WarmteopwekkerCategorie",
	"Warmteopwekker", "Ventilatiesysteem", "Kookinstallatie", "PVJaarbundel", "PVMerk",
	"PVType", "PVAantalPanelen", "PVWattpiekPerPaneel", "EPV", "GasgebruikVoorRenovatie",
	"ElektriciteitVoorRenovatie",
	"Eigenaarschap",
	"Nieuwheid",
	"WarmtepompKoudemiddel",
	"WarmtepompVermogenTh",
	"WarmtepompElElement",
	"WarmtepompElAansluiting",
	"WarmtepompBron",
	"BoilervatVolume",
	"AfgiftesysteemCategorie",
	"DakType",
}

// ColumnKind returns the model type of a canonical column and whether the
// column belongs to the model at all.
func ColumnKind(name string) (etdkit.Kind, bool) {
	if name == ReadingDateColumn {
		return etdkit.Time, true
	}
	for _, c := range ModelColumnOrder {
		if c == name {
			return etdkit.Float, true
		}
	}
	return etdkit.Float, false
}

// IsCumulative reports whether the column is a cumulative meter reading.
func IsCumulative(name string) bool {
	for _, c := range CumulativeColumns {
		if c == name {
			return true
		}
	}
	return false
}

// DiffColumn returns the name of the difference column derived from a
// cumulative column.
func DiffColumn(cumulative string) string { return cumulative + "Diff" }
