package etl

import (
	"github.com/shopspring/decimal"
	"github.com/tribodata/oilwatch_backend/models"
)

// The export carries exactly 57 meaningful columns in fixed positions;
// anything past position 56 is discarded. Mapping is positional, not by
// header name. This file is the single place to touch if the lab changes
// the export layout.

// Report field positions (0-17).
const (
	colRowNumber         = 0  // N°
	colLabNumber         = 1  // No. Lab
	colOrganizationName  = 2  // Cliente
	colMachineName       = 3  // Equipo
	colComponentName     = 4  // Componente
	colSerialNumberCode  = 5  // Cód/Núm Serie
	colLubricant         = 6  // Lubricante
	colSampleDate        = 7  // Fecha Muestra
	colMachineHoursKms   = 8  // Equipo Horas/Kms
	colLubricantHoursKms = 9  // Lubricante Horas/Kms
	colReceptionDate     = 10 // Fecha de Recepción
	colReportDate        = 11 // Fecha de Reporte
	colFilterChange      = 12 // Cambio de Filtro
	colOilChange         = 13 // Cambio de Aceite
	colPerNumber         = 14 // No.Per
	colOthers            = 15 // Otros
	colCondition         = 16 // Condición
	colNotes             = 17 // Comentario
)

const numColumns = 57

// analysisColumn describes one lab-analysis cell: its position and exactly
// one destination accessor, which also selects the parser (text verbatim,
// decimal nullable, integer zero-defaulted).
type analysisColumn struct {
	name  string
	index int
	text  func(*models.LabAnalysis) *string
	dec   func(*models.LabAnalysis) **decimal.Decimal
	num   func(*models.LabAnalysis) *int
}

// Lab-analysis field positions (18-56).
var analysisColumns = []analysisColumn{
	{name: "water_crackle", index: 18, text: func(a *models.LabAnalysis) *string { return &a.WaterCrackle }},
	{name: "water_distillation", index: 19, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.WaterDistillation }},
	{name: "viscosity_40c", index: 20, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Viscosity40c }},
	{name: "viscosity_100c", index: 21, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Viscosity100c }},
	{name: "compatibility", index: 22, text: func(a *models.LabAnalysis) *string { return &a.Compatibility }},
	{name: "tbn", index: 23, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Tbn }},
	{name: "tan", index: 24, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Tan }},
	{name: "oxidation", index: 25, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Oxidation }},
	{name: "soot", index: 26, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Soot }},
	{name: "nitration", index: 27, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Nitration }},
	{name: "sulfation", index: 28, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Sulfation }},
	{name: "glycol", index: 29, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.Glycol }},
	{name: "fuel_dilution", index: 30, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.FuelDilution }},
	{name: "water_ftir", index: 31, dec: func(a *models.LabAnalysis) **decimal.Decimal { return &a.WaterFtir }},
	{name: "pq_index", index: 32, num: func(a *models.LabAnalysis) *int { return &a.PqIndex }},
	{name: "particle_count_iso", index: 33, text: func(a *models.LabAnalysis) *string { return &a.ParticleCountIso }},
	{name: "iron_fe", index: 34, num: func(a *models.LabAnalysis) *int { return &a.IronFe }},
	{name: "chromium_cr", index: 35, num: func(a *models.LabAnalysis) *int { return &a.ChromiumCr }},
	{name: "lead_pb", index: 36, num: func(a *models.LabAnalysis) *int { return &a.LeadPb }},
	{name: "copper_cu", index: 37, num: func(a *models.LabAnalysis) *int { return &a.CopperCu }},
	{name: "tin_sn", index: 38, num: func(a *models.LabAnalysis) *int { return &a.TinSn }},
	{name: "aluminum_al", index: 39, num: func(a *models.LabAnalysis) *int { return &a.AluminumAl }},
	{name: "nickel_ni", index: 40, num: func(a *models.LabAnalysis) *int { return &a.NickelNi }},
	{name: "silver_ag", index: 41, num: func(a *models.LabAnalysis) *int { return &a.SilverAg }},
	{name: "silicon_si", index: 42, num: func(a *models.LabAnalysis) *int { return &a.SiliconSi }},
	{name: "boron_b", index: 43, num: func(a *models.LabAnalysis) *int { return &a.BoronB }},
	{name: "sodium_na", index: 44, num: func(a *models.LabAnalysis) *int { return &a.SodiumNa }},
	{name: "magnesium_mg", index: 45, num: func(a *models.LabAnalysis) *int { return &a.MagnesiumMg }},
	{name: "molybdenum_mo", index: 46, num: func(a *models.LabAnalysis) *int { return &a.MolybdenumMo }},
	{name: "titanium_ti", index: 47, num: func(a *models.LabAnalysis) *int { return &a.TitaniumTi }},
	{name: "vanadium_v", index: 48, num: func(a *models.LabAnalysis) *int { return &a.VanadiumV }},
	{name: "manganese_mn", index: 49, num: func(a *models.LabAnalysis) *int { return &a.ManganeseMn }},
	{name: "potassium_k", index: 50, num: func(a *models.LabAnalysis) *int { return &a.PotassiumK }},
	{name: "phosphorus_p", index: 51, num: func(a *models.LabAnalysis) *int { return &a.PhosphorusP }},
	{name: "zinc_zn", index: 52, num: func(a *models.LabAnalysis) *int { return &a.ZincZn }},
	{name: "calcium_ca", index: 53, num: func(a *models.LabAnalysis) *int { return &a.CalciumCa }},
	{name: "barium_ba", index: 54, num: func(a *models.LabAnalysis) *int { return &a.BariumBa }},
	{name: "cadmium_cd", index: 55, num: func(a *models.LabAnalysis) *int { return &a.CadmiumCd }},
	{name: "visual_appearance", index: 56, text: func(a *models.LabAnalysis) *string { return &a.VisualAppearance }},
}
