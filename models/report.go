package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReportCondition string

const (
	ConditionNormal   ReportCondition = "NORMAL"
	ConditionCaution  ReportCondition = "CAUTION"
	ConditionCritical ReportCondition = "CRITICAL"
	ConditionSevere   ReportCondition = "SEVERE"
)

type ReportStatus string

const (
	StatusPending  ReportStatus = "PENDING"
	StatusReviewed ReportStatus = "REVIEWED"
	StatusApproved ReportStatus = "APPROVED"
	StatusRejected ReportStatus = "REJECTED"
)

// Report is one lab inspection sample event for a machine/component.
// LabNumber is the natural key: the ingestion pipeline never creates two
// reports with the same lab number and never updates an existing one.
type Report struct {
	ID               int             `gorm:"primary_key" json:"id"`
	LabNumber        string          `gorm:"size:100;not null;unique" json:"lab_number" binding:"required"`
	OrganizationId   *int            `gorm:"index" json:"organization_id"`
	Organization     *Organization   `json:"-"`
	MachineId        *int            `gorm:"index" json:"machine_id"`
	Machine          *Machine        `json:"-"`
	ComponentId      *int            `gorm:"index" json:"component_id"`
	Component        *Component      `json:"-"`
	SerialNumberCode string          `gorm:"size:100" json:"serial_number_code"`
	Lubricant        string          `gorm:"size:255" json:"lubricant"`
	LubricantHours   int             `gorm:"not null;default:0" json:"lubricant_hours"`
	LubricantKms     int             `gorm:"not null;default:0" json:"lubricant_kms"`
	MachineHours     int             `gorm:"not null;default:0" json:"machine_hours"`
	MachineKms       int             `gorm:"not null;default:0" json:"machine_kms"`
	SampleDate       *time.Time      `gorm:"type:date;index" json:"sample_date"`
	ReceptionDate    *time.Time      `gorm:"type:date" json:"reception_date"`
	ReportDate       *time.Time      `gorm:"type:date" json:"report_date"`
	FilterChange     string          `gorm:"size:100" json:"filter_change"`
	OilChange        string          `gorm:"size:100" json:"oil_change"`
	PerNumber        string          `gorm:"size:100" json:"per_number"`
	Others           string          `gorm:"type:text" json:"others"`
	Condition        ReportCondition `gorm:"type:enum('NORMAL','CAUTION','CRITICAL','SEVERE');default:'NORMAL'" json:"condition"`
	Status           ReportStatus    `gorm:"type:enum('PENDING','REVIEWED','APPROVED','REJECTED');default:'PENDING'" json:"status"`
	Notes            string          `gorm:"type:text" json:"notes"`
	IsActive         *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedBy        string          `gorm:"size:100" json:"created_by"`
	ModifiedBy       string          `gorm:"size:100" json:"modified_by"`
	Analysis         *LabAnalysis    `gorm:"constraint:OnDelete:CASCADE" json:"analysis,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// LabAnalysis holds the chemistry measurement set of exactly one Report.
// Decimal fields are nullable (a measurement can be genuinely absent);
// elemental counts default to zero.
type LabAnalysis struct {
	ID       int `gorm:"primary_key" json:"id"`
	ReportId int `gorm:"uniqueIndex;not null" json:"report_id"`

	WaterCrackle     string `gorm:"size:100" json:"water_crackle"`
	Compatibility    string `gorm:"size:100" json:"compatibility"`
	ParticleCountIso string `gorm:"size:100" json:"particle_count_iso"`
	VisualAppearance string `gorm:"size:255" json:"visual_appearance"`

	WaterDistillation *decimal.Decimal `gorm:"type:decimal(10,2)" json:"water_distillation"`
	Viscosity40c      *decimal.Decimal `gorm:"type:decimal(10,2)" json:"viscosity_40c"`
	Viscosity100c     *decimal.Decimal `gorm:"type:decimal(10,2)" json:"viscosity_100c"`
	Tbn               *decimal.Decimal `gorm:"type:decimal(10,2)" json:"tbn"`
	Tan               *decimal.Decimal `gorm:"type:decimal(10,2)" json:"tan"`
	Oxidation         *decimal.Decimal `gorm:"type:decimal(10,2)" json:"oxidation"`
	Soot              *decimal.Decimal `gorm:"type:decimal(10,2)" json:"soot"`
	Nitration         *decimal.Decimal `gorm:"type:decimal(10,2)" json:"nitration"`
	Sulfation         *decimal.Decimal `gorm:"type:decimal(10,2)" json:"sulfation"`
	Glycol            *decimal.Decimal `gorm:"type:decimal(10,2)" json:"glycol"`
	FuelDilution      *decimal.Decimal `gorm:"type:decimal(10,2)" json:"fuel_dilution"`
	WaterFtir         *decimal.Decimal `gorm:"type:decimal(10,2)" json:"water_ftir"`

	PqIndex      int `gorm:"not null;default:0" json:"pq_index"`
	IronFe       int `gorm:"not null;default:0" json:"iron_fe"`
	ChromiumCr   int `gorm:"not null;default:0" json:"chromium_cr"`
	LeadPb       int `gorm:"not null;default:0" json:"lead_pb"`
	CopperCu     int `gorm:"not null;default:0" json:"copper_cu"`
	TinSn        int `gorm:"not null;default:0" json:"tin_sn"`
	AluminumAl   int `gorm:"not null;default:0" json:"aluminum_al"`
	NickelNi     int `gorm:"not null;default:0" json:"nickel_ni"`
	SilverAg     int `gorm:"not null;default:0" json:"silver_ag"`
	SiliconSi    int `gorm:"not null;default:0" json:"silicon_si"`
	BoronB       int `gorm:"not null;default:0" json:"boron_b"`
	SodiumNa     int `gorm:"not null;default:0" json:"sodium_na"`
	MagnesiumMg  int `gorm:"not null;default:0" json:"magnesium_mg"`
	MolybdenumMo int `gorm:"not null;default:0" json:"molybdenum_mo"`
	TitaniumTi   int `gorm:"not null;default:0" json:"titanium_ti"`
	VanadiumV    int `gorm:"not null;default:0" json:"vanadium_v"`
	ManganeseMn  int `gorm:"not null;default:0" json:"manganese_mn"`
	PotassiumK   int `gorm:"not null;default:0" json:"potassium_k"`
	PhosphorusP  int `gorm:"not null;default:0" json:"phosphorus_p"`
	ZincZn       int `gorm:"not null;default:0" json:"zinc_zn"`
	CalciumCa    int `gorm:"not null;default:0" json:"calcium_ca"`
	BariumBa     int `gorm:"not null;default:0" json:"barium_ba"`
	CadmiumCd    int `gorm:"not null;default:0" json:"cadmium_cd"`

	CreatedBy  string    `gorm:"size:100" json:"created_by"`
	ModifiedBy string    `gorm:"size:100" json:"modified_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
