package models

// EquipmentRecord represents one serviced unit in a report, matching the webhook equipos structure
type EquipmentRecord struct {
	CompletionDate string `json:"fechaRealizacion"` // YYYY-MM-DD
	ActivityType   string `json:"actividad"`
	DeviceType     string `json:"dispositivo"`
	UnitLabel      string `json:"unidad"`
	Details        string `json:"detalles"`
	Comments       string `json:"comentarios"`
}

// WebhookPayload is the body posted to the spreadsheet webhook
type WebhookPayload struct {
	TechnicianName string            `json:"tecnico"`
	RequestDate    string            `json:"fechaSolicitud"` // YYYY-MM-DD
	Equipment      []EquipmentRecord `json:"equipos"`
}

// Company identifies which spreadsheet a multi-company report belongs to
type Company string

const (
	CompanyDidcom  Company = "DIDCOM"
	CompanySitwifi Company = "SITWIFI"
)

// Companies lists the selectable companies in display order
var Companies = []Company{CompanyDidcom, CompanySitwifi}

// Activity options as shown in the form and stored in the sheet
const (
	ActivityCorrective     = "MTTO CORRECTIVO"
	ActivityPreventive     = "MTTO PREVENTIVO"
	ActivityInstallation   = "INSTALACION"
	ActivityUninstallation = "DESINSTALACIÓN"
)

// ActivityTypes lists the activity options in display order
var ActivityTypes = []string{
	ActivityCorrective,
	ActivityPreventive,
	ActivityInstallation,
	ActivityUninstallation,
}

// Device options
const (
	DeviceGPS     = "GPS"
	DeviceCamera  = "CAMARA"
	DeviceReader  = "LECTORA"
	DeviceDidcom  = "EQUIPOS DIDCOM"
	DevicePeplink = "Peplink"
)

// DeviceTypesFor returns the device options offered for a company.
// Unknown companies get the SITWIFI list.
func DeviceTypesFor(company Company) []string {
	if company == CompanyDidcom {
		return []string{DeviceGPS, DeviceCamera, DeviceReader, DeviceDidcom}
	}
	return []string{DevicePeplink}
}
