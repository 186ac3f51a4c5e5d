package session

import "fmt"

// EndpointResolution selects how the webhook URL is chosen at submit time
type EndpointResolution string

const (
	EndpointSingle    EndpointResolution = "single"
	EndpointByCompany EndpointResolution = "by-company"
)

// Variant names accepted in configuration
const (
	VariantMulti  = "multi"
	VariantSingle = "single"
)

// Profile holds the rules that differ between the multi-company and the
// single-company report builder.
type Profile struct {
	Name string

	RequireAllFieldsOnAdd       bool
	CompanySelectable           bool
	EndpointResolution          EndpointResolution
	FallbackTransportOnFailure  bool
	ExportGatedBySuccessfulSend bool

	// ConfirmOnAdd queues a success toast after every accepted add.
	ConfirmOnAdd bool
	// ValidateRecordsOnSubmit checks every record for all six fields before posting.
	ValidateRecordsOnSubmit bool
	// ExportAfterSubmit downloads the PDF right after a successful submit.
	ExportAfterSubmit bool
	CompanyInFilename bool
	// ValidateBeforeExport requires technician, request date and records to export.
	ValidateBeforeExport bool
}

// MultiCompanyProfile is the DIDCOM/SITWIFI builder: strict adds, one webhook per company.
func MultiCompanyProfile() Profile {
	return Profile{
		Name:                  VariantMulti,
		RequireAllFieldsOnAdd: true,
		CompanySelectable:     true,
		EndpointResolution:    EndpointByCompany,
		ConfirmOnAdd:          true,
		ExportAfterSubmit:     true,
		CompanyInFilename:     true,
	}
}

// SingleCompanyProfile is the lenient builder: one webhook, checks at submit, fallback transport.
func SingleCompanyProfile() Profile {
	return Profile{
		Name:                        VariantSingle,
		EndpointResolution:          EndpointSingle,
		FallbackTransportOnFailure:  true,
		ExportGatedBySuccessfulSend: true,
		ValidateRecordsOnSubmit:     true,
		ValidateBeforeExport:        true,
	}
}

// ProfileFor returns the preset for a configured variant name
func ProfileFor(variant string) (Profile, error) {
	switch variant {
	case VariantMulti, "":
		return MultiCompanyProfile(), nil
	case VariantSingle:
		return SingleCompanyProfile(), nil
	default:
		return Profile{}, fmt.Errorf("unknown report variant %q", variant)
	}
}
