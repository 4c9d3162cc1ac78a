package core

// Advisory is the human-readable verdict shown next to a CompatibilityResult.
type Advisory struct {
	OK             bool   `json:"ok"`
	Headline       string `json:"headline"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

const (
	headlineCompatible = "Fully Compatible"
	headlineRequired   = "Adapter Required"

	msgAdapterAndConverter = "Warning: You need an adapter with voltage conversion. Electrical standards differ significantly."
	msgAdapterOnly         = "You require a physical plug adapter. Voltage is compatible for most devices."
	msgConverterOnly       = "Note: Pins match, but a voltage converter is mandatory for safety."
	msgNothing             = "Excellent. Your devices will function optimally without any modifications."

	recommendGrounded  = "Great Britain-style sockets (G) require a specialized 3-pin configuration. We recommend our high-precision grounded adapter."
	recommendUniversal = "Target standards detect varied socket geometry. A universal Swiss-grade adapter is recommended for consistent connectivity."
)

// Advise turns a result into display text for a trip to dest.
func Advise(result CompatibilityResult, dest Profile) Advisory {
	a := Advisory{
		OK:             !result.NeedsAdapter && !result.NeedsConverter,
		Recommendation: recommendUniversal,
	}

	if a.OK {
		a.Headline = headlineCompatible
	} else {
		a.Headline = headlineRequired
	}

	switch {
	case result.NeedsAdapter && result.NeedsConverter:
		a.Message = msgAdapterAndConverter
	case result.NeedsAdapter:
		a.Message = msgAdapterOnly
	case result.NeedsConverter:
		a.Message = msgConverterOnly
	default:
		a.Message = msgNothing
	}

	if dest.HasPlug("G") {
		a.Recommendation = recommendGrounded
	}

	return a
}
