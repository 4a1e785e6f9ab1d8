package signing

// Domains lists the signing domains the storefront accepts. Injected
// configuration rather than package constants so deployments can rotate
// names and versions without code changes.
type Domains struct {
	Checkout        Domain
	Cancel          Domain
	StoreSetup      Domain
	KeyRegistration Domain
}

func DefaultDomains() Domains {
	return Domains{
		Checkout:        Domain{Name: "Qua Checkout", Version: "1"},
		Cancel:          Domain{Name: "Qua Cancel Order", Version: "1"},
		StoreSetup:      Domain{Name: "Qua Store Setup", Version: "1"},
		KeyRegistration: Domain{Name: "Qua Signing Key", Version: "1"},
	}
}
