package places

// ParsedAddress is the standardized view of provider address components.
type ParsedAddress struct {
	StreetNumber string
	Route        string
	AddressLine1 string
	City         string
	State        string
	StateCode    string
	PostalCode   string
}

// ParseAddressComponents maps provider address components onto the
// standardized address shape. AddressLine1 is street number + route when
// both are present, the bare route otherwise, empty when neither exists.
func ParseAddressComponents(components []AddressComponent) ParsedAddress {
	var p ParsedAddress

	for _, comp := range components {
		switch {
		case hasType(comp, "street_number"):
			p.StreetNumber = comp.LongName
		case hasType(comp, "route"):
			p.Route = comp.LongName
		case hasType(comp, "locality"):
			p.City = comp.LongName
		case hasType(comp, "administrative_area_level_1"):
			p.State = comp.LongName
			p.StateCode = comp.ShortName
		case hasType(comp, "postal_code"):
			p.PostalCode = comp.LongName
		}
	}

	switch {
	case p.StreetNumber != "" && p.Route != "":
		p.AddressLine1 = p.StreetNumber + " " + p.Route
	case p.Route != "":
		p.AddressLine1 = p.Route
	}

	return p
}

func hasType(comp AddressComponent, t string) bool {
	for _, ct := range comp.Types {
		if ct == t {
			return true
		}
	}
	return false
}
