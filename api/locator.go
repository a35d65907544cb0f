package api

type locatorKind int

const (
	noLocator locatorKind = iota
	staticLocator
	dynamicLocator
)

//Locator resolves the base URL of the store, either to a fixed value or
//through a function called on every request.
type Locator struct {
	kind   locatorKind
	url    string
	supply func() string
}

//Static returns a Locator always resolving to url
func Static(url string) Locator {
	return Locator{kind: staticLocator, url: url}
}

//Dynamic returns a Locator calling supply on every request, e.g. to follow a refreshed token in the URL
func Dynamic(supply func() string) Locator {
	return Locator{kind: dynamicLocator, supply: supply}
}

//IsZero returns whether the locator was never set
func (l Locator) IsZero() bool {
	return l.kind == noLocator
}

//Validate reports a ConfigurationError for a locator that can not be resolved
func (l Locator) Validate() error {
	switch l.kind {
	case staticLocator:
		if len(l.url) == 0 {
			return ConfigurationError("store URL is empty")
		}
	case dynamicLocator:
		if l.supply == nil {
			return ConfigurationError("store URL supplier is nil")
		}
	default:
		return ConfigurationError("store locator must be a static URL or a supplier function")
	}
	return nil
}

//Resolve returns the current base URL
func (l Locator) Resolve() string {
	if l.kind == dynamicLocator {
		return l.supply()
	}
	return l.url
}
