package device

import "sort"

// DefaultName is the device used when a name is empty or unknown.
const DefaultName = "iPhone 16"

// Spec holds the CSS metrics of a device bezel. Values are CSS lengths so
// they can be dropped into the rendered style sheet as is.
type Spec struct {
	Width              string `json:"width"`
	Height             string `json:"height"`
	Scale              string `json:"scale"`
	BorderRadius       string `json:"borderRadius"`
	NotchWidth         string `json:"notchWidth"`
	NotchHeight        string `json:"notchHeight"`
	HomeIndicatorWidth string `json:"homeIndicatorWidth"`
}

var iPhone = Spec{
	Width:              "393px",
	Height:             "852px",
	Scale:              "0.5",
	BorderRadius:       "47px",
	NotchWidth:         "126px",
	NotchHeight:        "30px",
	HomeIndicatorWidth: "134px",
}

var specs = map[string]Spec{
	"iPhone 16":     iPhone,
	"iPhone 16 Pro": iPhone,
	"iPhone 15":     iPhone,
}

// Lookup returns the metrics for name, falling back to the default device.
func Lookup(name string) Spec {
	if s, ok := specs[name]; ok {
		return s
	}
	return specs[DefaultName]
}

// Known reports whether name is in the device table.
func Known(name string) bool {
	_, ok := specs[name]
	return ok
}

// Names lists the known devices in sorted order.
func Names() []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
