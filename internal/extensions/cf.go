package extensions

import (
	"sort"

	"github.com/nimbusgeo/stac-populator/internal/ncmeta"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// CFSchemaURI identifies the CF extension on produced items. The cf:
// properties are not validated against it, the published schema does not
// yet cover cf:parameter.
const CFSchemaURI = "https://stac-extensions.github.io/cf/v0.2.0/schema.json"

// CFParameter names one geophysical parameter present in the dataset.
type CFParameter struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// CF is the cf:parameter extension, listing every variable that carries a
// CF standard_name.
type CF struct {
	Parameters []CFParameter
}

// NewCF collects CF parameters from the bundle's variables. Variables
// without a standard_name are skipped; a dataset with no CF parameters
// still yields a valid (empty) helper.
func NewCF(b *ncmeta.Bundle) *CF {
	params := make([]CFParameter, 0, len(b.Variables))
	for _, v := range b.Variables {
		name, ok := v.Attributes["standard_name"].(string)
		if !ok || name == "" {
			continue
		}
		unit, _ := v.Attributes["units"].(string)
		params = append(params, CFParameter{Name: name, Unit: unit})
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return &CF{Parameters: params}
}

// Apply attaches cf:parameter to the item's properties.
func (c *CF) Apply(item *stac.Item) error {
	item.Properties["cf:parameter"] = c.Parameters
	item.RegisterExtension(CFSchemaURI)
	return nil
}
