package prompt

// HazardCategory is one row of the hazardous-materials reference table.
type HazardCategory struct {
	Name  string
	Items []string
}

// HazardousMaterials is embedded verbatim in every initial prompt. Order is fixed so
// prompts stay byte-identical for identical requests.
var HazardousMaterials = []HazardCategory{
	{
		Name: "Lead-associated materials",
		Items: []string{
			"lead-based paint (common in homes built before 1978)",
			"lead water pipes and lead solder on copper pipes",
			"lead-glazed ceramic tile and old bathtubs",
			"old window putty, glazing and painted window sashes",
		},
	},
	{
		Name: "Asbestos-associated materials",
		Items: []string{
			"popcorn or acoustic ceiling texture",
			"9x9 inch vinyl floor tiles and black mastic adhesive",
			"pipe, duct and boiler insulation wrap",
			"vermiculite attic insulation",
			"cement board siding and roofing shingles",
			"textured wall coatings and older joint compound",
		},
	},
	{
		Name: "Other hazards",
		Items: []string{
			"mercury in old thermostats and switches",
			"PCBs in old fluorescent light ballasts and caulking",
			"creosote in chimneys and railroad-tie landscaping",
			"formaldehyde in particleboard and urea-formaldehyde foam insulation",
			"mold on drywall, wood framing or insulation",
		},
	},
}
