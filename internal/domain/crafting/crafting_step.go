package crafting

// StepComponent is the quantity of one ingredient consumed by a crafting step
type StepComponent struct {
	ID       int      `json:"id"`
	Kind     ItemKind `json:"kind"`
	Quantity int      `json:"quantity"`
}

// CraftingStep is one aggregated "craft this N times" action for a checklist
type CraftingStep struct {
	ID                   int             `json:"id"`
	Kind                 ItemKind        `json:"kind"`
	Name                 string          `json:"name,omitempty"`
	Quantity             int             `json:"quantity"`
	OutputBatch          int             `json:"outputBatch"`
	Crafts               int             `json:"crafts"`
	Components           []StepComponent `json:"components"`
	HasCraftedComponents bool            `json:"hasCraftedComponents"`
	Disciplines          []string        `json:"disciplines,omitempty"`
	MinRating            int             `json:"minRating,omitempty"`
	MerchantName         string          `json:"merchantName,omitempty"`
}

// IsMerchantOnly returns true for vendor purchases that need nothing crafted first
func (s *CraftingStep) IsMerchantOnly() bool {
	return len(s.Disciplines) == 1 &&
		s.Disciplines[0] == MerchantDiscipline &&
		!s.HasCraftedComponents
}

// AddComponent merges an ingredient quantity into the step
func (s *CraftingStep) AddComponent(id int, kind ItemKind, quantity int) {
	for i := range s.Components {
		if s.Components[i].ID == id {
			s.Components[i].Quantity += quantity
			return
		}
	}
	s.Components = append(s.Components, StepComponent{ID: id, Kind: kind, Quantity: quantity})
}
